package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/retailpipe/internal/records"
	"github.com/angelmondragon/retailpipe/pkg/db"
	"github.com/angelmondragon/retailpipe/pkg/db/models"
)

const sqlBatchSize = 200

// SQLSink upserts records into the products and transactions tables.
type SQLSink struct {
	client *db.Client
}

// NewSQLSink migrates the schema and returns a sink bound to client.
func NewSQLSink(ctx context.Context, client *db.Client) (*SQLSink, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if err := client.DB().WithContext(ctx).AutoMigrate(&models.Product{}, &models.Transaction{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &SQLSink{client: client}, nil
}

func (s *SQLSink) Name() string { return "sql" }

func (s *SQLSink) LoadProducts(ctx context.Context, products []records.ProductRecord) error {
	if len(products) == 0 {
		return nil
	}
	rows := make([]models.Product, len(products))
	for i, p := range products {
		rows[i] = productModel(p)
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&rows, sqlBatchSize).Error
	})
}

func (s *SQLSink) LoadTransactions(ctx context.Context, txns []records.TransactionRecord) error {
	if len(txns) == 0 {
		return nil
	}
	rows := make([]models.Transaction, len(txns))
	for i, t := range txns {
		row, err := transactionModel(t)
		if err != nil {
			return err
		}
		rows[i] = row
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&rows, sqlBatchSize).Error
	})
}

func (s *SQLSink) Close() error { return s.client.Close() }

func productModel(p records.ProductRecord) models.Product {
	return models.Product{
		SKU:              p.Key,
		Name:             p.DisplayName,
		Description:      p.Description,
		Category:         p.Category,
		PriceCents:       p.UnitPriceMinor,
		CostCents:        p.UnitCostMinor,
		StockQuantity:    p.StockQuantity,
		ReorderThreshold: p.ReorderThreshold,
		Unit:             p.UnitLabel,
		SupplierName:     p.SupplierName,
		SupplierContact:  p.SupplierContact,
		ImageURL:         p.ImageRef,
		IsActive:         p.Active,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func transactionModel(t records.TransactionRecord) (models.Transaction, error) {
	items, err := json.Marshal(t.Items)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("encode items for %s: %w", t.TransactionID, err)
	}
	return models.Transaction{
		TransactionID: t.TransactionID,
		Timestamp:     t.Timestamp,
		UserID:        t.ActorID,
		CashierName:   t.ActorName,
		Items:         datatypes.JSON(items),
		ItemCount:     len(t.Items),
		SubtotalCents: t.SubtotalMinor,
		TaxCents:      t.TaxMinor,
		DiscountCents: t.DiscountMinor,
		TotalCents:    t.TotalMinor,
		PaymentMethod: t.PaymentMethod,
		Status:        t.Status,
	}, nil
}
