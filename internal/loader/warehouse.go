package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/retailpipe/internal/records"
)

const (
	defaultWarehouseBatch = 500
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// RetryPolicy controls how many times warehouse inserts are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type tableInserter interface {
	EnsureTable(ctx context.Context, name string, schema cbigquery.Schema) error
	InsertRows(ctx context.Context, table string, rows []any) error
	Close() error
}

// WarehouseConfig names the destination tables.
type WarehouseConfig struct {
	ProductsTable     string
	TransactionsTable string
	BatchSize         int
	Retry             RetryPolicy
}

// WarehouseSink streams records into BigQuery tables.
type WarehouseSink struct {
	client            tableInserter
	productsTable     string
	transactionsTable string
	batchSize         int
	retry             RetryPolicy
	sleep             func(ctx context.Context, d time.Duration) error
}

type productRow struct {
	SKU              string    `bigquery:"sku"`
	Name             string    `bigquery:"name"`
	Description      string    `bigquery:"description"`
	Category         string    `bigquery:"category"`
	PriceCents       int64     `bigquery:"price_cents"`
	CostCents        int64     `bigquery:"cost_cents"`
	StockQuantity    int       `bigquery:"stock_quantity"`
	ReorderThreshold int       `bigquery:"reorder_threshold"`
	Unit             string    `bigquery:"unit"`
	SupplierName     string    `bigquery:"supplier_name"`
	SupplierContact  string    `bigquery:"supplier_contact"`
	ImageURL         string    `bigquery:"image_url"`
	IsActive         bool      `bigquery:"is_active"`
	CreatedAt        time.Time `bigquery:"created_at"`
	UpdatedAt        time.Time `bigquery:"updated_at"`
}

type transactionRow struct {
	TransactionID string             `bigquery:"transaction_id"`
	OccurredAt    string             `bigquery:"occurred_at"`
	UserID        string             `bigquery:"user_id"`
	CashierName   string             `bigquery:"cashier_name"`
	Items         cbigquery.NullJSON `bigquery:"items"`
	ItemCount     int                `bigquery:"item_count"`
	SubtotalCents int64              `bigquery:"subtotal_cents"`
	TaxCents      int64              `bigquery:"tax_cents"`
	DiscountCents int64              `bigquery:"discount_cents"`
	TotalCents    int64              `bigquery:"total_cents"`
	PaymentMethod string             `bigquery:"payment_method"`
	Status        string             `bigquery:"status"`
}

// NewWarehouseSink wraps a BigQuery client.
func NewWarehouseSink(client tableInserter, cfg WarehouseConfig) (*WarehouseSink, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	products := strings.TrimSpace(cfg.ProductsTable)
	if products == "" {
		return nil, errors.New("products table is required")
	}
	txns := strings.TrimSpace(cfg.TransactionsTable)
	if txns == "" {
		return nil, errors.New("transactions table is required")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultWarehouseBatch
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff <= 0 {
		retry.MaximumBackoff = defaultMaximumBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = retry.InitialBackoff
	}

	return &WarehouseSink{
		client:            client,
		productsTable:     products,
		transactionsTable: txns,
		batchSize:         batchSize,
		retry:             retry,
		sleep:             sleepContext,
	}, nil
}

func (s *WarehouseSink) Name() string { return "bigquery" }

// Prepare creates the destination tables when missing, with schemas inferred
// from the row types.
func (s *WarehouseSink) Prepare(ctx context.Context) error {
	tables := []struct {
		name string
		row  any
	}{
		{name: s.productsTable, row: productRow{}},
		{name: s.transactionsTable, row: transactionRow{}},
	}
	for _, t := range tables {
		schema, err := cbigquery.InferSchema(t.row)
		if err != nil {
			return fmt.Errorf("infer %s schema: %w", t.name, err)
		}
		if err := s.client.EnsureTable(ctx, t.name, schema); err != nil {
			return err
		}
	}
	return nil
}

func (s *WarehouseSink) LoadProducts(ctx context.Context, products []records.ProductRecord) error {
	rows := make([]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, &cbigquery.StructSaver{
			InsertID: p.Key,
			Struct: productRow{
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
			},
		})
	}
	return s.insertBatches(ctx, s.productsTable, rows)
}

func (s *WarehouseSink) LoadTransactions(ctx context.Context, txns []records.TransactionRecord) error {
	rows := make([]any, 0, len(txns))
	for _, t := range txns {
		items, err := json.Marshal(t.Items)
		if err != nil {
			return fmt.Errorf("encode items for %s: %w", t.TransactionID, err)
		}
		rows = append(rows, &cbigquery.StructSaver{
			InsertID: t.TransactionID,
			Struct: transactionRow{
				TransactionID: t.TransactionID,
				OccurredAt:    t.Timestamp,
				UserID:        t.ActorID,
				CashierName:   t.ActorName,
				Items:         cbigquery.NullJSON{Valid: true, JSONVal: string(items)},
				ItemCount:     len(t.Items),
				SubtotalCents: t.SubtotalMinor,
				TaxCents:      t.TaxMinor,
				DiscountCents: t.DiscountMinor,
				TotalCents:    t.TotalMinor,
				PaymentMethod: t.PaymentMethod.String(),
				Status:        t.Status.String(),
			},
		})
	}
	return s.insertBatches(ctx, s.transactionsTable, rows)
}

func (s *WarehouseSink) Close() error { return s.client.Close() }

func (s *WarehouseSink) insertBatches(ctx context.Context, table string, rows []any) error {
	for start := 0; start < len(rows); start += s.batchSize {
		end := min(start+s.batchSize, len(rows))
		if err := s.insertWithRetry(ctx, table, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *WarehouseSink) insertWithRetry(ctx context.Context, table string, rows []any) error {
	if len(rows) == 0 {
		return nil
	}

	attempts := 0
	backoff := s.retry.InitialBackoff

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.client.InsertRows(ctx, table, rows)
		if err == nil {
			return nil
		}

		attempts++
		if attempts >= s.retry.MaxAttempts || !isRetryableBigQueryError(err) {
			return fmt.Errorf("insert %s rows: %w", table, err)
		}

		if err := s.sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = min(backoff*2, s.retry.MaximumBackoff)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRetryableBigQueryError(err error) bool {
	if err == nil {
		return false
	}

	var multi cbigquery.MultiError
	if errors.As(err, &multi) {
		if len(multi) == 0 {
			return false
		}
		for _, inner := range multi {
			if !isRetryableBigQueryError(inner) {
				return false
			}
		}
		return true
	}

	var pme cbigquery.PutMultiError
	if errors.As(err, &pme) {
		if len(pme) == 0 {
			return false
		}
		for _, rowErr := range pme {
			if !isRetryableBigQueryError(rowErr.Errors) {
				return false
			}
		}
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return isRetryableHTTPCode(apiErr.Code)
	}

	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			return isRetryableGRPCCode(st.Code())
		}
	}

	return false
}

func isRetryableHTTPCode(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isRetryableGRPCCode(code codes.Code) bool {
	switch code {
	case codes.Aborted,
		codes.DeadlineExceeded,
		codes.Internal,
		codes.ResourceExhausted,
		codes.Unavailable:
		return true
	default:
		return false
	}
}
