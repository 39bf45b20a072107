package loader

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/angelmondragon/retailpipe/internal/records"
	"github.com/angelmondragon/retailpipe/pkg/config"
	"github.com/angelmondragon/retailpipe/pkg/db"
	"github.com/angelmondragon/retailpipe/pkg/db/models"
)

func newSQLSink(t *testing.T) (*SQLSink, *db.Client) {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver:       config.DBDriverSQLite,
		DSN:          "file::memory:",
		MaxOpenConns: 1,
	}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sink, err := NewSQLSink(context.Background(), client)
	if err != nil {
		t.Fatalf("construct sink: %v", err)
	}
	t.Cleanup(func() { _ = sink.Close() })
	return sink, client
}

func TestSQLSinkUpsertsProducts(t *testing.T) {
	sink, client := newSQLSink(t)
	ctx := context.Background()

	products := fixtureProducts()
	if err := sink.LoadProducts(ctx, products); err != nil {
		t.Fatalf("first load: %v", err)
	}
	products[0].StockQuantity = 3
	if err := sink.LoadProducts(ctx, products); err != nil {
		t.Fatalf("second load: %v", err)
	}

	var count int64
	if err := client.DB().Model(&models.Product{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected upsert to keep 2 rows, got %d", count)
	}

	var row models.Product
	if err := client.DB().First(&row, "sku = ?", "85123A").Error; err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if row.StockQuantity != 3 || row.PriceCents != 255 || !row.IsActive {
		t.Fatalf("unexpected row %+v", row)
	}

	var inactive models.Product
	if err := client.DB().First(&inactive, "sku = ?", "22423").Error; err != nil {
		t.Fatalf("fetch inactive: %v", err)
	}
	if inactive.IsActive {
		t.Fatal("inactive product stored as active")
	}
	if !inactive.CreatedAt.Equal(fixtureTime) {
		t.Fatalf("created_at not preserved: %v", inactive.CreatedAt)
	}
}

func TestSQLSinkStoresItemsAsJSON(t *testing.T) {
	sink, client := newSQLSink(t)
	ctx := context.Background()

	if err := sink.LoadTransactions(ctx, fixtureTransactions()); err != nil {
		t.Fatalf("load: %v", err)
	}

	var row models.Transaction
	if err := client.DB().First(&row, "transaction_id = ?", "536365").Error; err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var items []records.LineItem
	if err := json.Unmarshal(row.Items, &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 2 || row.ItemCount != 2 {
		t.Fatalf("unexpected items %+v", items)
	}
	if row.TotalCents != row.SubtotalCents+row.TaxCents {
		t.Fatalf("totals not preserved: %+v", row)
	}
	if row.PaymentMethod != "mock" || row.Status != "completed" {
		t.Fatalf("unexpected enums %s %s", row.PaymentMethod, row.Status)
	}
}

func TestSQLSinkEmptyInputIsNoop(t *testing.T) {
	sink, _ := newSQLSink(t)
	if err := sink.LoadProducts(context.Background(), nil); err != nil {
		t.Fatalf("empty products: %v", err)
	}
	if err := sink.LoadTransactions(context.Background(), nil); err != nil {
		t.Fatalf("empty transactions: %v", err)
	}
}
