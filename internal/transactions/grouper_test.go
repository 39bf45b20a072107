package transactions

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailpipe/internal/records"
	"github.com/angelmondragon/retailpipe/pkg/enums"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func raw(order, key, desc string, qty int, price, date string) records.RawRow {
	return records.RawRow{
		OrderID:     order,
		ProductKey:  key,
		Description: desc,
		Quantity:    qty,
		UnitPrice:   decimal.NewNullDecimal(decimal.RequireFromString(price)),
		OrderDate:   date,
	}
}

func product(key, name string, price int64) records.ProductRecord {
	return records.ProductRecord{Key: key, DisplayName: name, UnitPriceMinor: price, Category: "General"}
}

func newTestGrouper(t *testing.T) *Grouper {
	t.Helper()
	g, err := NewGrouper(GrouperParams{
		TaxRate: decimal.RequireFromString("0.08"),
		Rand:    rand.New(rand.NewPCG(7, 7)),
		Now:     func() time.Time { return fixedNow },
		NewID:   func() string { return "generated-id" },
	})
	if err != nil {
		t.Fatalf("new grouper: %v", err)
	}
	return g
}

func TestGroupSampleOrder(t *testing.T) {
	catalog := []records.ProductRecord{
		product("A", "White Hanging Heart T-Light Holder", 255),
		product("B", "White Metal Lantern", 339),
		product("C", "Cream Cupid Hearts Coat Hanger", 275),
	}
	rows := []records.RawRow{
		raw("536365", "A", "WHITE HANGING HEART T-LIGHT HOLDER", 6, "2.55", "12/1/2010 8:26"),
		raw("536365", "B", "WHITE METAL LANTERN", 6, "3.39", "12/1/2010 8:26"),
		raw("536365", "C", "CREAM CUPID HEARTS COAT HANGER", 8, "2.75", "12/1/2010 8:26"),
	}
	txns, stats := newTestGrouper(t).Group(rows, catalog)
	if len(txns) != 1 || stats.Folded != 1 {
		t.Fatalf("expected one transaction, got %d (%+v)", len(txns), stats)
	}
	txn := txns[0]
	if txn.TransactionID != "536365" {
		t.Fatalf("unexpected id %q", txn.TransactionID)
	}
	if txn.SubtotalMinor != 5764 || txn.TaxMinor != 461 || txn.TotalMinor != 6225 {
		t.Fatalf("unexpected totals %d/%d/%d", txn.SubtotalMinor, txn.TaxMinor, txn.TotalMinor)
	}
	if txn.Timestamp != "2010-12-01T08:26:00Z" {
		t.Fatalf("unexpected timestamp %q", txn.Timestamp)
	}
	if txn.Items[0].ProductKey != "A" || txn.Items[2].ProductKey != "C" {
		t.Fatalf("items must keep row order: %+v", txn.Items)
	}
	if txn.Items[1].Name != "White Metal Lantern" {
		t.Fatalf("expected catalog name, got %q", txn.Items[1].Name)
	}
	if txn.PaymentMethod != enums.PaymentMethodMock || txn.Status != enums.TransactionStatusCompleted {
		t.Fatalf("unexpected defaults %s/%s", txn.PaymentMethod, txn.Status)
	}
	if txn.DiscountMinor != 0 {
		t.Fatalf("expected no discount, got %d", txn.DiscountMinor)
	}
	if !txn.Consistent() {
		t.Fatal("transaction totals must be consistent")
	}
}

func TestGroupCashierDrawnTogether(t *testing.T) {
	catalog := []records.ProductRecord{product("A", "Alpha", 100)}
	var rows []records.RawRow
	for i := 0; i < 30; i++ {
		rows = append(rows, raw(fmt.Sprintf("5%05d", i), "A", "ALPHA", 1, "1.00", "12/1/2010 8:26"))
	}
	txns, _ := newTestGrouper(t).Group(rows, catalog)
	for _, txn := range txns {
		var n int
		if _, err := fmt.Sscanf(txn.ActorID, "cashier_%03d", &n); err != nil {
			t.Fatalf("unexpected actor id %q", txn.ActorID)
		}
		if n < 1 || n > cashierPoolSize {
			t.Fatalf("cashier %d outside pool", n)
		}
		if txn.ActorName != CashierAt(n).Name {
			t.Fatalf("actor id %q does not match name %q", txn.ActorID, txn.ActorName)
		}
	}
}

func TestGroupDropsReturnsAndBadDates(t *testing.T) {
	catalog := []records.ProductRecord{product("A", "Alpha", 100), product("B", "Beta", 200)}
	rows := []records.RawRow{
		raw("536366", "A", "ALPHA", 2, "1.00", "12/1/2010 8:28"),
		raw("536367", "A", "ALPHA", 2, "1.00", "12/1/2010 8:34"),
		raw("536367", "B", "BETA", -1, "2.00", "12/1/2010 8:34"),
		raw("536368", "A", "ALPHA", 1, "1.00", "not a date"),
		raw("536369", "Z", "NOT IN CATALOG", 1, "1.00", "12/1/2010 8:35"),
	}
	txns, stats := newTestGrouper(t).Group(rows, catalog)
	if len(txns) != 1 || txns[0].TransactionID != "536366" {
		t.Fatalf("expected only 536366, got %+v", txns)
	}
	if stats.Orders != 3 || stats.Returns != 1 || stats.BadTimestamps != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestGroupOrdersByOrderID(t *testing.T) {
	catalog := []records.ProductRecord{product("A", "Alpha", 100)}
	rows := []records.RawRow{
		raw("536370", "A", "ALPHA", 1, "1.00", "12/1/2010 8:45"),
		raw("536365", "A", "ALPHA", 1, "1.00", "12/1/2010 8:26"),
		raw("536368", "A", "ALPHA", 1, "1.00", "12/1/2010 8:34"),
	}
	txns, _ := newTestGrouper(t).Group(rows, catalog)
	got := []string{txns[0].TransactionID, txns[1].TransactionID, txns[2].TransactionID}
	if got[0] != "536365" || got[1] != "536368" || got[2] != "536370" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestRepair(t *testing.T) {
	items := []records.LineItem{records.NewLineItem("A", "Alpha", 1, 100)}
	txns := []records.TransactionRecord{
		{TransactionID: "", Timestamp: "", Items: items},
		{TransactionID: "536365", Timestamp: "2010-12-01T08:26:00Z"},
		{TransactionID: "536366", Timestamp: "2010-12-01T08:28:00Z", Items: items},
	}
	out, dropped := newTestGrouper(t).Repair(txns)
	if dropped != 1 || len(out) != 2 {
		t.Fatalf("expected one drop, got %d (%d kept)", dropped, len(out))
	}
	if out[0].TransactionID != "generated-id" {
		t.Fatalf("expected synthesized id, got %q", out[0].TransactionID)
	}
	if out[0].Timestamp != fixedNow.Format(time.RFC3339) {
		t.Fatalf("expected synthesized timestamp, got %q", out[0].Timestamp)
	}
	if out[1].TransactionID != "536366" {
		t.Fatalf("unexpected survivor %q", out[1].TransactionID)
	}
}

func TestRepairDefaultsToUUID(t *testing.T) {
	g, err := NewGrouper(GrouperParams{Rand: rand.New(rand.NewPCG(1, 1))})
	if err != nil {
		t.Fatalf("new grouper: %v", err)
	}
	items := []records.LineItem{records.NewLineItem("A", "Alpha", 1, 100)}
	out, _ := g.Repair([]records.TransactionRecord{{Items: items}})
	if len(out[0].TransactionID) != 36 {
		t.Fatalf("expected uuid, got %q", out[0].TransactionID)
	}
}

func TestGroupZeroTaxRate(t *testing.T) {
	g, err := NewGrouper(GrouperParams{TaxRate: decimal.Zero, Rand: rand.New(rand.NewPCG(1, 1))})
	if err != nil {
		t.Fatalf("new grouper: %v", err)
	}
	catalog := []records.ProductRecord{product("A", "Alpha", 250)}
	rows := []records.RawRow{raw("536365", "A", "ALPHA", 4, "2.50", "12/1/2010 8:26")}
	txns, _ := g.Group(rows, catalog)
	if len(txns) != 1 {
		t.Fatalf("expected one transaction, got %d", len(txns))
	}
	if txns[0].TaxMinor != 0 || txns[0].TotalMinor != 1000 {
		t.Fatalf("expected tax-free total 1000, got tax %d total %d", txns[0].TaxMinor, txns[0].TotalMinor)
	}
}

func TestGroupSkipsIneligibleRows(t *testing.T) {
	catalog := []records.ProductRecord{
		product("85123A", "White Hanging Heart T-Light Holder", 255),
		product("71053", "White Metal Lantern", 339),
	}
	rows := []records.RawRow{
		raw("536365", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", 2, "2.55", "12/1/2010 8:26"),
		raw("536365", "71053", "WHITE METAL LANTERN", 1, "3.39", "12/1/2010 8:26"),
		raw("536365", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", 10, "0.00", "12/1/2010 8:26"),
		raw("536365", "71053", "", 3, "3.39", "12/1/2010 8:26"),
	}
	txns, stats := newTestGrouper(t).Group(rows, catalog)
	if len(txns) != 1 {
		t.Fatalf("expected one transaction, got %d", len(txns))
	}
	txn := txns[0]
	if len(txn.Items) != 2 {
		t.Fatalf("expected free and undescribed lines dropped, got %+v", txn.Items)
	}
	if txn.SubtotalMinor != 849 {
		t.Fatalf("expected subtotal 849, got %d", txn.SubtotalMinor)
	}
	if stats.Ineligible != 2 {
		t.Fatalf("expected two ineligible rows, got %+v", stats)
	}
}
