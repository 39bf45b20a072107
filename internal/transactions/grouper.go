package transactions

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailpipe/internal/catalog"
	"github.com/angelmondragon/retailpipe/internal/normalize"
	"github.com/angelmondragon/retailpipe/internal/records"
	"github.com/angelmondragon/retailpipe/pkg/enums"
)

const cashierPoolSize = 3

// Cashier is the cosmetic actor stamped on a transaction.
type Cashier struct {
	ID   string
	Name string
}

// CashierAt returns the n-th cashier of the pool, starting at 1.
func CashierAt(n int) Cashier {
	return Cashier{ID: fmt.Sprintf("cashier_%03d", n), Name: fmt.Sprintf("Cashier %d", n)}
}

// GrouperParams configures a Grouper.
type GrouperParams struct {
	TaxRate decimal.Decimal
	Rand    *rand.Rand
	Now     func() time.Time
	NewID   func() string
}

// Grouper folds raw line items into transactions keyed by order id.
type Grouper struct {
	taxRate decimal.Decimal
	rng     *rand.Rand
	now     func() time.Time
	newID   func() string
}

// NewGrouper constructs a Grouper. A zero tax rate is a tax-free run.
func NewGrouper(params GrouperParams) (*Grouper, error) {
	if params.Rand == nil {
		return nil, fmt.Errorf("random source required")
	}
	if params.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	g := &Grouper{
		taxRate: params.TaxRate,
		rng:     params.Rand,
		now:     params.Now,
		newID:   params.NewID,
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.newID == nil {
		g.newID = uuid.NewString
	}
	return g, nil
}

// Stats reports how many order groups were seen and why some were dropped.
type Stats struct {
	Ineligible    int
	Orders        int
	Returns       int
	BadTimestamps int
	Folded        int
}

// Group drops rows the catalog would reject, restricts the rest to catalog
// keys, folds them per order id in ascending order-id order and returns one
// transaction per retained order.
func (g *Grouper) Group(rows []records.RawRow, products []records.ProductRecord) ([]records.TransactionRecord, Stats) {
	lookup := make(map[string]records.ProductRecord, len(products))
	for _, p := range products {
		lookup[p.Key] = p
	}

	var stats Stats
	orders := make(map[string][]records.RawRow)
	for _, row := range rows {
		if !catalog.Eligible(row) {
			stats.Ineligible++
			continue
		}
		if _, ok := lookup[row.ProductKey]; !ok {
			continue
		}
		orders[row.OrderID] = append(orders[row.OrderID], row)
	}
	ids := make([]string, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]records.TransactionRecord, 0, len(ids))
	for _, id := range ids {
		stats.Orders++
		txn, reason := g.fold(id, orders[id], lookup)
		switch reason {
		case dropReturn:
			stats.Returns++
			continue
		case dropTimestamp:
			stats.BadTimestamps++
			continue
		}
		stats.Folded++
		out = append(out, txn)
	}
	return out, stats
}

type dropReason int

const (
	keep dropReason = iota
	dropReturn
	dropTimestamp
)

func (g *Grouper) fold(orderID string, rows []records.RawRow, lookup map[string]records.ProductRecord) (records.TransactionRecord, dropReason) {
	for _, row := range rows {
		if row.Quantity < 0 {
			return records.TransactionRecord{}, dropReturn
		}
	}
	timestamp, ok := normalize.ParseTimestamp(rows[0].OrderDate)
	if !ok {
		return records.TransactionRecord{}, dropTimestamp
	}

	items := make([]records.LineItem, 0, len(rows))
	for _, row := range rows {
		if row.Quantity == 0 {
			continue
		}
		name := normalize.NormalizeName(row.Description)
		price := normalize.ToMinorCurrency(row.UnitPrice)
		if p, ok := lookup[row.ProductKey]; ok {
			name, price = p.DisplayName, p.UnitPriceMinor
		}
		items = append(items, records.NewLineItem(row.ProductKey, name, row.Quantity, price))
	}

	subtotal, tax, total := records.Totals(items, g.taxRate, 0)
	cashier := CashierAt(1 + g.rng.IntN(cashierPoolSize))
	return records.TransactionRecord{
		TransactionID: orderID,
		Timestamp:     timestamp,
		ActorID:       cashier.ID,
		ActorName:     cashier.Name,
		Items:         items,
		SubtotalMinor: subtotal,
		TaxMinor:      tax,
		TotalMinor:    total,
		PaymentMethod: enums.PaymentMethodMock,
		Status:        enums.TransactionStatusCompleted,
	}, keep
}

// Repair fills a missing id or timestamp with synthesized values and drops
// records without items. It returns the surviving records and the drop count.
func (g *Grouper) Repair(txns []records.TransactionRecord) ([]records.TransactionRecord, int) {
	out := make([]records.TransactionRecord, 0, len(txns))
	dropped := 0
	for _, txn := range txns {
		if len(txn.Items) == 0 {
			dropped++
			continue
		}
		if strings.TrimSpace(txn.TransactionID) == "" {
			txn.TransactionID = g.newID()
		}
		if strings.TrimSpace(txn.Timestamp) == "" {
			txn.Timestamp = g.now().UTC().Format(time.RFC3339)
		}
		out = append(out, txn)
	}
	return out, dropped
}
