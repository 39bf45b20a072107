package records

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailpipe/pkg/enums"
)

// RawRow is one line of the source dataset after column resolution.
type RawRow struct {
	Line        int
	OrderID     string
	ProductKey  string
	Description string
	Quantity    int
	UnitPrice   decimal.NullDecimal
	OrderDate   string
	CustomerRef string
}

// ProductRecord is a single catalog entry keyed by product key.
type ProductRecord struct {
	Key              string    `json:"sku" validate:"required"`
	DisplayName      string    `json:"name"`
	Description      string    `json:"description"`
	Category         string    `json:"category" validate:"required"`
	UnitPriceMinor   int64     `json:"price" validate:"gte=0"`
	UnitCostMinor    int64     `json:"cost" validate:"gte=0"`
	StockQuantity    int       `json:"stock_quantity" validate:"gte=0"`
	ReorderThreshold int       `json:"reorder_threshold" validate:"gte=0"`
	UnitLabel        string    `json:"unit"`
	SupplierName     string    `json:"supplier_name"`
	SupplierContact  string    `json:"supplier_contact"`
	ImageRef         string    `json:"image_url"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Active           bool      `json:"is_active"`
}

// BelowThreshold reports whether stock has fallen under the reorder threshold.
func (p ProductRecord) BelowThreshold() bool {
	return p.StockQuantity < p.ReorderThreshold
}

// LineItem is one product line inside a transaction.
type LineItem struct {
	ProductKey     string `json:"sku" validate:"required"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity" validate:"gt=0"`
	UnitPriceMinor int64  `json:"unit_price" validate:"gte=0"`
	LineTotalMinor int64  `json:"line_total" validate:"gte=0"`
}

// NewLineItem builds a line whose total is derived from quantity and unit price.
func NewLineItem(key, name string, quantity int, unitPriceMinor int64) LineItem {
	return LineItem{
		ProductKey:     key,
		Name:           name,
		Quantity:       quantity,
		UnitPriceMinor: unitPriceMinor,
		LineTotalMinor: int64(quantity) * unitPriceMinor,
	}
}

// TransactionRecord is a completed order folded from raw line items.
type TransactionRecord struct {
	TransactionID string                  `json:"transaction_id" validate:"required"`
	Timestamp     string                  `json:"timestamp" validate:"required"`
	ActorID       string                  `json:"user_id"`
	ActorName     string                  `json:"cashier_name"`
	Items         []LineItem              `json:"items" validate:"required,min=1,dive"`
	SubtotalMinor int64                   `json:"subtotal" validate:"gte=0"`
	TaxMinor      int64                   `json:"tax" validate:"gte=0"`
	DiscountMinor int64                   `json:"discount_total" validate:"gte=0"`
	TotalMinor    int64                   `json:"total"`
	PaymentMethod enums.PaymentMethod     `json:"payment_method"`
	Status        enums.TransactionStatus `json:"status"`
}

// Totals computes subtotal, tax and total for a set of lines.
// Tax is floor(subtotal * taxRate).
func Totals(items []LineItem, taxRate decimal.Decimal, discountMinor int64) (subtotal, tax, total int64) {
	for _, item := range items {
		subtotal += item.LineTotalMinor
	}
	tax = decimal.NewFromInt(subtotal).Mul(taxRate).Floor().IntPart()
	total = subtotal + tax - discountMinor
	return subtotal, tax, total
}

// Consistent reports whether the stored totals are derivable from Items.
func (t TransactionRecord) Consistent() bool {
	var subtotal int64
	for _, item := range t.Items {
		if item.LineTotalMinor != int64(item.Quantity)*item.UnitPriceMinor {
			return false
		}
		subtotal += item.LineTotalMinor
	}
	return subtotal == t.SubtotalMinor && t.TotalMinor == t.SubtotalMinor+t.TaxMinor-t.DiscountMinor
}
