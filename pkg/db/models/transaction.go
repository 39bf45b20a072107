package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/angelmondragon/retailpipe/pkg/enums"
)

// Transaction is the relational row for one folded order. Line items are
// kept as a JSON document.
type Transaction struct {
	TransactionID string                  `gorm:"column:transaction_id;primaryKey"`
	Timestamp     string                  `gorm:"column:occurred_at;not null"`
	UserID        string                  `gorm:"column:user_id"`
	CashierName   string                  `gorm:"column:cashier_name"`
	Items         datatypes.JSON          `gorm:"column:items;not null"`
	ItemCount     int                     `gorm:"column:item_count;not null"`
	SubtotalCents int64                   `gorm:"column:subtotal_cents;not null"`
	TaxCents      int64                   `gorm:"column:tax_cents;not null"`
	DiscountCents int64                   `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int64                   `gorm:"column:total_cents;not null"`
	PaymentMethod enums.PaymentMethod     `gorm:"column:payment_method;not null"`
	Status        enums.TransactionStatus `gorm:"column:status;not null"`
	LoadedAt      time.Time               `gorm:"column:loaded_at;autoCreateTime"`
}

func (Transaction) TableName() string { return "transactions" }
