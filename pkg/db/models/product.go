package models

import "time"

// Product is the relational row for one catalog entry.
type Product struct {
	SKU              string    `gorm:"column:sku;primaryKey"`
	Name             string    `gorm:"column:name;not null"`
	Description      string    `gorm:"column:description"`
	Category         string    `gorm:"column:category;not null;index"`
	PriceCents       int64     `gorm:"column:price_cents;not null"`
	CostCents        int64     `gorm:"column:cost_cents;not null"`
	StockQuantity    int       `gorm:"column:stock_quantity;not null"`
	ReorderThreshold int       `gorm:"column:reorder_threshold;not null"`
	Unit             string    `gorm:"column:unit;not null"`
	SupplierName     string    `gorm:"column:supplier_name"`
	SupplierContact  string    `gorm:"column:supplier_contact"`
	ImageURL         string    `gorm:"column:image_url"`
	IsActive         bool      `gorm:"column:is_active;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (Product) TableName() string { return "products" }
