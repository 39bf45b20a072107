package loader

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailpipe/internal/records"
	"github.com/angelmondragon/retailpipe/pkg/enums"
)

var fixtureTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixtureProducts() []records.ProductRecord {
	return []records.ProductRecord{
		{
			Key:              "85123A",
			DisplayName:      "White Hanging Heart T-Light Holder",
			Description:      "WHITE HANGING HEART T-LIGHT HOLDER",
			Category:         "Home Decor",
			UnitPriceMinor:   255,
			UnitCostMinor:    153,
			StockQuantity:    96,
			ReorderThreshold: 24,
			UnitLabel:        "each",
			SupplierName:     "UK Home Supplies",
			SupplierContact:  "supplier1@example.com",
			ImageRef:         "product_images/85123A.png",
			CreatedAt:        fixtureTime,
			UpdatedAt:        fixtureTime,
			Active:           true,
		},
		{
			Key:              "22423",
			DisplayName:      "Regency Cakestand 3 Tier",
			Category:         "Kitchen",
			UnitPriceMinor:   1275,
			UnitCostMinor:    765,
			StockQuantity:    4,
			ReorderThreshold: 7,
			UnitLabel:        "each",
			CreatedAt:        fixtureTime,
			UpdatedAt:        fixtureTime,
		},
	}
}

func fixtureTransactions() []records.TransactionRecord {
	items := []records.LineItem{
		records.NewLineItem("85123A", "White Hanging Heart T-Light Holder", 6, 255),
		records.NewLineItem("22423", "Regency Cakestand 3 Tier", 1, 1275),
	}
	subtotal, tax, total := records.Totals(items, decimal.RequireFromString("0.08"), 0)
	return []records.TransactionRecord{{
		TransactionID: "536365",
		Timestamp:     "2010-12-01T08:26:00Z",
		ActorID:       "cashier_001",
		ActorName:     "Cashier 1",
		Items:         items,
		SubtotalMinor: subtotal,
		TaxMinor:      tax,
		TotalMinor:    total,
		PaymentMethod: enums.PaymentMethodMock,
		Status:        enums.TransactionStatusCompleted,
	}}
}
