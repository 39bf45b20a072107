package catalog

import "github.com/cespare/xxhash/v2"

// Supplier is a fixed vendor a product is sourced from.
type Supplier struct {
	Name    string
	Contact string
}

var suppliers = []Supplier{
	{Name: "UK Home Supplies", Contact: "supplier1@example.com"},
	{Name: "European Retail Partners", Contact: "supplier2@example.com"},
	{Name: "Global Home Goods", Contact: "supplier3@example.com"},
	{Name: "Premium Decor Co", Contact: "supplier4@example.com"},
}

// Suppliers returns a copy of the supplier pool.
func Suppliers() []Supplier {
	return append([]Supplier(nil), suppliers...)
}

// AssignSupplier picks a supplier from the product key alone. The hash is
// unsalted so assignments are stable across runs and processes.
func AssignSupplier(key string) Supplier {
	return suppliers[xxhash.Sum64String(key)%uint64(len(suppliers))]
}
