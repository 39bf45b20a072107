package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/angelmondragon/retailpipe/internal/records"
	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
)

// CatalogColumns is the fixed column order of the catalog table.
var CatalogColumns = []string{
	"sku", "name", "description", "category", "price", "cost",
	"stock_quantity", "reorder_threshold", "unit",
	"supplier_name", "supplier_contact", "image_url",
	"created_at", "updated_at", "is_active",
}

// WriteCatalogCSV writes a header row followed by one row per product.
func WriteCatalogCSV(w io.Writer, products []records.ProductRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CatalogColumns); err != nil {
		return fmt.Errorf("write catalog header: %w", err)
	}
	for _, p := range products {
		row := []string{
			p.Key,
			p.DisplayName,
			p.Description,
			p.Category,
			strconv.FormatInt(p.UnitPriceMinor, 10),
			strconv.FormatInt(p.UnitCostMinor, 10),
			strconv.Itoa(p.StockQuantity),
			strconv.Itoa(p.ReorderThreshold),
			p.UnitLabel,
			p.SupplierName,
			p.SupplierContact,
			p.ImageRef,
			formatTime(p.CreatedAt),
			formatTime(p.UpdatedAt),
			strconv.FormatBool(p.Active),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write catalog row %s: %w", p.Key, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCatalogCSV parses a table written by WriteCatalogCSV.
func ReadCatalogCSV(r io.Reader) ([]records.ProductRecord, error) {
	rows, err := readTable(r, CatalogColumns)
	if err != nil {
		return nil, err
	}
	products := make([]records.ProductRecord, 0, len(rows))
	for i, row := range rows {
		p, err := parseProductRow(row)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, fmt.Sprintf("catalog row %d", i+2))
		}
		products = append(products, p)
	}
	return products, nil
}

func parseProductRow(row map[string]string) (records.ProductRecord, error) {
	var (
		p   records.ProductRecord
		err error
	)
	p.Key = row["sku"]
	p.DisplayName = row["name"]
	p.Description = row["description"]
	p.Category = row["category"]
	p.UnitLabel = row["unit"]
	p.SupplierName = row["supplier_name"]
	p.SupplierContact = row["supplier_contact"]
	p.ImageRef = row["image_url"]
	if p.UnitPriceMinor, err = strconv.ParseInt(row["price"], 10, 64); err != nil {
		return p, fmt.Errorf("price: %w", err)
	}
	if p.UnitCostMinor, err = strconv.ParseInt(row["cost"], 10, 64); err != nil {
		return p, fmt.Errorf("cost: %w", err)
	}
	if p.StockQuantity, err = strconv.Atoi(row["stock_quantity"]); err != nil {
		return p, fmt.Errorf("stock_quantity: %w", err)
	}
	if p.ReorderThreshold, err = strconv.Atoi(row["reorder_threshold"]); err != nil {
		return p, fmt.Errorf("reorder_threshold: %w", err)
	}
	if p.CreatedAt, err = parseTime(row["created_at"]); err != nil {
		return p, fmt.Errorf("created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(row["updated_at"]); err != nil {
		return p, fmt.Errorf("updated_at: %w", err)
	}
	if p.Active, err = strconv.ParseBool(row["is_active"]); err != nil {
		return p, fmt.Errorf("is_active: %w", err)
	}
	return p, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}

// readTable reads a header row and maps every following record by column
// name. All required columns must be present.
func readTable(r io.Reader, required []string) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, pkgerrors.New(pkgerrors.CodeDecode, "table is empty")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "read header")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeDecode, fmt.Sprintf("missing column %q", name))
		}
	}

	var rows []map[string]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "read row")
		}
		row := make(map[string]string, len(header))
		for name, i := range index {
			row[name] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
