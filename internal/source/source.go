package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/retailpipe/internal/records"
	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
)

const (
	ColumnOrderID     = "InvoiceNo"
	ColumnProductKey  = "StockCode"
	ColumnDescription = "Description"
	ColumnQuantity    = "Quantity"
	ColumnOrderDate   = "InvoiceDate"
	ColumnUnitPrice   = "UnitPrice"
	ColumnCustomerRef = "CustomerID"
)

var requiredColumns = []string{
	ColumnOrderID,
	ColumnProductKey,
	ColumnDescription,
	ColumnQuantity,
	ColumnOrderDate,
	ColumnUnitPrice,
}

var knownColumns = append(append([]string{}, requiredColumns...), ColumnCustomerRef)

// Stats counts how many data rows were read and how many were dropped as
// malformed.
type Stats struct {
	Rows    int
	Skipped int
}

// Load reads the dataset at path. Files ending in .xlsx are read as a
// workbook (first sheet); anything else is read as CSV.
func Load(ctx context.Context, path string) ([]records.RawRow, Stats, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, Stats{}, pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, fmt.Sprintf("input dataset %s unavailable", path))
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(ctx, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "opening input dataset")
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(ctx, f)
}

// ReadCSV parses a header-first CSV stream.
func ReadCSV(ctx context.Context, r io.Reader) ([]records.RawRow, Stats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Stats{}, pkgerrors.New(pkgerrors.CodeEnvironment, "input dataset is empty")
		}
		return nil, Stats{}, pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "reading header")
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, Stats{}, err
	}

	var (
		rows  []records.RawRow
		stats Stats
		line  = 1
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			stats.Rows++
			stats.Skipped++
			continue
		}
		row, ok := cols.parse(line, record)
		stats.Rows++
		if !ok {
			stats.Skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, stats, nil
}

// ReadXLSX parses the first sheet of a workbook.
func ReadXLSX(ctx context.Context, path string) ([]records.RawRow, Stats, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, Stats{}, pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "opening workbook")
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, Stats{}, pkgerrors.New(pkgerrors.CodeEnvironment, "workbook has no sheets")
	}
	table, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, Stats{}, pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "reading sheet")
	}
	if len(table) == 0 {
		return nil, Stats{}, pkgerrors.New(pkgerrors.CodeEnvironment, "input dataset is empty")
	}
	cols, err := resolveColumns(table[0])
	if err != nil {
		return nil, Stats{}, err
	}

	var (
		rows  []records.RawRow
		stats Stats
	)
	for i, record := range table[1:] {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Rows++
		row, ok := cols.parse(i+2, record)
		if !ok {
			stats.Skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, stats, nil
}

type columns map[string]int

func resolveColumns(header []string) (columns, error) {
	cols := columns{}
	for i, name := range header {
		clean := strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		for _, known := range knownColumns {
			if strings.EqualFold(clean, known) {
				cols[known] = i
			}
		}
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEnvironment, "input dataset missing columns").
			WithDetails(map[string]any{"missing": missing})
	}
	return cols, nil
}

func (c columns) value(record []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parse converts one record. Rows whose quantity or price is present but
// unparseable are rejected; blank prices stay null for later filtering.
func (c columns) parse(line int, record []string) (records.RawRow, bool) {
	qty, err := strconv.Atoi(c.value(record, ColumnQuantity))
	if err != nil {
		return records.RawRow{}, false
	}
	var price decimal.NullDecimal
	if raw := c.value(record, ColumnUnitPrice); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return records.RawRow{}, false
		}
		price = decimal.NewNullDecimal(parsed)
	}
	return records.RawRow{
		Line:        line,
		OrderID:     c.value(record, ColumnOrderID),
		ProductKey:  c.value(record, ColumnProductKey),
		Description: c.value(record, ColumnDescription),
		Quantity:    qty,
		UnitPrice:   price,
		OrderDate:   c.value(record, ColumnOrderDate),
		CustomerRef: c.value(record, ColumnCustomerRef),
	}, true
}
