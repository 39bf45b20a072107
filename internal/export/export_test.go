package export

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/retailpipe/internal/records"
	"github.com/angelmondragon/retailpipe/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
)

func sampleProducts() []records.ProductRecord {
	created := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	return []records.ProductRecord{
		{
			Key:              "85123A",
			DisplayName:      "White Hanging Heart T-Light Holder",
			Description:      "WHITE HANGING HEART T-LIGHT HOLDER",
			Category:         "Home Decor",
			UnitPriceMinor:   255,
			UnitCostMinor:    153,
			StockQuantity:    4,
			ReorderThreshold: 7,
			UnitLabel:        "each",
			SupplierName:     "Premium Decor Co",
			SupplierContact:  "supplier4@example.com",
			ImageRef:         "product_images/85123A.png",
			CreatedAt:        created,
			UpdatedAt:        created,
			Active:           true,
		},
		{
			Key:              "22423",
			DisplayName:      "Regency Cakestand 3 Tier",
			Description:      "REGENCY CAKESTAND 3 TIER, \"DELUXE\"",
			Category:         "General",
			UnitPriceMinor:   1275,
			UnitCostMinor:    765,
			StockQuantity:    96,
			ReorderThreshold: 24,
			UnitLabel:        "each",
			SupplierName:     "UK Home Supplies",
			SupplierContact:  "supplier1@example.com",
			CreatedAt:        created,
			UpdatedAt:        created,
			Active:           true,
		},
	}
}

func sampleTransactions() []records.TransactionRecord {
	items := []records.LineItem{
		records.NewLineItem("85123A", "White Hanging Heart T-Light Holder", 6, 255),
		records.NewLineItem("22423", "Regency Cakestand 3 Tier", 2, 1275),
	}
	return []records.TransactionRecord{{
		TransactionID: "536365",
		Timestamp:     "2010-12-01T08:26:00Z",
		ActorID:       "cashier_002",
		ActorName:     "Cashier 2",
		Items:         items,
		SubtotalMinor: 4080,
		TaxMinor:      326,
		TotalMinor:    4406,
		PaymentMethod: enums.PaymentMethodMock,
		Status:        enums.TransactionStatusCompleted,
	}}
}

func TestCatalogCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCatalogCSV(&buf, sampleProducts()))

	header, _, _ := strings.Cut(buf.String(), "\n")
	require.Equal(t, strings.Join(CatalogColumns, ","), header)

	got, err := ReadCatalogCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, sampleProducts(), got)
}

func TestTransactionsCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, sampleTransactions()))
	require.Contains(t, buf.String(), `"[{""sku"":""85123A""`)

	got, err := ReadTransactionsCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, sampleTransactions(), got)
	require.True(t, got[0].Consistent())
}

func TestDocumentsRoundTrip(t *testing.T) {
	var products bytes.Buffer
	require.NoError(t, WriteJSON(&products, sampleProducts()))
	gotProducts, err := ReadProductsJSON(&products)
	require.NoError(t, err)
	require.Equal(t, sampleProducts(), gotProducts)

	var txns bytes.Buffer
	require.NoError(t, WriteJSON(&txns, sampleTransactions()))
	require.Contains(t, txns.String(), `"items": [`)
	gotTxns, err := ReadTransactionsJSON(&txns)
	require.NoError(t, err)
	require.Equal(t, sampleTransactions(), gotTxns)
}

func TestReadRejectsMalformedTables(t *testing.T) {
	_, err := ReadCatalogCSV(strings.NewReader("sku,name\n1,2\n"))
	require.Equal(t, pkgerrors.CodeDecode, pkgerrors.CodeOf(err))

	_, err = ReadCatalogCSV(strings.NewReader(""))
	require.Equal(t, pkgerrors.CodeDecode, pkgerrors.CodeOf(err))

	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, sampleTransactions()))
	broken := strings.Replace(buf.String(), "mock", "cheque", 1)
	_, err = ReadTransactionsCSV(strings.NewReader(broken))
	require.Equal(t, pkgerrors.CodeDecode, pkgerrors.CodeOf(err))

	_, err = ReadProductsJSON(strings.NewReader("{"))
	require.Equal(t, pkgerrors.CodeDecode, pkgerrors.CodeOf(err))
}

func TestWriteFileAndFailedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", ProductsJSONFile)
	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		return WriteJSON(w, sampleProducts())
	}))
	got, err := ReadFile(path, ReadProductsJSON)
	require.NoError(t, err)
	require.Len(t, got, 2)

	failed := filepath.Join(dir, FailedKeysFile)
	require.NoError(t, WriteFailedKeys(failed, []string{"85123A", "22423"}))
	raw, err := os.ReadFile(failed)
	require.NoError(t, err)
	require.Equal(t, "85123A\n22423\n", string(raw))

	require.NoError(t, WriteFailedKeys(failed, nil))
	_, err = os.Stat(failed)
	require.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.json"), ReadTransactionsJSON)
	require.Equal(t, pkgerrors.CodeEnvironment, pkgerrors.CodeOf(err))
}
