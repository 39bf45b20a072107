package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/angelmondragon/retailpipe/internal/records"
	"github.com/angelmondragon/retailpipe/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
)

// TransactionColumns is the fixed column order of the transaction table.
var TransactionColumns = []string{
	"transaction_id", "timestamp", "user_id", "cashier_name", "items",
	"subtotal", "tax", "discount_total", "total", "payment_method", "status",
}

// WriteTransactionsCSV writes one row per transaction with items encoded as
// a JSON document in the items column.
func WriteTransactionsCSV(w io.Writer, txns []records.TransactionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TransactionColumns); err != nil {
		return fmt.Errorf("write transactions header: %w", err)
	}
	for _, txn := range txns {
		items, err := json.Marshal(txn.Items)
		if err != nil {
			return fmt.Errorf("encode items for %s: %w", txn.TransactionID, err)
		}
		row := []string{
			txn.TransactionID,
			txn.Timestamp,
			txn.ActorID,
			txn.ActorName,
			string(items),
			strconv.FormatInt(txn.SubtotalMinor, 10),
			strconv.FormatInt(txn.TaxMinor, 10),
			strconv.FormatInt(txn.DiscountMinor, 10),
			strconv.FormatInt(txn.TotalMinor, 10),
			txn.PaymentMethod.String(),
			txn.Status.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transaction row %s: %w", txn.TransactionID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTransactionsCSV parses a table written by WriteTransactionsCSV.
func ReadTransactionsCSV(r io.Reader) ([]records.TransactionRecord, error) {
	rows, err := readTable(r, TransactionColumns)
	if err != nil {
		return nil, err
	}
	txns := make([]records.TransactionRecord, 0, len(rows))
	for i, row := range rows {
		txn, err := parseTransactionRow(row)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, fmt.Sprintf("transaction row %d", i+2))
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseTransactionRow(row map[string]string) (records.TransactionRecord, error) {
	var (
		txn records.TransactionRecord
		err error
	)
	txn.TransactionID = row["transaction_id"]
	txn.Timestamp = row["timestamp"]
	txn.ActorID = row["user_id"]
	txn.ActorName = row["cashier_name"]
	if err := json.Unmarshal([]byte(row["items"]), &txn.Items); err != nil {
		return txn, fmt.Errorf("items: %w", err)
	}
	amounts := []struct {
		column string
		dst    *int64
	}{
		{"subtotal", &txn.SubtotalMinor},
		{"tax", &txn.TaxMinor},
		{"discount_total", &txn.DiscountMinor},
		{"total", &txn.TotalMinor},
	}
	for _, a := range amounts {
		if *a.dst, err = strconv.ParseInt(row[a.column], 10, 64); err != nil {
			return txn, fmt.Errorf("%s: %w", a.column, err)
		}
	}
	if txn.PaymentMethod, err = enums.ParsePaymentMethod(row["payment_method"]); err != nil {
		return txn, err
	}
	if txn.Status, err = enums.ParseTransactionStatus(row["status"]); err != nil {
		return txn, err
	}
	return txn, nil
}
