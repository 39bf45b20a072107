package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/angelmondragon/retailpipe/internal/records"
	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
)

// WriteJSON writes v as an indented JSON document.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// ReadProductsJSON decodes a product document list.
func ReadProductsJSON(r io.Reader) ([]records.ProductRecord, error) {
	var products []records.ProductRecord
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "decode products document")
	}
	return products, nil
}

// ReadTransactionsJSON decodes a transaction document list.
func ReadTransactionsJSON(r io.Reader) ([]records.TransactionRecord, error) {
	var txns []records.TransactionRecord
	if err := json.NewDecoder(r).Decode(&txns); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "decode transactions document")
	}
	return txns, nil
}
