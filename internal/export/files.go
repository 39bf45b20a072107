package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
)

// Output file names inside the output directory.
const (
	CatalogCSVFile           = "products_catalog.csv"
	CatalogWithImagesCSVFile = "products_catalog_with_images.csv"
	ProductsJSONFile         = "products.json"
	TransactionsCSVFile      = "transactions_history.csv"
	TransactionsJSONFile     = "transactions.json"
	FailedKeysFile           = "failed_images.txt"
)

// WriteFile renders into a temp file beside path and renames it into place.
// Failures to create or replace the file are environment errors.
func WriteFile(path string, render func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "create output directory")
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "create output file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	buf := bufio.NewWriter(tmp)
	if err := render(buf); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	if err := buf.Flush(); err != nil {
		_ = tmp.Close()
		return pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "flush output file")
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "close output file")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "chmod output file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "replace output file")
	}
	return nil
}

// ReadFile opens path and hands it to parse. A missing file is an
// environment error.
func ReadFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "open input file")
	}
	defer f.Close()
	return parse(bufio.NewReader(f))
}

// WriteFailedKeys writes one product key per line. An empty list removes any
// stale file from a previous run.
func WriteFailedKeys(path string, keys []string) error {
	if len(keys) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "remove failed key list")
		}
		return nil
	}
	return WriteFile(path, func(w io.Writer) error {
		for _, key := range keys {
			if _, err := fmt.Fprintln(w, key); err != nil {
				return err
			}
		}
		return nil
	})
}
