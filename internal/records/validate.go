package records

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// ValidateProduct checks the structural constraints on a catalog entry.
func ValidateProduct(p ProductRecord) error {
	if err := validate.Struct(p); err != nil {
		return formatValidationErrors(err, p.Key)
	}
	return nil
}

// ValidateTransaction checks structure and the totals invariant.
func ValidateTransaction(t TransactionRecord) error {
	if err := validate.Struct(t); err != nil {
		return formatValidationErrors(err, t.TransactionID)
	}
	if !t.Consistent() {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction totals inconsistent with items").
			WithDetails(map[string]any{"id": t.TransactionID, "subtotal": t.SubtotalMinor, "total": t.TotalMinor})
	}
	return nil
}

// ValidateCatalog validates every product and rejects duplicate keys.
func ValidateCatalog(products []ProductRecord) error {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if err := ValidateProduct(p); err != nil {
			return err
		}
		if _, dup := seen[p.Key]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate product key").
				WithDetails(map[string]any{"id": p.Key})
		}
		seen[p.Key] = struct{}{}
	}
	return nil
}

// ValidateTransactions validates every transaction and rejects duplicate ids.
func ValidateTransactions(txns []TransactionRecord) error {
	seen := make(map[string]struct{}, len(txns))
	for _, t := range txns {
		if err := ValidateTransaction(t); err != nil {
			return err
		}
		if _, dup := seen[t.TransactionID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate transaction id").
				WithDetails(map[string]any{"id": t.TransactionID})
		}
		seen[t.TransactionID] = struct{}{}
	}
	return nil
}

func formatValidationErrors(err error, id string) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]any{"id": id}
		for _, fieldErr := range errs {
			details[fieldErr.Namespace()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
