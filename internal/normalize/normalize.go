package normalize

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PrimaryTimestampLayout matches source dates such as "12/1/2010 8:26".
const PrimaryTimestampLayout = "1/2/2006 15:04"

var hundred = decimal.NewFromInt(100)

// NormalizeName title-cases a free-text product name and collapses whitespace.
func NormalizeName(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	titled := cases.Title(language.Und).String(raw)
	return strings.Join(strings.Fields(titled), " ")
}

// ToMinorCurrency converts a decimal amount to integer minor units.
// Halves round away from zero, so 2.545 becomes 255. A null value yields 0.
func ToMinorCurrency(value decimal.NullDecimal) int64 {
	if !value.Valid {
		return 0
	}
	return value.Decimal.Mul(hundred).Round(0).IntPart()
}

// ParseTimestamp returns the ISO-8601 UTC form of raw. The primary source
// layout is tried first, then a generic parser. ok is false when neither
// understands the input; callers must skip the record.
func ParseTimestamp(raw string) (iso string, ok bool) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return "", false
	}
	ts, err := time.ParseInLocation(PrimaryTimestampLayout, clean, time.UTC)
	if err != nil {
		ts, err = dateparse.ParseIn(clean, time.UTC)
		if err != nil {
			return "", false
		}
	}
	return ts.UTC().Format(time.RFC3339), true
}

var sentinelExact = map[string]struct{}{
	"DOT": {},
	"C2":  {},
}

// IsSentinelKey reports whether key is a postage or carriage placeholder
// rather than a sellable product.
func IsSentinelKey(key string) bool {
	upper := strings.ToUpper(strings.TrimSpace(key))
	if strings.Contains(upper, "POST") {
		return true
	}
	_, ok := sentinelExact[upper]
	return ok
}
