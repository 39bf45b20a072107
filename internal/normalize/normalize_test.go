package normalize

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"WHITE HANGING HEART T-LIGHT HOLDER": "White Hanging Heart T-Light Holder",
		"  JUMBO   BAG  RED RETROSPOT ":       "Jumbo Bag Red Retrospot",
		"":                                   "",
		"   ":                                "",
		"set of 3 cake tins pantry design":   "Set Of 3 Cake Tins Pantry Design",
	}
	for raw, want := range tests {
		if got := NormalizeName(raw); got != want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestToMinorCurrency(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{raw: "2.55", want: 255},
		{raw: "3.39", want: 339},
		{raw: "2.545", want: 255},
		{raw: "2.544", want: 254},
		{raw: "0.005", want: 1},
		{raw: "0", want: 0},
		{raw: "165.00", want: 16500},
	}
	for _, tt := range tests {
		got := ToMinorCurrency(decimal.NewNullDecimal(decimal.RequireFromString(tt.raw)))
		if got != tt.want {
			t.Fatalf("ToMinorCurrency(%s) = %d, want %d", tt.raw, got, tt.want)
		}
	}
	if got := ToMinorCurrency(decimal.NullDecimal{}); got != 0 {
		t.Fatalf("null price should convert to 0, got %d", got)
	}
}

func TestToMinorCurrencyRoundsHalfUpProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("minor units equal round-half-up of value*100", prop.ForAll(
		func(thousandths int64) bool {
			price := decimal.New(thousandths, -3)
			want := (thousandths + 5) / 10
			return ToMinorCurrency(decimal.NewNullDecimal(price)) == want
		},
		gen.Int64Range(0, 100_000_000),
	))

	properties.TestingRun(t)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "12/1/2010 8:26", want: "2010-12-01T08:26:00Z", ok: true},
		{raw: "12/09/2011 12:50", want: "2011-12-09T12:50:00Z", ok: true},
		{raw: "2010-12-01 08:26:00", want: "2010-12-01T08:26:00Z", ok: true},
		{raw: "", ok: false},
		{raw: "not a date", ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.raw)
		if ok != tt.ok {
			t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
		}
		if got != tt.want {
			t.Fatalf("ParseTimestamp(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestIsSentinelKey(t *testing.T) {
	for _, key := range []string{"POST", "post", "C2", "DOT", "POSTAGE"} {
		if !IsSentinelKey(key) {
			t.Fatalf("expected %q to be a sentinel", key)
		}
	}
	for _, key := range []string{"85123A", "22423", "DOTCOM1"} {
		if IsSentinelKey(key) {
			t.Fatalf("expected %q to be a product key", key)
		}
	}
}
