package catalog

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailpipe/internal/normalize"
	"github.com/angelmondragon/retailpipe/internal/records"
)

const (
	// DefaultTopN bounds the catalog to the most frequently sold products.
	DefaultTopN = 50

	// UnitLabel is stamped on every product.
	UnitLabel = "each"

	lowStockBuckets = 5
	lowStockMin     = 2
	lowStockMax     = 15
)

var (
	costMargin        = decimal.RequireFromString("0.6")
	lowStockThreshold = decimal.RequireFromString("1.8")
)

type stockTier struct {
	minFrequency int
	base         int
	spread       int
}

// Ordered from most to least frequently sold.
var stockTiers = []stockTier{
	{minFrequency: 50, base: 80, spread: 40},
	{minFrequency: 20, base: 40, spread: 30},
	{minFrequency: 10, base: 20, spread: 25},
	{minFrequency: 5, base: 10, spread: 15},
	{minFrequency: 0, base: 5, spread: 10},
}

type reorderTier struct {
	minFrequency int
	ratio        decimal.Decimal
}

var reorderTiers = []reorderTier{
	{minFrequency: 20, ratio: decimal.RequireFromString("0.25")},
	{minFrequency: 10, ratio: decimal.RequireFromString("0.30")},
	{minFrequency: 0, ratio: decimal.RequireFromString("0.35")},
}

const minReorderThreshold = 5

// BuilderParams configures a catalog Builder.
type BuilderParams struct {
	Categories normalize.CategoryTable
	TopN       int
	Rand       *rand.Rand
	Now        func() time.Time
}

// Builder aggregates raw line items into a ranked, bounded product catalog.
type Builder struct {
	categories normalize.CategoryTable
	topN       int
	rng        *rand.Rand
	now        func() time.Time
}

// NewBuilder constructs a Builder. Missing collaborators fall back to the
// default category table, DefaultTopN and the wall clock; the random source
// is required so callers decide on seeding.
func NewBuilder(params BuilderParams) (*Builder, error) {
	if params.Rand == nil {
		return nil, fmt.Errorf("random source required")
	}
	if params.TopN < 0 {
		return nil, fmt.Errorf("top n must not be negative")
	}
	b := &Builder{
		categories: params.Categories,
		topN:       params.TopN,
		rng:        params.Rand,
		now:        params.Now,
	}
	if len(b.categories) == 0 {
		b.categories = normalize.DefaultCategoryTable()
	}
	if b.topN == 0 {
		b.topN = DefaultTopN
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b, nil
}

// Eligible reports whether a row may contribute to the catalog.
func Eligible(row records.RawRow) bool {
	if strings.TrimSpace(row.ProductKey) == "" || strings.TrimSpace(row.Description) == "" {
		return false
	}
	if !row.UnitPrice.Valid || !row.UnitPrice.Decimal.IsPositive() {
		return false
	}
	return !normalize.IsSentinelKey(row.ProductKey)
}

// Filter returns the eligible rows in their original order.
func Filter(rows []records.RawRow) []records.RawRow {
	out := make([]records.RawRow, 0, len(rows))
	for _, row := range rows {
		if Eligible(row) {
			out = append(out, row)
		}
	}
	return out
}

// group accumulates the statistics of one product key.
type group struct {
	key          string
	descriptions map[string]int
	descOrder    []string
	priceSum     decimal.Decimal
	quantity     int
	frequency    int
}

func (g *group) add(row records.RawRow) {
	if _, seen := g.descriptions[row.Description]; !seen {
		g.descOrder = append(g.descOrder, row.Description)
	}
	g.descriptions[row.Description]++
	g.priceSum = g.priceSum.Add(row.UnitPrice.Decimal)
	g.quantity += row.Quantity
	g.frequency++
}

// description returns the most frequent value; ties go to the first seen.
func (g *group) description() string {
	best, bestCount := "", 0
	for _, desc := range g.descOrder {
		if n := g.descriptions[desc]; n > bestCount {
			best, bestCount = desc, n
		}
	}
	return best
}

func (g *group) meanPrice() decimal.Decimal {
	return g.priceSum.Div(decimal.NewFromInt(int64(g.frequency)))
}

// Build produces one ProductRecord per retained key, ordered by sales
// frequency descending with ties in first-appearance order.
func (b *Builder) Build(rows []records.RawRow) []records.ProductRecord {
	groups := aggregate(Filter(rows))

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].frequency > groups[j].frequency
	})
	if len(groups) > b.topN {
		groups = groups[:b.topN]
	}

	stride := max(1, len(groups)/lowStockBuckets)
	now := b.now().UTC()
	products := make([]records.ProductRecord, 0, len(groups))
	for i, g := range groups {
		desc := g.description()
		price := normalize.ToMinorCurrency(decimal.NewNullDecimal(g.meanPrice()))
		supplier := AssignSupplier(g.key)

		var stock, threshold int
		if i%stride == 0 {
			stock = b.lowStock()
			threshold = LowStockThreshold(stock)
		} else {
			stock = b.normalStock(g.frequency)
			threshold = ReorderThreshold(stock, g.frequency)
		}

		products = append(products, records.ProductRecord{
			Key:              g.key,
			DisplayName:      normalize.NormalizeName(desc),
			Description:      desc,
			Category:         b.categories.Infer(desc),
			UnitPriceMinor:   price,
			UnitCostMinor:    UnitCost(price),
			StockQuantity:    stock,
			ReorderThreshold: threshold,
			UnitLabel:        UnitLabel,
			SupplierName:     supplier.Name,
			SupplierContact:  supplier.Contact,
			CreatedAt:        now,
			UpdatedAt:        now,
			Active:           true,
		})
	}
	return products
}

func aggregate(rows []records.RawRow) []*group {
	index := make(map[string]*group)
	var ordered []*group
	for _, row := range rows {
		g, ok := index[row.ProductKey]
		if !ok {
			g = &group{key: row.ProductKey, descriptions: make(map[string]int)}
			index[row.ProductKey] = g
			ordered = append(ordered, g)
		}
		g.add(row)
	}
	return ordered
}

func (b *Builder) lowStock() int {
	return lowStockMin + b.rng.IntN(lowStockMax-lowStockMin+1)
}

func (b *Builder) normalStock(frequency int) int {
	for _, tier := range stockTiers {
		if frequency >= tier.minFrequency {
			return tier.base + b.rng.IntN(tier.spread)
		}
	}
	last := stockTiers[len(stockTiers)-1]
	return last.base + b.rng.IntN(last.spread)
}

// UnitCost applies the fixed margin: floor(0.6 * price).
func UnitCost(priceMinor int64) int64 {
	return decimal.NewFromInt(priceMinor).Mul(costMargin).Floor().IntPart()
}

// LowStockThreshold is round(1.8 * stock), which keeps positive stock below it.
func LowStockThreshold(stock int) int {
	return int(decimal.NewFromInt(int64(stock)).Mul(lowStockThreshold).Round(0).IntPart())
}

// ReorderThreshold is max(5, round(stock * ratio)) with the ratio shrinking
// as sales frequency grows.
func ReorderThreshold(stock, frequency int) int {
	ratio := reorderTiers[len(reorderTiers)-1].ratio
	for _, tier := range reorderTiers {
		if frequency >= tier.minFrequency {
			ratio = tier.ratio
			break
		}
	}
	threshold := int(decimal.NewFromInt(int64(stock)).Mul(ratio).Round(0).IntPart())
	return max(minReorderThreshold, threshold)
}

// Summary describes a built catalog for run reporting.
type Summary struct {
	Products   int
	Categories map[string]int
	LowStock   int
	Healthy    int
}

// Summarize counts categories and products below their reorder threshold.
func Summarize(products []records.ProductRecord) Summary {
	s := Summary{Products: len(products), Categories: make(map[string]int)}
	for _, p := range products {
		s.Categories[p.Category]++
		if p.BelowThreshold() {
			s.LowStock++
		} else {
			s.Healthy++
		}
	}
	return s
}
