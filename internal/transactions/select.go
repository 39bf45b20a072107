package transactions

import (
	"sort"

	"github.com/angelmondragon/retailpipe/internal/records"
)

type bucket struct {
	minItems int
	maxItems int // 0 means unbounded
	quota    int
}

var buckets = []bucket{
	{minItems: 2, maxItems: 3, quota: 5},
	{minItems: 4, maxItems: 8, quota: 10},
	{minItems: 9, quota: 10},
}

func (b bucket) holds(n int) bool {
	return n >= b.minItems && (b.maxItems == 0 || n <= b.maxItems)
}

// Selection counts how many transactions each size bucket contributed.
type Selection struct {
	Total  int
	Small  int
	Medium int
	Large  int
}

// Select sorts by item count ascending, keeping the original order for equal
// sizes, and takes fixed quotas of small, medium and large transactions.
func Select(txns []records.TransactionRecord) ([]records.TransactionRecord, Selection) {
	sorted := append([]records.TransactionRecord(nil), txns...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Items) < len(sorted[j].Items)
	})

	picked := make([][]records.TransactionRecord, len(buckets))
	for _, txn := range sorted {
		n := len(txn.Items)
		for i, b := range buckets {
			if b.holds(n) && len(picked[i]) < b.quota {
				picked[i] = append(picked[i], txn)
			}
		}
	}

	sel := Selection{Total: len(txns), Small: len(picked[0]), Medium: len(picked[1]), Large: len(picked[2])}
	out := make([]records.TransactionRecord, 0, sel.Small+sel.Medium+sel.Large)
	for _, group := range picked {
		out = append(out, group...)
	}
	return out, sel
}
