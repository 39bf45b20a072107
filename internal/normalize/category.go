package normalize

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCategory is returned when no keyword matches.
const DefaultCategory = "General"

// CategoryRule maps a category to the keywords that select it.
type CategoryRule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// CategoryTable is an ordered rule list; the first matching rule wins.
type CategoryTable []CategoryRule

// DefaultCategoryTable returns the built-in keyword table.
func DefaultCategoryTable() CategoryTable {
	return CategoryTable{
		{Category: "Home Decor", Keywords: []string{"t-light", "lantern", "light", "holder", "hanging", "decorative", "ornament"}},
		{Category: "Kitchen", Keywords: []string{"mug", "tea", "kitchen", "spoon", "towel", "bottle", "cup", "coaster"}},
		{Category: "Toys & Games", Keywords: []string{"jigsaw", "doll", "blocks", "game", "puzzle", "toy", "playhouse"}},
		{Category: "Gifts & Accessories", Keywords: []string{"bag", "gift", "sticker", "tape", "wrapping", "card"}},
		{Category: "Seasonal", Keywords: []string{"christmas", "valentine", "easter", "halloween"}},
		{Category: "Office Supplies", Keywords: []string{"pen", "pencil", "notebook", "folder", "file"}},
		{Category: "Personal Care", Keywords: []string{"soap", "shampoo", "toothpaste", "cream", "lotion"}},
	}
}

// LoadCategoryTable reads an ordered table from a YAML sequence of
// {category, keywords} entries.
func LoadCategoryTable(path string) (CategoryTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading category table: %w", err)
	}
	var table CategoryTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parsing category table: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("category table %s is empty", path)
	}
	for i, rule := range table {
		if strings.TrimSpace(rule.Category) == "" {
			return nil, fmt.Errorf("category table entry %d has no category", i)
		}
		for j, kw := range rule.Keywords {
			table[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	return table, nil
}

// Infer returns the first category whose keyword occurs in description,
// compared case-insensitively.
func (t CategoryTable) Infer(description string) string {
	lower := strings.ToLower(description)
	if strings.TrimSpace(lower) == "" {
		return DefaultCategory
	}
	for _, rule := range t {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return DefaultCategory
}

var defaultTable = DefaultCategoryTable()

// InferCategory classifies description against the built-in table.
func InferCategory(description string) string {
	return defaultTable.Infer(description)
}
