package imagegen

import (
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/retailpipe/internal/records"
)

const (
	// MaxPromptLength is the hard cap, in characters, on a generation prompt.
	MaxPromptLength = 1024

	maxDescriptionLength = 100
	promptCutLength      = 1020
	ellipsis             = "..."
	styleSuffix          = ", white background, retail product image, high quality, clean lighting, e-commerce style, product photography"
)

// BuildPrompt describes a product for the image model. The description is
// added only when it says something the name does not, and the result never
// exceeds MaxPromptLength characters.
func BuildPrompt(p records.ProductRecord) string {
	var b strings.Builder
	b.WriteString("Professional product photography of ")
	b.WriteString(p.DisplayName)

	desc := strings.TrimSpace(p.Description)
	if desc != "" && !strings.EqualFold(desc, p.DisplayName) {
		b.WriteString(", ")
		b.WriteString(truncate(desc, maxDescriptionLength))
	}
	if category := strings.TrimSpace(p.Category); category != "" {
		b.WriteString(", ")
		b.WriteString(category)
		b.WriteString(" product")
	}
	b.WriteString(styleSuffix)

	prompt := b.String()
	if utf8.RuneCountInString(prompt) > MaxPromptLength {
		return string([]rune(prompt)[:promptCutLength]) + ellipsis
	}
	return prompt
}

// truncate keeps the first limit characters and marks the cut with an ellipsis.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + ellipsis
}
