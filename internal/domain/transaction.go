package domain

import (
	"cloud.google.com/go/civil"
)

// Transaction is one normalized statement line. Values are immutable once
// produced by the normalizer; the category is assigned there and never
// recomputed.
type Transaction struct {
	Date        civil.Date `json:"date"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount"` // magnitude, sign discarded
	Category    Category   `json:"category"`
}

// Category is one of a closed set of spending categories.
type Category string

const (
	CategoryStreaming Category = "streaming"
	CategorySoftware  Category = "software"
	CategoryFitness   Category = "fitness"
	CategoryTransport Category = "transport"
	CategoryUtilities Category = "utilities"
	CategoryInsurance Category = "insurance"
	CategoryOther     Category = "other"
)

// Categories lists every category in keyword-matching order, "other" last.
var Categories = []Category{
	CategoryStreaming,
	CategorySoftware,
	CategoryFitness,
	CategoryTransport,
	CategoryUtilities,
	CategoryInsurance,
	CategoryOther,
}

// ParseCategory returns the category with the given name.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}
