// Package categorizer assigns a spending category to a transaction
// description by ordered keyword matching.
package categorizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/submanager/internal/domain"
)

// Rule maps a category to the keywords that select it.
type Rule struct {
	Category domain.Category
	Keywords []string
}

// DefaultRules is the built-in keyword table. Order matters: the first rule
// with a matching keyword wins.
var DefaultRules = []Rule{
	{Category: domain.CategoryStreaming, Keywords: []string{
		"netflix", "spotify", "deezer", "disney", "prime video", "amazon prime", "hbo",
		"youtube", "apple music", "apple tv", "canal+", "canal plus", "twitch", "paramount", "crunchyroll",
	}},
	{Category: domain.CategorySoftware, Keywords: []string{
		"adobe", "microsoft", "office 365", "google", "dropbox", "github", "notion", "icloud",
		"openai", "chatgpt", "slack", "zoom", "jetbrains", "1password", "canva",
	}},
	{Category: domain.CategoryFitness, Keywords: []string{
		"gym", "fitness", "basic-fit", "basic fit", "strava", "peloton", "yoga", "crossfit",
	}},
	{Category: domain.CategoryTransport, Keywords: []string{
		"uber", "lyft", "bolt", "navigo", "ratp", "sncf", "train", "parking", "metro", "bus ",
	}},
	{Category: domain.CategoryUtilities, Keywords: []string{
		"edf", "engie", "electric", "gas", "water", "internet", "orange", "sfr", "bouygues",
		"free mobile", "mobile", "phone", "broadband",
	}},
	{Category: domain.CategoryInsurance, Keywords: []string{
		"insurance", "assurance", "axa", "allianz", "maif", "macif", "matmut", "mutuelle",
	}},
}

// Categorizer matches descriptions against a fixed, ordered rule table.
type Categorizer struct {
	rules []Rule
}

// New returns a categorizer over rules. Keywords are lowercased; rules for
// unknown or "other" categories are rejected. Rules are matched in the order
// of domain.Categories whatever order they are given in; rules for the same
// category keep their relative order.
func New(rules []Rule) (*Categorizer, error) {
	c := &Categorizer{rules: make([]Rule, 0, len(rules))}
	for i, r := range rules {
		if _, ok := domain.ParseCategory(string(r.Category)); !ok || r.Category == domain.CategoryOther {
			return nil, fmt.Errorf("categorizer.New: rule %d: unsupported category %q", i, r.Category)
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(kw); strings.TrimSpace(kw) != "" {
				kws = append(kws, kw)
			}
		}
		c.rules = append(c.rules, Rule{Category: r.Category, Keywords: kws})
	}
	sort.SliceStable(c.rules, func(i, j int) bool {
		return rank(c.rules[i].Category) < rank(c.rules[j].Category)
	})
	return c, nil
}

func rank(cat domain.Category) int {
	for i, c := range domain.Categories {
		if c == cat {
			return i
		}
	}
	return len(domain.Categories)
}

// Default returns a categorizer over DefaultRules.
func Default() *Categorizer {
	c, err := New(DefaultRules)
	if err != nil {
		panic(err)
	}
	return c
}

// Categorize returns the first category whose keyword is a substring of the
// lowercased description, or CategoryOther.
func (c *Categorizer) Categorize(description string) domain.Category {
	desc := strings.ToLower(description)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(desc, kw) {
				return r.Category
			}
		}
	}
	return domain.CategoryOther
}
