package categorizer

import (
	"testing"

	"github.com/dvloznov/submanager/internal/domain"
)

func TestCategorize(t *testing.T) {
	c := Default()

	tests := []struct {
		description string
		want        domain.Category
	}{
		{"NETFLIX ABONNEMENT", domain.CategoryStreaming},
		{"Prlv Spotify AB 12/03", domain.CategoryStreaming},
		{"ADOBE *CREATIVE CLOUD", domain.CategorySoftware},
		{"BASIC-FIT PARIS", domain.CategoryFitness},
		{"UBER *TRIP", domain.CategoryTransport},
		{"EDF CLIENTS PARTICULIERS", domain.CategoryUtilities},
		{"AXA ASSURANCE HABITATION", domain.CategoryInsurance},
		{"BOULANGERIE DU COIN", domain.CategoryOther},
		{"", domain.CategoryOther},
		// streaming is tested before software
		{"GOOGLE YOUTUBE PREMIUM", domain.CategoryStreaming},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := c.Categorize(tt.description); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

func TestCategorize_Deterministic(t *testing.T) {
	c := Default()
	first := c.Categorize("Orange internet box")
	for i := 0; i < 20; i++ {
		if got := c.Categorize("Orange internet box"); got != first {
			t.Fatalf("Categorize() changed between calls: %q then %q", first, got)
		}
	}
}

func TestNew_RejectsUnknownCategory(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"unknown", []Rule{{Category: "groceries", Keywords: []string{"lidl"}}}},
		{"other", []Rule{{Category: domain.CategoryOther, Keywords: []string{"misc"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.rules); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}

func TestNew_LowercasesKeywords(t *testing.T) {
	c, err := New([]Rule{{Category: domain.CategoryFitness, Keywords: []string{"CLUB MED GYM", "  "}}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := c.Categorize("prlv club med gym 0425"); got != domain.CategoryFitness {
		t.Errorf("Categorize() = %q, want %q", got, domain.CategoryFitness)
	}
	if got := c.Categorize("netflix"); got != domain.CategoryOther {
		t.Errorf("Categorize() with custom rules = %q, want %q", got, domain.CategoryOther)
	}
}

func TestNew_MatchesInCategoryOrder(t *testing.T) {
	// Listed insurance first; streaming must still win for a description
	// that matches both.
	c, err := New([]Rule{
		{Category: domain.CategoryInsurance, Keywords: []string{"axa"}},
		{Category: domain.CategoryStreaming, Keywords: []string{"netflix"}},
		{Category: domain.CategoryInsurance, Keywords: []string{"netflix"}},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := c.Categorize("AXA NETFLIX BUNDLE"); got != domain.CategoryStreaming {
		t.Errorf("Categorize() = %q, want %q", got, domain.CategoryStreaming)
	}
	if got := c.Categorize("AXA HABITATION"); got != domain.CategoryInsurance {
		t.Errorf("Categorize() = %q, want %q", got, domain.CategoryInsurance)
	}
}
