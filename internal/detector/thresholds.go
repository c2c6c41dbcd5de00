package detector

import (
	"fmt"
	"sort"

	"github.com/dvloznov/submanager/internal/domain"
)

// Heuristic defaults. They are exposed so callers and tests can probe the
// boundaries exactly.
const (
	// DefaultMaxVarianceRatio is the ceiling on population variance / mean of
	// a group's amounts.
	DefaultMaxVarianceRatio = 0.05

	// DefaultMaxAmountSpread is the ceiling on (max - min) / mean.
	DefaultMaxAmountSpread = 0.05

	// DefaultKeyMaxLength bounds the length, in runes, of a grouping key.
	DefaultKeyMaxLength = 50

	// MinTransactions is the smallest group that can become a subscription.
	MinTransactions = 2

	// Confidence weights.
	CountScorePerTransaction = 10
	MaxCountScore            = 40
	MaxConsistencyScore      = 30
)

// Period is a calendar step: months and years use calendar arithmetic,
// days are added as-is.
type Period struct {
	Years  int
	Months int
	Days   int
}

// Band maps an inclusive range of average day-gaps to a frequency.
type Band struct {
	Frequency domain.Frequency
	MinDays   float64
	MaxDays   float64
	Period    Period
	// CadencePrior is added to the confidence of subscriptions in this band.
	CadencePrior int
}

// DefaultBands leaves 9–11, 17–24, 36–84 and 96–354 days uncovered on
// purpose: averages there are not treated as recurring.
var DefaultBands = []Band{
	{Frequency: domain.FrequencyWeekly, MinDays: 6, MaxDays: 8, Period: Period{Days: 7}},
	{Frequency: domain.FrequencyBiweekly, MinDays: 12, MaxDays: 16, Period: Period{Days: 14}},
	{Frequency: domain.FrequencyMonthly, MinDays: 25, MaxDays: 35, Period: Period{Months: 1}, CadencePrior: 30},
	{Frequency: domain.FrequencyQuarterly, MinDays: 85, MaxDays: 95, Period: Period{Months: 3}, CadencePrior: 25},
	{Frequency: domain.FrequencyYearly, MinDays: 355, MaxDays: 375, Period: Period{Years: 1}, CadencePrior: 20},
}

// Thresholds groups every tunable of the detector.
type Thresholds struct {
	MaxVarianceRatio float64
	MaxAmountSpread  float64
	KeyMaxLength     int
	Bands            []Band
}

// DefaultThresholds returns the stock heuristics.
func DefaultThresholds() Thresholds {
	bands := make([]Band, len(DefaultBands))
	copy(bands, DefaultBands)
	return Thresholds{
		MaxVarianceRatio: DefaultMaxVarianceRatio,
		MaxAmountSpread:  DefaultMaxAmountSpread,
		KeyMaxLength:     DefaultKeyMaxLength,
		Bands:            bands,
	}
}

// Validate checks that ratios are positive and that bands are well formed
// and do not overlap.
func (t Thresholds) Validate() error {
	if t.MaxVarianceRatio <= 0 {
		return fmt.Errorf("max variance ratio must be positive, got %v", t.MaxVarianceRatio)
	}
	if t.MaxAmountSpread <= 0 {
		return fmt.Errorf("max amount spread must be positive, got %v", t.MaxAmountSpread)
	}
	if t.KeyMaxLength <= 0 {
		return fmt.Errorf("key max length must be positive, got %d", t.KeyMaxLength)
	}
	if len(t.Bands) == 0 {
		return fmt.Errorf("at least one frequency band is required")
	}

	sorted := make([]Band, len(t.Bands))
	copy(sorted, t.Bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinDays < sorted[j].MinDays })

	for i, b := range sorted {
		if b.MinDays <= 0 || b.MaxDays < b.MinDays {
			return fmt.Errorf("band %s: invalid range %v-%v", b.Frequency, b.MinDays, b.MaxDays)
		}
		if b.Period == (Period{}) {
			return fmt.Errorf("band %s: empty period", b.Frequency)
		}
		if i > 0 && b.MinDays <= sorted[i-1].MaxDays {
			return fmt.Errorf("bands %s and %s overlap", sorted[i-1].Frequency, b.Frequency)
		}
	}
	return nil
}

// band returns the band containing avgDays.
func (t Thresholds) band(avgDays float64) (Band, bool) {
	for _, b := range t.Bands {
		if avgDays >= b.MinDays && avgDays <= b.MaxDays {
			return b, true
		}
	}
	return Band{}, false
}
