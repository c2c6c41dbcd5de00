package detector

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/submanager/internal/domain"
)

func group(key string, amounts []float64, dates ...civil.Date) RecurrenceGroup {
	g := RecurrenceGroup{Key: key}
	for i, d := range dates {
		g.Transactions = append(g.Transactions, domain.Transaction{
			Date:        d,
			Description: key,
			Amount:      amounts[i%len(amounts)],
			Category:    domain.CategoryStreaming,
		})
	}
	return g
}

func TestClassify_MonthlyPair(t *testing.T) {
	start := date(2024, 1, 1)
	g := group("netflix", []float64{15.99}, start, start.AddDays(30))

	sub, ok := Classify(g, DefaultThresholds())
	if !ok {
		t.Fatal("Classify() rejected a monthly pair")
	}
	if sub.Frequency != domain.FrequencyMonthly {
		t.Errorf("Frequency = %q, want monthly", sub.Frequency)
	}
	if sub.Confidence < 70 {
		t.Errorf("Confidence = %d, want >= 70", sub.Confidence)
	}
	if sub.Confidence != 80 {
		t.Errorf("Confidence = %d, want 80 (20 count + 30 consistency + 30 cadence)", sub.Confidence)
	}
	if sub.Amount != 15.99 || sub.TotalSpent != 31.98 || sub.TransactionCount != 2 {
		t.Errorf("aggregates = %v/%v/%d, want 15.99/31.98/2", sub.Amount, sub.TotalSpent, sub.TransactionCount)
	}
}

func TestClassify_Bands(t *testing.T) {
	start := date(2023, 1, 1)

	tests := []struct {
		name   string
		gap    int
		want   domain.Frequency
		wantOK bool
	}{
		{name: "weekly low edge", gap: 6, want: domain.FrequencyWeekly, wantOK: true},
		{name: "weekly high edge", gap: 8, want: domain.FrequencyWeekly, wantOK: true},
		{name: "between weekly and biweekly", gap: 10},
		{name: "biweekly", gap: 14, want: domain.FrequencyBiweekly, wantOK: true},
		{name: "monthly low edge", gap: 25, want: domain.FrequencyMonthly, wantOK: true},
		{name: "monthly high edge", gap: 35, want: domain.FrequencyMonthly, wantOK: true},
		{name: "just past monthly", gap: 36},
		{name: "forty days", gap: 40},
		{name: "quarterly", gap: 91, want: domain.FrequencyQuarterly, wantOK: true},
		{name: "between quarterly and yearly", gap: 180},
		{name: "yearly", gap: 365, want: domain.FrequencyYearly, wantOK: true},
		{name: "past yearly", gap: 376},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := group("service", []float64{10}, start, start.AddDays(tt.gap), start.AddDays(2*tt.gap))
			sub, ok := Classify(g, DefaultThresholds())
			if ok != tt.wantOK {
				t.Fatalf("Classify() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && sub.Frequency != tt.want {
				t.Errorf("Frequency = %q, want %q", sub.Frequency, tt.want)
			}
		})
	}
}

func TestClassify_AverageGap(t *testing.T) {
	start := date(2024, 1, 1)
	// gaps of 20 and 40 days average to a monthly 30
	g := group("irregular", []float64{5}, start, start.AddDays(20), start.AddDays(60))

	sub, ok := Classify(g, DefaultThresholds())
	if !ok || sub.Frequency != domain.FrequencyMonthly {
		t.Errorf("Classify() = %q, %v; want monthly, true", sub.Frequency, ok)
	}
}

func TestClassify_AmountConsistency(t *testing.T) {
	start := date(2024, 1, 1)

	tests := []struct {
		name    string
		amounts []float64
		wantOK  bool
	}{
		{name: "identical", amounts: []float64{10, 10}, wantOK: true},
		{name: "two percent spread", amounts: []float64{10.00, 10.20}, wantOK: true},
		{name: "six percent spread", amounts: []float64{10.00, 10.60}},
		{name: "wild", amounts: []float64{5, 50}},
		{name: "zero amounts", amounts: []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := group("svc", tt.amounts, start, start.AddDays(30))
			if _, ok := Classify(g, DefaultThresholds()); ok != tt.wantOK {
				t.Errorf("Classify() ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestClassify_VarianceRatioCeiling(t *testing.T) {
	start := date(2024, 1, 1)
	// mean 10, population variance 1, ratio 0.1
	g := group("svc", []float64{9, 11}, start, start.AddDays(30))

	th := DefaultThresholds()
	th.MaxAmountSpread = 1
	if _, ok := Classify(g, th); ok {
		t.Error("Classify() accepted a variance ratio of 0.1")
	}

	th.MaxVarianceRatio = 0.1
	if _, ok := Classify(g, th); !ok {
		t.Error("Classify() rejected a variance ratio equal to the ceiling")
	}
}

func TestClassify_SingleTransaction(t *testing.T) {
	g := group("once", []float64{10}, date(2024, 1, 1))
	if _, ok := Classify(g, DefaultThresholds()); ok {
		t.Error("Classify() accepted a single transaction")
	}
}

func TestClassify_NextPaymentDate(t *testing.T) {
	tests := []struct {
		name  string
		dates []civil.Date
		want  civil.Date
	}{
		{
			name:  "monthly uses calendar months",
			dates: []civil.Date{date(2024, 1, 15), date(2024, 2, 15)},
			want:  date(2024, 3, 15),
		},
		{
			name:  "quarterly",
			dates: []civil.Date{date(2023, 10, 1), date(2024, 1, 1)},
			want:  date(2024, 4, 1),
		},
		{
			name:  "yearly",
			dates: []civil.Date{date(2023, 6, 10), date(2024, 6, 10)},
			want:  date(2025, 6, 10),
		},
		{
			name:  "weekly adds days",
			dates: []civil.Date{date(2024, 2, 20), date(2024, 2, 27)},
			want:  date(2024, 3, 5),
		},
		{
			name:  "input order does not matter",
			dates: []civil.Date{date(2024, 2, 15), date(2024, 1, 15)},
			want:  date(2024, 3, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, ok := Classify(group("svc", []float64{10}, tt.dates...), DefaultThresholds())
			if !ok {
				t.Fatal("Classify() rejected the group")
			}
			if sub.NextPaymentDate != tt.want {
				t.Errorf("NextPaymentDate = %v, want %v", sub.NextPaymentDate, tt.want)
			}
			if sub.LastPaymentDate != tt.dates[0] && sub.LastPaymentDate != tt.dates[1] {
				t.Errorf("LastPaymentDate = %v, not one of the inputs", sub.LastPaymentDate)
			}
		})
	}
}

func TestClassify_ConfidenceClamped(t *testing.T) {
	start := date(2020, 1, 1)
	var dates []civil.Date
	for i := 0; i < 12; i++ {
		dates = append(dates, AddPeriod(start, Period{Months: i}))
	}

	sub, ok := Classify(group("svc", []float64{10}, dates...), DefaultThresholds())
	if !ok {
		t.Fatal("Classify() rejected a year of monthly charges")
	}
	if sub.Confidence != 100 {
		t.Errorf("Confidence = %d, want 100", sub.Confidence)
	}
}

func TestSubscriptionID_Stable(t *testing.T) {
	a := SubscriptionID("netflix abonnement")
	b := SubscriptionID("netflix abonnement")
	c := SubscriptionID("spotify")

	if a != b {
		t.Errorf("SubscriptionID() not stable: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("SubscriptionID() collided for different keys: %q", a)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		description string
		key         string
		want        string
	}{
		{"NETFLIX ABONNEMENT", "netflix abonnement", "Netflix Abonnement"},
		{"PRLV SEPA SPOTIFY AB 12345", "prlv sepa spotify ab", "Prlv Sepa Spotify"},
		{"CB*4411 ADOBE", "cb adobe", "Adobe"},
		{"1234 5678", "", ""},
		{"123 456", "fallback key", "Fallback Key"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := displayName(tt.description, tt.key); got != tt.want {
				t.Errorf("displayName(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

func TestAddPeriod_EndOfMonth(t *testing.T) {
	// time.AddDate normalizes Jan 31 + 1 month to Mar 2 in a leap year
	got := AddPeriod(date(2024, time.January, 31), Period{Months: 1})
	if want := date(2024, time.March, 2); got != want {
		t.Errorf("AddPeriod() = %v, want %v", got, want)
	}
}
