package stats

import (
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/submanager/internal/domain"
)

func sub(name string, amount float64, freq domain.Frequency, cat domain.Category, next civil.Date) domain.Subscription {
	return domain.Subscription{
		ID:              name,
		Name:            name,
		Amount:          amount,
		Frequency:       freq,
		Category:        cat,
		NextPaymentDate: next,
	}
}

func day(d int) civil.Date {
	return civil.Date{Year: 2024, Month: time.March, Day: d}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	if s.TotalMonthly != 0 || s.TotalYearly != 0 || s.AverageSubscription != 0 {
		t.Errorf("totals = %v/%v/%v, want zeros", s.TotalMonthly, s.TotalYearly, s.AverageSubscription)
	}
	if math.IsNaN(s.AverageSubscription) {
		t.Error("AverageSubscription is NaN")
	}
	if s.MostExpensive != nil {
		t.Errorf("MostExpensive = %+v, want nil", s.MostExpensive)
	}
	if s.Count != 0 || len(s.UpcomingPayments) != 0 || len(s.ByCategory) != 0 {
		t.Errorf("summary = %+v, want empty", s)
	}
}

func TestMonthlyEquivalent(t *testing.T) {
	tests := []struct {
		freq domain.Frequency
		want float64
	}{
		{domain.FrequencyWeekly, 43.3},
		{domain.FrequencyBiweekly, 21.6},
		{domain.FrequencyMonthly, 10},
		{domain.FrequencyQuarterly, 10.0 / 3},
		{domain.FrequencyYearly, 10.0 / 12},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			got := MonthlyEquivalent(domain.Subscription{Amount: 10, Frequency: tt.freq})
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MonthlyEquivalent(%s) = %v, want %v", tt.freq, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	subs := []domain.Subscription{
		sub("Rent Insurance", 120, domain.FrequencyYearly, domain.CategoryInsurance, day(20)),
		sub("Netflix", 15.99, domain.FrequencyMonthly, domain.CategoryStreaming, day(5)),
		sub("Spotify", 9.99, domain.FrequencyMonthly, domain.CategoryStreaming, day(2)),
		sub("Cleaner", 6, domain.FrequencyWeekly, domain.CategoryOther, day(9)),
	}

	s := Summarize(subs)

	// 10 + 15.99 + 9.99 + 25.98
	if s.TotalMonthly != 61.96 {
		t.Errorf("TotalMonthly = %v, want 61.96", s.TotalMonthly)
	}
	if s.TotalYearly != 743.52 {
		t.Errorf("TotalYearly = %v, want 743.52", s.TotalYearly)
	}
	if s.AverageSubscription != 15.49 {
		t.Errorf("AverageSubscription = %v, want 15.49", s.AverageSubscription)
	}
	if s.MostExpensive == nil || s.MostExpensive.Name != "Rent Insurance" {
		t.Errorf("MostExpensive = %+v, want Rent Insurance", s.MostExpensive)
	}

	streaming := s.ByCategory[domain.CategoryStreaming]
	if streaming.Count != 2 || streaming.Total != 25.98 {
		t.Errorf("ByCategory[streaming] = %+v, want {2 25.98}", streaming)
	}
	insurance := s.ByCategory[domain.CategoryInsurance]
	if insurance.Count != 1 || insurance.Total != 10 {
		t.Errorf("ByCategory[insurance] = %+v, want monthly-equivalent {1 10}", insurance)
	}

	wantOrder := []string{"Spotify", "Netflix", "Cleaner", "Rent Insurance"}
	if len(s.UpcomingPayments) != len(wantOrder) {
		t.Fatalf("len(UpcomingPayments) = %d, want %d", len(s.UpcomingPayments), len(wantOrder))
	}
	for i, name := range wantOrder {
		if s.UpcomingPayments[i].Name != name {
			t.Errorf("UpcomingPayments[%d] = %q, want %q", i, s.UpcomingPayments[i].Name, name)
		}
	}
}

func TestSummarize_UpcomingCappedAtFive(t *testing.T) {
	var subs []domain.Subscription
	for i := 10; i > 0; i-- {
		subs = append(subs, sub("s", 1, domain.FrequencyMonthly, domain.CategoryOther, day(i)))
	}

	s := Summarize(subs)
	if len(s.UpcomingPayments) != MaxUpcomingPayments {
		t.Fatalf("len(UpcomingPayments) = %d, want %d", len(s.UpcomingPayments), MaxUpcomingPayments)
	}
	if s.UpcomingPayments[0].Date != day(1) {
		t.Errorf("first upcoming = %v, want %v", s.UpcomingPayments[0].Date, day(1))
	}
}

func TestSummarize_MostExpensiveTieKeepsFirst(t *testing.T) {
	subs := []domain.Subscription{
		sub("First", 20, domain.FrequencyMonthly, domain.CategoryOther, day(1)),
		sub("Second", 20, domain.FrequencyMonthly, domain.CategoryOther, day(2)),
	}

	s := Summarize(subs)
	if s.MostExpensive.Name != "First" {
		t.Errorf("MostExpensive = %q, want First", s.MostExpensive.Name)
	}

	s.MostExpensive.Name = "changed"
	if subs[0].Name != "First" {
		t.Error("Summarize() exposed the input slice through MostExpensive")
	}
}
