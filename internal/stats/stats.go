// Package stats rolls detected subscriptions up into a spending summary.
package stats

import (
	"math"
	"sort"

	"github.com/dvloznov/submanager/internal/domain"
)

// Monthly-equivalent multipliers.
const (
	WeeksPerMonth      = 4.33
	FortnightsPerMonth = 2.16
	MonthsPerQuarter   = 3
	MonthsPerYear      = 12

	// MaxUpcomingPayments caps the upcoming-payments projection.
	MaxUpcomingPayments = 5
)

// MonthlyEquivalent normalizes a subscription's amount to a per-month cost.
func MonthlyEquivalent(s domain.Subscription) float64 {
	switch s.Frequency {
	case domain.FrequencyWeekly:
		return s.Amount * WeeksPerMonth
	case domain.FrequencyBiweekly:
		return s.Amount * FortnightsPerMonth
	case domain.FrequencyQuarterly:
		return s.Amount / MonthsPerQuarter
	case domain.FrequencyYearly:
		return s.Amount / MonthsPerYear
	default:
		return s.Amount
	}
}

// Summarize computes totals, the per-category breakdown, the most expensive
// subscription and the next payments due. Category totals use the same
// monthly-equivalent amounts as TotalMonthly. An empty input yields zeros.
func Summarize(subs []domain.Subscription) domain.StatisticsSummary {
	summary := domain.StatisticsSummary{
		Count:            len(subs),
		ByCategory:       make(map[domain.Category]domain.CategoryTotal),
		UpcomingPayments: make([]domain.UpcomingPayment, 0, MaxUpcomingPayments),
	}
	if len(subs) == 0 {
		return summary
	}

	var totalMonthly float64
	for i, s := range subs {
		monthly := MonthlyEquivalent(s)
		totalMonthly += monthly

		ct := summary.ByCategory[s.Category]
		ct.Count++
		ct.Total += monthly
		summary.ByCategory[s.Category] = ct

		if summary.MostExpensive == nil || s.Amount > summary.MostExpensive.Amount {
			summary.MostExpensive = &subs[i]
		}
	}
	for c, ct := range summary.ByCategory {
		ct.Total = round2(ct.Total)
		summary.ByCategory[c] = ct
	}

	// copy so callers cannot mutate the input through the summary
	most := *summary.MostExpensive
	summary.MostExpensive = &most

	summary.TotalMonthly = round2(totalMonthly)
	summary.TotalYearly = round2(totalMonthly * MonthsPerYear)
	summary.AverageSubscription = round2(totalMonthly / float64(len(subs)))
	summary.UpcomingPayments = upcoming(subs)

	return summary
}

func upcoming(subs []domain.Subscription) []domain.UpcomingPayment {
	byNext := make([]domain.Subscription, len(subs))
	copy(byNext, subs)
	sort.SliceStable(byNext, func(i, j int) bool {
		return byNext[i].NextPaymentDate.Before(byNext[j].NextPaymentDate)
	})

	n := len(byNext)
	if n > MaxUpcomingPayments {
		n = MaxUpcomingPayments
	}
	out := make([]domain.UpcomingPayment, 0, n)
	for _, s := range byNext[:n] {
		out = append(out, domain.UpcomingPayment{
			Name:   s.Name,
			Amount: s.Amount,
			Date:   s.NextPaymentDate,
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
