package bigquery

import (
	"math/big"
	"strconv"
	"time"

	"github.com/dvloznov/submanager/internal/domain"
)

// SubscriptionsToRows maps one run's detection result to snapshot rows.
func SubscriptionsToRows(runID, source string, subs []domain.Subscription, detectedAt time.Time) []*SubscriptionRow {
	rows := make([]*SubscriptionRow, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, &SubscriptionRow{
			RunID:                 runID,
			SubscriptionID:        s.ID,
			Source:                source,
			Name:                  s.Name,
			Amount:                moneyToRat(s.Amount),
			Frequency:             string(s.Frequency),
			Category:              string(s.Category),
			LastPaymentDate:       s.LastPaymentDate,
			NextPaymentDate:       s.NextPaymentDate,
			TransactionCount:      int64(s.TransactionCount),
			TotalSpent:            moneyToRat(s.TotalSpent),
			Confidence:            int64(s.Confidence),
			MarkedForCancellation: s.MarkedForCancellation,
			DetectedTS:            detectedAt,
		})
	}
	return rows
}

// RowToSubscription maps a stored row back to the domain type. Unknown
// categories read back as "other".
func RowToSubscription(row *SubscriptionRow) domain.Subscription {
	category, ok := domain.ParseCategory(row.Category)
	if !ok {
		category = domain.CategoryOther
	}

	return domain.Subscription{
		ID:                    row.SubscriptionID,
		Name:                  row.Name,
		Amount:                ratToMoney(row.Amount),
		Frequency:             domain.Frequency(row.Frequency),
		Category:              category,
		LastPaymentDate:       row.LastPaymentDate,
		NextPaymentDate:       row.NextPaymentDate,
		TransactionCount:      int(row.TransactionCount),
		TotalSpent:            ratToMoney(row.TotalSpent),
		Confidence:            int(row.Confidence),
		MarkedForCancellation: row.MarkedForCancellation,
	}
}

// RowsToSubscriptions maps a run's rows back to domain subscriptions.
func RowsToSubscriptions(rows []*SubscriptionRow) []domain.Subscription {
	subs := make([]domain.Subscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, RowToSubscription(row))
	}
	return subs
}

// moneyToRat converts through the 2-decimal string form so NUMERIC columns
// hold 15.99 rather than the nearest binary fraction.
func moneyToRat(v float64) *big.Rat {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'f', 2, 64))
	if !ok {
		return new(big.Rat)
	}
	return r
}

func ratToMoney(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}
