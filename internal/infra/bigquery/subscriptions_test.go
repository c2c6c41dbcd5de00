package bigquery

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/submanager/internal/domain"
	"github.com/google/go-cmp/cmp"
)

func TestSubscriptionsToRows_RoundTrip(t *testing.T) {
	detected := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	subs := []domain.Subscription{
		{
			ID:                    "8f14e45f-ceea-5e6b-9b3a-0e2a8f7c1d2e",
			Name:                  "Netflix",
			Amount:                15.99,
			Frequency:             domain.FrequencyMonthly,
			Category:              domain.CategoryStreaming,
			LastPaymentDate:       civil.Date{Year: 2024, Month: time.January, Day: 1},
			NextPaymentDate:       civil.Date{Year: 2024, Month: time.February, Day: 1},
			TransactionCount:      3,
			TotalSpent:            47.97,
			Confidence:            91,
			MarkedForCancellation: true,
		},
	}

	rows := SubscriptionsToRows("run-1", "gs://bucket/jan.csv", subs, detected)
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}

	row := rows[0]
	if row.RunID != "run-1" || row.Source != "gs://bucket/jan.csv" || !row.DetectedTS.Equal(detected) {
		t.Errorf("row metadata = %+v", row)
	}
	if row.Amount.Cmp(big.NewRat(1599, 100)) != 0 {
		t.Errorf("Amount = %s, want exactly 15.99", row.Amount.FloatString(4))
	}
	if row.Frequency != "monthly" || row.Category != "streaming" {
		t.Errorf("Frequency/Category = %q/%q", row.Frequency, row.Category)
	}

	if diff := cmp.Diff(subs[0], RowToSubscription(row)); diff != "" {
		t.Errorf("RowToSubscription() mismatch (-want +got):\n%s", diff)
	}
}

func TestRowToSubscription_UnknownCategory(t *testing.T) {
	got := RowToSubscription(&SubscriptionRow{Category: "gaming"})
	if got.Category != domain.CategoryOther {
		t.Errorf("Category = %q, want other", got.Category)
	}
	if got.Amount != 0 || got.TotalSpent != 0 {
		t.Errorf("nil NUMERIC columns = %v/%v, want 0", got.Amount, got.TotalSpent)
	}
}

func TestSubscriptionsToRows_Empty(t *testing.T) {
	rows := SubscriptionsToRows("run-1", "", nil, time.Now())
	if rows == nil || len(rows) != 0 {
		t.Errorf("SubscriptionsToRows(nil) = %v, want empty non-nil", rows)
	}
}
