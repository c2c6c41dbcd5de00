package bigquery

import (
	"context"
	"math/big"
	"time"

	"cloud.google.com/go/civil"
)

// SubscriptionRepository provides an interface for subscription snapshot storage.
type SubscriptionRepository interface {
	// InsertSubscriptions inserts one run's subscriptions.
	InsertSubscriptions(ctx context.Context, rows []*SubscriptionRow) error

	// ListSubscriptionsByRun returns the subscriptions stored for a run, amount descending.
	ListSubscriptionsByRun(ctx context.Context, runID string) ([]*SubscriptionRow, error)

	// ListRuns returns the most recent detection runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*RunSummaryRow, error)
}

// SubscriptionRow is one detected subscription in submanager.subscriptions.
type SubscriptionRow struct {
	RunID          string `bigquery:"run_id"`          // REQUIRED
	SubscriptionID string `bigquery:"subscription_id"` // REQUIRED
	Source         string `bigquery:"source"`          // NULLABLE, statement file or gs:// URI

	Name      string   `bigquery:"name"`      // REQUIRED
	Amount    *big.Rat `bigquery:"amount"`    // REQUIRED NUMERIC
	Frequency string   `bigquery:"frequency"` // REQUIRED
	Category  string   `bigquery:"category"`  // REQUIRED

	LastPaymentDate civil.Date `bigquery:"last_payment_date"` // REQUIRED
	NextPaymentDate civil.Date `bigquery:"next_payment_date"` // REQUIRED

	TransactionCount int64    `bigquery:"transaction_count"`
	TotalSpent       *big.Rat `bigquery:"total_spent"` // NUMERIC
	Confidence       int64    `bigquery:"confidence"`

	MarkedForCancellation bool `bigquery:"marked_for_cancellation"`

	DetectedTS time.Time `bigquery:"detected_ts"` // REQUIRED
}

// RunSummaryRow aggregates one run for listing.
type RunSummaryRow struct {
	RunID             string    `bigquery:"run_id"`
	Source            string    `bigquery:"source"`
	SubscriptionCount int64     `bigquery:"subscription_count"`
	DetectedTS        time.Time `bigquery:"detected_ts"`
}
