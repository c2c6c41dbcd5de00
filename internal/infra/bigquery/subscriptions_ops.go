package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const subscriptionsTable = "subscriptions"

// InsertSubscriptionsWithClient inserts a batch of SubscriptionRow using the
// provided BigQuery client.
func InsertSubscriptionsWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, rows []*SubscriptionRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Use fully qualified table name to avoid project ID issues
	table := client.DatasetInProject(projectID, datasetID).Table(subscriptionsTable)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertSubscriptions: inserting rows: %w", err)
	}

	return nil
}

// ListSubscriptionsByRunWithClient reads back one run's subscriptions,
// ordered the way detection returned them.
func ListSubscriptionsByRunWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID, runID string) ([]*SubscriptionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			run_id,
			subscription_id,
			source,
			name,
			amount,
			frequency,
			category,
			last_payment_date,
			next_payment_date,
			transaction_count,
			total_spent,
			confidence,
			marked_for_cancellation,
			detected_ts
		FROM `+"`%s.%s.%s`"+`
		WHERE run_id = @run_id
		ORDER BY amount DESC, name
	`, projectID, datasetID, subscriptionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListSubscriptionsByRun: query read: %w", err)
	}

	var rows []*SubscriptionRow
	for {
		var r SubscriptionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListSubscriptionsByRun: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// ListRunsWithClient lists recent runs with their subscription counts.
func ListRunsWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, limit int) ([]*RunSummaryRow, error) {
	if limit <= 0 {
		limit = 20
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			run_id,
			ANY_VALUE(source) AS source,
			COUNT(*) AS subscription_count,
			MAX(detected_ts) AS detected_ts
		FROM `+"`%s.%s.%s`"+`
		GROUP BY run_id
		ORDER BY detected_ts DESC
		LIMIT @limit
	`, projectID, datasetID, subscriptionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: query read: %w", err)
	}

	var rows []*RunSummaryRow
	for {
		var r RunSummaryRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRuns: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
