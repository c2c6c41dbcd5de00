package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	bq "github.com/dvloznov/submanager/internal/bigquery"
	"google.golang.org/api/option"
)

// Re-export shared types so callers need a single import.
type SubscriptionRepository = bq.SubscriptionRepository
type SubscriptionRow = bq.SubscriptionRow
type RunSummaryRow = bq.RunSummaryRow

// DefaultDatasetID is the dataset holding subscription snapshots.
const DefaultDatasetID = "submanager"

// BigQuerySubscriptionRepository is the concrete implementation of
// SubscriptionRepository. It holds a shared BigQuery client to avoid
// creating a new connection for each operation.
type BigQuerySubscriptionRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQuerySubscriptionRepository creates a repository with a shared client.
// credentialsFile may be empty to use Application Default Credentials.
func NewBigQuerySubscriptionRepository(ctx context.Context, projectID, datasetID, credentialsFile string) (*BigQuerySubscriptionRepository, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewBigQuerySubscriptionRepository: project ID is required")
	}
	if datasetID == "" {
		datasetID = DefaultDatasetID
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewBigQuerySubscriptionRepository: creating client: %w", err)
	}
	return &BigQuerySubscriptionRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQuerySubscriptionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertSubscriptions delegates to InsertSubscriptionsWithClient with the shared client.
func (r *BigQuerySubscriptionRepository) InsertSubscriptions(ctx context.Context, rows []*SubscriptionRow) error {
	return InsertSubscriptionsWithClient(ctx, r.client, r.projectID, r.datasetID, rows)
}

// ListSubscriptionsByRun delegates to ListSubscriptionsByRunWithClient with the shared client.
func (r *BigQuerySubscriptionRepository) ListSubscriptionsByRun(ctx context.Context, runID string) ([]*SubscriptionRow, error) {
	return ListSubscriptionsByRunWithClient(ctx, r.client, r.projectID, r.datasetID, runID)
}

// ListRuns delegates to ListRunsWithClient with the shared client.
func (r *BigQuerySubscriptionRepository) ListRuns(ctx context.Context, limit int) ([]*RunSummaryRow, error) {
	return ListRunsWithClient(ctx, r.client, r.projectID, r.datasetID, limit)
}

var _ SubscriptionRepository = (*BigQuerySubscriptionRepository)(nil)
