package pipeline

import (
	"context"

	infra "github.com/dvloznov/submanager/internal/infra/bigquery"
)

// StorageService is the subset of gcs.StorageService the pipeline needs.
type StorageService interface {
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
	ExtractFilenameFromGCSURI(uri string) string
}

// SnapshotWriter stores a run's subscriptions. It is satisfied by
// infra.SubscriptionRepository.
type SnapshotWriter interface {
	InsertSubscriptions(ctx context.Context, rows []*infra.SubscriptionRow) error
}
