package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dvloznov/submanager/internal/gcs"
	"github.com/dvloznov/submanager/internal/jobs"
	"github.com/dvloznov/submanager/internal/results"
)

type otherJob struct{}

func (otherJob) GetID() string             { return "x" }
func (otherJob) GetType() jobs.JobType     { return "other" }
func (otherJob) GetStatus() jobs.JobStatus { return jobs.JobStatusPending }

func TestImportJobHandler(t *testing.T) {
	storage := &MockStorageService{
		FetchFromGCSFunc: func(ctx context.Context, gcsURI string) ([]byte, error) {
			return []byte(netflixCSV), nil
		},
	}
	store := results.NewStore()
	handler := ImportJobHandler(NewDetectionPipeline(Deps{Storage: storage}), store)

	job := &jobs.ImportStatementJob{JobID: "j1", SessionID: "s1", GCSURI: "gs://b/dec.csv"}
	if err := handler(testContext(), job); err != nil {
		t.Fatalf("handler() error = %v", err)
	}

	rs, ok := store.Get(context.Background(), "s1")
	if !ok {
		t.Fatal("no result stored for session")
	}
	if job.RunID != rs.RunID || job.SubscriptionCount != len(rs.Subscriptions) {
		t.Errorf("job = %+v, result run %s with %d subscriptions", job, rs.RunID, len(rs.Subscriptions))
	}
	if rs.Source != "gs://b/dec.csv" {
		t.Errorf("Source = %q", rs.Source)
	}
}

func TestImportJobHandler_RejectsOtherJobs(t *testing.T) {
	handler := ImportJobHandler(NewDetectionPipeline(Deps{}), results.NewStore())
	if err := handler(testContext(), otherJob{}); err == nil {
		t.Error("handler() expected error for unknown job type")
	}
}

func TestImportJobHandler_ErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		gcsURI        string
		fetchErr      error
		data          string
		wantPermanent bool
	}{
		{
			name:          "missing object",
			gcsURI:        "gs://b/dec.csv",
			fetchErr:      fmt.Errorf("FetchFromGCS: reading object b/dec.csv: %w", gcs.ErrObjectNotExist),
			wantPermanent: true,
		},
		{
			name:          "object too large",
			gcsURI:        "gs://b/dec.csv",
			fetchErr:      fmt.Errorf("FetchFromGCS: %w", gcs.ErrObjectTooLarge),
			wantPermanent: true,
		},
		{
			name:          "unsupported format",
			gcsURI:        "gs://b/dec.xlsx",
			data:          "binary",
			wantPermanent: true,
		},
		{
			name:          "storage unavailable",
			gcsURI:        "gs://b/dec.csv",
			fetchErr:      errors.New("googleapi: Error 503: backend error"),
			wantPermanent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &MockStorageService{
				FetchFromGCSFunc: func(ctx context.Context, gcsURI string) ([]byte, error) {
					if tt.fetchErr != nil {
						return nil, tt.fetchErr
					}
					return []byte(tt.data), nil
				},
			}
			handler := ImportJobHandler(NewDetectionPipeline(Deps{Storage: storage}), results.NewStore())

			err := handler(testContext(), &jobs.ImportStatementJob{JobID: "j1", SessionID: "s1", GCSURI: tt.gcsURI})
			if err == nil {
				t.Fatal("handler() expected error")
			}
			if got := errors.Is(err, jobs.ErrPermanent); got != tt.wantPermanent {
				t.Errorf("errors.Is(%v, ErrPermanent) = %v, want %v", err, got, tt.wantPermanent)
			}
		})
	}
}
