package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/submanager/internal/gcs"
	"github.com/dvloznov/submanager/internal/jobs"
	"github.com/dvloznov/submanager/internal/results"
	"github.com/dvloznov/submanager/internal/statement"
)

// permanentErrors are failures that depend only on the statement or the
// URI, so a retry would fail the same way.
var permanentErrors = []error{
	statement.ErrUnsupportedFormat,
	gcs.ErrInvalidURI,
	gcs.ErrObjectNotExist,
	gcs.ErrObjectTooLarge,
	ErrStatementTooLarge,
}

// classify marks deterministic failures as permanent.
func classify(err error) error {
	for _, target := range permanentErrors {
		if errors.Is(err, target) {
			return jobs.Permanent(err)
		}
	}
	return err
}

// ImportJobHandler returns a job handler that runs p on the job's GCS
// statement and replaces the job's session result with the outcome.
// Failures that retrying cannot fix are wrapped with jobs.Permanent.
func ImportJobHandler(p *Pipeline, store *results.Store) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		importJob, ok := job.(*jobs.ImportStatementJob)
		if !ok {
			return jobs.Permanent(fmt.Errorf("unexpected job type: %T", job))
		}

		rs, err := Run(ctx, p, &PipelineState{
			Source:         importJob.GCSURI,
			LookbackMonths: importJob.LookbackMonths,
		})
		if err != nil {
			return classify(err)
		}

		if err := store.Put(ctx, importJob.SessionID, rs); err != nil {
			return fmt.Errorf("ImportJobHandler: storing result: %w", err)
		}

		importJob.RunID = rs.RunID
		importJob.SubscriptionCount = len(rs.Subscriptions)
		return nil
	}
}
