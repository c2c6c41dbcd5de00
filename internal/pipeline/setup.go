package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/submanager/internal/config"
	"github.com/dvloznov/submanager/internal/gcs"
	infra "github.com/dvloznov/submanager/internal/infra/bigquery"
	"github.com/dvloznov/submanager/internal/logger"
	"github.com/dvloznov/submanager/internal/statement"
)

// SetupOptions selects the cloud collaborators to open.
type SetupOptions struct {
	Storage bool // GCS, for gs:// sources and uploads
	Export  bool // BigQuery snapshots
}

// Resources is a configured pipeline plus the clients backing it.
type Resources struct {
	Pipeline *Pipeline
	Storage  *gcs.GCSStorageService
	Repo     *infra.BigQuerySubscriptionRepository

	closers []func() error
}

// Setup builds the detection pipeline described by cfg. Gemini is enabled
// by cfg.Gemini.Enabled; GCS and BigQuery by opts. Close releases every
// client that was opened.
func Setup(ctx context.Context, cfg *config.Config, opts SetupOptions) (*Resources, error) {
	log := logger.FromContext(ctx)
	res := &Resources{}

	norm, err := cfg.Normalizer()
	if err != nil {
		return nil, fmt.Errorf("Setup: %w", err)
	}
	det, err := cfg.Detector()
	if err != nil {
		return nil, fmt.Errorf("Setup: %w", err)
	}
	deps := Deps{
		Normalizer: norm,
		Detector:   det,
		MaxBytes:   cfg.Server.MaxUploadBytes,
	}

	if opts.Storage {
		storage, err := gcs.NewGCSStorageService(ctx, cfg.GCP.CredentialsFile, cfg.Server.MaxUploadBytes)
		if err != nil {
			return nil, fmt.Errorf("Setup: %w", err)
		}
		res.Storage = storage
		res.closers = append(res.closers, storage.Close)
		deps.Storage = storage
	}

	if cfg.Gemini.Enabled {
		extractor, err := statement.NewGeminiExtractor(ctx, cfg.Gemini.Model)
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("Setup: %w", err)
		}
		deps.Extractor = extractor
	} else {
		log.Debug().Msg("Gemini disabled, PDF statements will be rejected")
	}

	if opts.Export {
		repo, err := infra.NewBigQuerySubscriptionRepository(ctx, cfg.GCP.ProjectID, cfg.GCP.Dataset, cfg.GCP.CredentialsFile)
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("Setup: %w", err)
		}
		res.Repo = repo
		res.closers = append(res.closers, repo.Close)
		deps.Exporter = repo
	}

	res.Pipeline = NewDetectionPipeline(deps)
	return res, nil
}

// Close closes the opened clients in reverse order.
func (r *Resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
