// Package pipeline runs one statement through decoding, normalization,
// detection and statistics as a sequence of steps.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/submanager/internal/detector"
	"github.com/dvloznov/submanager/internal/logger"
	"github.com/dvloznov/submanager/internal/normalizer"
	"github.com/dvloznov/submanager/internal/results"
	"github.com/dvloznov/submanager/internal/statement"
	"github.com/google/uuid"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Deps are the collaborators of the detection pipeline. Storage, Extractor
// and Exporter are optional.
type Deps struct {
	Storage    StorageService
	Extractor  statement.TextExtractor
	Normalizer *normalizer.Normalizer
	Detector   *detector.Detector
	Exporter   SnapshotWriter
	MaxBytes   int64
}

// NewDetectionPipeline creates the standard pipeline: fetch, decode,
// normalize, detect, summarize and, when an exporter is set, export.
func NewDetectionPipeline(deps Deps) *Pipeline {
	if deps.Normalizer == nil {
		deps.Normalizer = normalizer.Default()
	}
	if deps.Detector == nil {
		deps.Detector = detector.Default()
	}

	steps := []PipelineStep{
		&FetchStatementStep{Storage: deps.Storage, MaxBytes: deps.MaxBytes},
		&DecodeStep{Extractor: deps.Extractor},
		&NormalizeStep{Normalizer: deps.Normalizer},
		&DetectStep{Detector: deps.Detector},
		&SummarizeStep{},
	}
	if deps.Exporter != nil {
		steps = append(steps, &ExportStep{Writer: deps.Exporter})
	}
	return NewPipeline(steps...)
}

// Run executes p on state, assigning a run id and timestamp when missing,
// and returns the outcome as a result set.
func Run(ctx context.Context, p *Pipeline, state *PipelineState) (*results.ResultSet, error) {
	if state.RunID == "" {
		state.RunID = uuid.NewString()
	}
	if state.DetectedAt.IsZero() {
		state.DetectedAt = time.Now().UTC()
	}

	log := logger.FromContext(ctx).With().
		Str("run_id", state.RunID).
		Str("source", state.Source).
		Logger()
	ctx = logger.WithContext(ctx, log)

	if err := p.Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("detection run failed")
		return nil, err
	}

	log.Info().
		Int("transactions", len(state.Transactions)).
		Int("dropped", len(state.Dropped)).
		Int("subscriptions", len(state.Subscriptions)).
		Msg("detection run completed")

	return &results.ResultSet{
		RunID:          state.RunID,
		Source:         state.Source,
		GeneratedAt:    state.DetectedAt,
		LookbackMonths: state.LookbackMonths,
		Subscriptions:  state.Subscriptions,
		Dropped:        len(state.Dropped),
	}, nil
}
