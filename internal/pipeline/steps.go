package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/submanager/internal/detector"
	"github.com/dvloznov/submanager/internal/domain"
	"github.com/dvloznov/submanager/internal/gcs"
	infra "github.com/dvloznov/submanager/internal/infra/bigquery"
	"github.com/dvloznov/submanager/internal/logger"
	"github.com/dvloznov/submanager/internal/normalizer"
	"github.com/dvloznov/submanager/internal/statement"
	"github.com/dvloznov/submanager/internal/stats"
)

// PipelineStep represents a single step in the detection pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	// Source is a local path or gs:// URI. Ignored when Data is preset.
	Source   string
	Filename string
	Data     []byte

	RunID          string
	LookbackMonths int
	Today          civil.Date
	DetectedAt     time.Time

	Decoded       *statement.Decoded
	Transactions  []domain.Transaction
	Dropped       []error
	Subscriptions []domain.Subscription
	Summary       domain.StatisticsSummary
}

// ErrStatementTooLarge is returned when statement bytes exceed the limit.
var ErrStatementTooLarge = errors.New("statement too large")

// Step 1: FetchStatementStep loads the statement bytes from GCS or disk.
type FetchStatementStep struct {
	Storage  StorageService
	MaxBytes int64
}

func (s *FetchStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Data != nil {
		if state.Filename == "" {
			state.Filename = filepath.Base(state.Source)
		}
		return s.checkSize(state)
	}

	if gcs.IsGCSURI(state.Source) {
		if s.Storage == nil {
			return fmt.Errorf("FetchStatementStep: %s: no storage service configured", state.Source)
		}
		data, err := s.Storage.FetchFromGCS(ctx, state.Source)
		if err != nil {
			return err
		}
		state.Data = data
		state.Filename = s.Storage.ExtractFilenameFromGCSURI(state.Source)
		return s.checkSize(state)
	}

	data, err := os.ReadFile(state.Source)
	if err != nil {
		return fmt.Errorf("FetchStatementStep: reading %q: %w", state.Source, err)
	}
	state.Data = data
	state.Filename = filepath.Base(state.Source)
	return s.checkSize(state)
}

func (s *FetchStatementStep) checkSize(state *PipelineState) error {
	if s.MaxBytes > 0 && int64(len(state.Data)) > s.MaxBytes {
		return fmt.Errorf("FetchStatementStep: %s is %d bytes, limit is %d: %w", state.Filename, len(state.Data), s.MaxBytes, ErrStatementTooLarge)
	}
	return nil
}

// Step 2: DecodeStep turns bytes into rows or text.
type DecodeStep struct {
	Extractor statement.TextExtractor
}

func (s *DecodeStep) Execute(ctx context.Context, state *PipelineState) error {
	decoded, err := statement.Decode(ctx, state.Filename, state.Data, s.Extractor)
	if err != nil {
		return err
	}
	state.Decoded = decoded
	return nil
}

// Step 3: NormalizeStep produces date-descending transactions, dropping
// malformed records.
type NormalizeStep struct {
	Normalizer *normalizer.Normalizer
}

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Decoded == nil {
		return fmt.Errorf("NormalizeStep: nothing decoded")
	}

	var res normalizer.Result
	if state.Decoded.Kind == statement.KindDelimited {
		res = s.Normalizer.NormalizeRows(state.Decoded.Rows)
	} else {
		res = s.Normalizer.NormalizeText(state.Decoded.Text)
	}

	log := logger.FromContext(ctx)
	for _, err := range res.Dropped {
		log.Debug().Err(err).Str("run_id", state.RunID).Msg("dropped record")
	}

	state.Transactions = res.Transactions
	state.Dropped = res.Dropped
	return nil
}

// Step 4: DetectStep runs recurrence detection.
type DetectStep struct {
	Detector *detector.Detector
}

func (s *DetectStep) Execute(ctx context.Context, state *PipelineState) error {
	today := state.Today
	if !today.IsValid() {
		today = civil.DateOf(time.Now())
		state.Today = today
	}
	state.Subscriptions = s.Detector.Detect(state.Transactions, state.LookbackMonths, today)
	return nil
}

// Step 5: SummarizeStep computes statistics.
type SummarizeStep struct{}

func (s *SummarizeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Summary = stats.Summarize(state.Subscriptions)
	return nil
}

// Step 6: ExportStep writes a snapshot of the run to BigQuery.
type ExportStep struct {
	Writer SnapshotWriter
}

func (s *ExportStep) Execute(ctx context.Context, state *PipelineState) error {
	rows := infra.SubscriptionsToRows(state.RunID, state.Source, state.Subscriptions, state.DetectedAt)
	if err := s.Writer.InsertSubscriptions(ctx, rows); err != nil {
		return fmt.Errorf("ExportStep: %w", err)
	}
	return nil
}
