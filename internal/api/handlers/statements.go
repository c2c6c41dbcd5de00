package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dvloznov/submanager/internal/api/middleware"
	"github.com/dvloznov/submanager/internal/domain"
	"github.com/dvloznov/submanager/internal/gcs"
	"github.com/dvloznov/submanager/internal/jobs"
	"github.com/dvloznov/submanager/internal/logger"
	"github.com/dvloznov/submanager/internal/pipeline"
	"github.com/dvloznov/submanager/internal/results"
	"github.com/dvloznov/submanager/internal/statement"
	"github.com/rs/zerolog"
)

// StatementsHandler runs detection on uploaded or stored statements.
type StatementsHandler struct {
	pipeline        *pipeline.Pipeline
	store           *results.Store
	publisher       jobs.Publisher
	maxBytes        int64
	defaultLookback int
	log             zerolog.Logger
}

// NewStatementsHandler creates a new statements handler. publisher may be
// nil, which disables imports.
func NewStatementsHandler(p *pipeline.Pipeline, store *results.Store, publisher jobs.Publisher, maxBytes int64, defaultLookback int, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		pipeline:        p,
		store:           store,
		publisher:       publisher,
		maxBytes:        maxBytes,
		defaultLookback: defaultLookback,
		log:             log,
	}
}

// detectionResponse is returned by the upload endpoint.
type detectionResponse struct {
	SessionID     string                   `json:"session_id"`
	RunID         string                   `json:"run_id"`
	Subscriptions []domain.Subscription    `json:"subscriptions"`
	Summary       domain.StatisticsSummary `json:"summary"`
	Dropped       int                      `json:"dropped"`
}

// Upload handles POST /api/statements (multipart "file", optional
// "lookback_months"). The session's previous result is replaced.
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave headroom for the multipart envelope.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Statement too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read statement")
		return
	}
	if int64(len(data)) > h.maxBytes {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Statement too large")
		return
	}

	lookback, ok := parseLookback(r.FormValue("lookback_months"), h.defaultLookback)
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid lookback_months")
		return
	}

	sessionID := ensureSession(w, r)
	filename := filepath.Base(header.Filename)

	ctx := logger.WithContext(r.Context(), logger.FromContext(r.Context()).With().Str("session_id", sessionID).Logger())
	rs, err := pipeline.Run(ctx, h.pipeline, &pipeline.PipelineState{
		Source:         filename,
		Filename:       filename,
		Data:           data,
		LookbackMonths: lookback,
	})
	if err != nil {
		if errors.Is(err, statement.ErrUnsupportedFormat) {
			middleware.WriteError(w, http.StatusUnsupportedMediaType, "Unsupported statement format")
			return
		}
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Detection failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process statement")
		return
	}

	if err := h.store.Put(ctx, sessionID, rs); err != nil {
		h.log.Error().Err(err).Msg("Failed to store result")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store result")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, detectionResponse{
		SessionID:     sessionID,
		RunID:         rs.RunID,
		Subscriptions: rs.Subscriptions,
		Summary:       rs.Summary(),
		Dropped:       rs.Dropped,
	})
}

// Import handles POST /api/statements/import
func (h *StatementsHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Imports are not configured")
		return
	}

	var req struct {
		GCSURI         string `json:"gcs_uri"`
		LookbackMonths *int   `json:"lookback_months"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, _, err := gcs.ParseGCSURI(req.GCSURI); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "gcs_uri must be a gs://bucket/object URI")
		return
	}

	lookback := h.defaultLookback
	if req.LookbackMonths != nil {
		if *req.LookbackMonths < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid lookback_months")
			return
		}
		lookback = *req.LookbackMonths
	}

	sessionID := ensureSession(w, r)
	job := &jobs.ImportStatementJob{
		SessionID:      sessionID,
		GCSURI:         req.GCSURI,
		LookbackMonths: lookback,
	}

	if err := h.publisher.PublishImportStatement(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue import job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue import job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("session_id", sessionID).Str("gcs_uri", req.GCSURI).Msg("Import job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":     job.JobID,
		"session_id": sessionID,
		"status":     string(job.Status),
	})
}

// ensureSession returns the caller's session id, creating one when the
// request carries none. The id is always echoed in the response header.
func ensureSession(w http.ResponseWriter, r *http.Request) string {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		sessionID = middleware.NewSessionID()
	}
	w.Header().Set(middleware.SessionIDHeader, sessionID)
	return sessionID
}

func parseLookback(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
