package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/lwai/timeback-onboarding/internal/infra/http/middleware"
	"github.com/lwai/timeback-onboarding/internal/usecase"
)

// RunHandler triggers a pipeline run. Only one run may be in flight at a
// time; concurrent triggers are rejected with 409.
type RunHandler struct {
	Pipeline *usecase.RunPipelineUseCase
	Logger   *zap.Logger

	mu      sync.Mutex
	running bool
}

func NewRunHandler(pipeline *usecase.RunPipelineUseCase, logger *zap.Logger) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunHandler{Pipeline: pipeline, Logger: logger}
}

type RunResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Summary *usecase.Summary `json:"summary,omitempty"`
}

func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !h.tryAcquire() {
		writeJSON(w, http.StatusConflict, RunResponse{
			Success: false,
			Message: "a run is already in progress",
		})
		return
	}
	defer h.release()

	summary, err := h.Pipeline.Execute(r.Context())
	if err != nil {
		h.Logger.Error("pipeline run failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, RunResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	recordRunMetrics(summary)
	writeJSON(w, http.StatusOK, RunResponse{Success: true, Summary: &summary})
}

func (h *RunHandler) tryAcquire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return false
	}
	h.running = true
	return true
}

func (h *RunHandler) release() {
	h.mu.Lock()
	h.running = false
	h.mu.Unlock()
}

func recordRunMetrics(s usecase.Summary) {
	middleware.ObserveRunDuration(s.FinishedAt.Sub(s.StartedAt).Seconds())
	for reason, count := range s.RejectedByReason {
		for i := 0; i < count; i++ {
			middleware.RecordRejection(reason)
		}
	}
	record := func(op, status string, n int) {
		for i := 0; i < n; i++ {
			middleware.RecordPlatformOperation(op, status)
		}
	}
	record(string(usecase.OpAccountCreation), string(usecase.StatusSuccess), s.AccountsCreated)
	record(string(usecase.OpAccountCreation), string(usecase.StatusFailure), s.AccountsFailed)
	record(string(usecase.OpAppAssignment), string(usecase.StatusSuccess), s.AppsAssigned)
	record(string(usecase.OpAppAssignment), string(usecase.StatusFailure), s.AppsFailed)
	record(string(usecase.OpAssessmentAssignment), string(usecase.StatusSuccess), s.AssessmentsAssigned)
	record(string(usecase.OpAssessmentAssignment), string(usecase.StatusFailure), s.AssessmentsFailed)
	for i := 0; i < s.TrackersCreated; i++ {
		middleware.RecordTracker(string(usecase.StatusSuccess))
	}
	for i := 0; i < s.TrackersFailed; i++ {
		middleware.RecordTracker(string(usecase.StatusFailure))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
