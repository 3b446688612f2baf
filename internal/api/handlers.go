package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/estimate"
	"github.com/toolbelt/plumbing-estimator/internal/features"
	"github.com/toolbelt/plumbing-estimator/internal/history"
	"github.com/toolbelt/plumbing-estimator/internal/logger"
	"github.com/toolbelt/plumbing-estimator/internal/model"
)

const (
	serviceName    = "Plumbing Cost Estimator API"
	serviceVersion = "1.0.0"

	minDescriptionLength = 10
	maxMessageLength     = 1000
	maxBodyBytes         = 64 << 10
)

// Estimator is the estimate pipeline behind /estimate and /chat.
type Estimator interface {
	Estimate(ctx context.Context, description string) (*estimate.Result, error)
	Chat(ctx context.Context, message string) (*estimate.ChatResponse, error)
}

// Predictor scores raw records for /predict.
type Predictor interface {
	Predict(record features.Record) (*model.Prediction, error)
}

// History serves stored estimates.
type History interface {
	Get(ctx context.Context, id string) (*history.Entry, error)
	List(ctx context.Context, limit int) ([]*history.Entry, error)
}

// Info describes the running service on / and /health.
type Info struct {
	Provider     string
	ModelVersion string
	Features     int
}

// Deps are the collaborators the handlers need. History may be nil.
type Deps struct {
	Estimator Estimator
	Predictor Predictor
	History   History
	Info      Info
	Logger    *zap.Logger
}

type handlers struct {
	Deps
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

type estimateRequest struct {
	JobDescription string `json:"job_description"`
}

type chatRequest struct {
	Message string `json:"message"`
}

// Routes registers every endpoint on mux.
func Routes(mux *http.ServeMux, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &handlers{Deps: deps}

	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /estimate", h.estimate)
	mux.HandleFunc("POST /predict", h.predict)
	mux.HandleFunc("POST /chat", h.chat)
	mux.HandleFunc("GET /estimates", h.listEstimates)
	mux.HandleFunc("GET /estimates/{id}", h.getEstimate)
	mux.HandleFunc("GET /ws/chat", h.chatSocket)
}

func (h *handlers) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        serviceName,
		"version":     serviceVersion,
		"description": "Get cost and time estimates for plumbing jobs",
		"endpoints": map[string]string{
			"POST /estimate":      "Get estimate from job description",
			"POST /predict":       "Predict from a structured feature record",
			"POST /chat":          "Conversational estimate",
			"GET /estimates":      "Recent estimates",
			"GET /estimates/{id}": "A stored estimate",
			"GET /ws/chat":        "Conversational estimate over websocket",
			"GET /health":         "Health check",
		},
	})
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	services := map[string]string{
		"feature_extractor": readiness(h.Estimator != nil),
		"predictor":         readiness(h.Predictor != nil),
		"history":           "disabled",
	}
	if h.History != nil {
		services["history"] = "ready"
	}

	status, code := "healthy", http.StatusOK
	if h.Estimator == nil || h.Predictor == nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":        status,
		"services":      services,
		"provider":      h.Info.Provider,
		"model_version": h.Info.ModelVersion,
		"features":      h.Info.Features,
	})
}

func readiness(ok bool) string {
	if ok {
		return "ready"
	}
	return "unavailable"
}

func (h *handlers) estimate(w http.ResponseWriter, r *http.Request) {
	if h.Estimator == nil {
		writeUnavailable(w, "feature_extractor")
		return
	}

	var req estimateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := checkLength("job_description", req.JobDescription, minDescriptionLength, maxMessageLength); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid job description", err.Error())
		return
	}

	res, err := h.Estimator.Estimate(r.Context(), req.JobDescription)
	if err != nil {
		h.writeEstimateError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) predict(w http.ResponseWriter, r *http.Request) {
	if h.Predictor == nil {
		writeUnavailable(w, "predictor")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	var record features.Record
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&record); err != nil || record == nil {
		detail := "expected a JSON object"
		if err != nil {
			detail = err.Error()
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", detail)
		return
	}

	pred, err := h.Predictor.Predict(record)
	if err != nil {
		h.writeEstimateError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pred)
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	if h.Estimator == nil {
		writeUnavailable(w, "feature_extractor")
		return
	}

	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := checkLength("message", req.Message, 1, maxMessageLength); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid message", err.Error())
		return
	}

	resp, err := h.Estimator.Chat(r.Context(), req.Message)
	if err != nil {
		h.requestLogger(r).Error("chat failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Chat processing failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) listEstimates(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		writeError(w, http.StatusNotFound, "Estimate history is disabled", "")
		return
	}

	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", fmt.Sprintf("limit must be a positive integer, got %q", raw))
			return
		}
		limit = n
	}

	entries, err := h.History.List(r.Context(), limit)
	if err != nil {
		h.Logger.Error("list estimates failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list estimates", err.Error())
		return
	}
	if entries == nil {
		entries = []*history.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"estimates": entries, "count": len(entries)})
}

func (h *handlers) getEstimate(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		writeError(w, http.StatusNotFound, "Estimate history is disabled", "")
		return
	}

	entry, err := h.History.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Estimate not found", r.PathValue("id"))
		return
	}
	if err != nil {
		h.Logger.Error("get estimate failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load estimate", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *handlers) writeEstimateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case estimate.IsInputError(err):
		writeError(w, http.StatusBadRequest, "Invalid job features", err.Error())
	case estimate.IsUpstreamError(err):
		h.requestLogger(r).Warn("feature extraction failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Feature extraction failed", err.Error())
	default:
		h.requestLogger(r).Error("estimation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Estimation failed", err.Error())
	}
}

func (h *handlers) requestLogger(r *http.Request) *zap.Logger {
	return logger.WithRequest(h.Logger, RequestID(r.Context()))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func checkLength(field, value string, lo, hi int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case n < lo:
		return fmt.Errorf("%s must be at least %d characters", field, lo)
	case n > hi:
		return fmt.Errorf("%s must be at most %d characters", field, hi)
	}
	return nil
}

// writeJSON encodes v before writing the status so an unencodable value
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorResponse{Error: "Failed to encode response", Detail: err.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeUnavailable(w http.ResponseWriter, service string) {
	writeError(w, http.StatusServiceUnavailable, "Service not initialized", service+" is unavailable")
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg, Detail: detail})
}
