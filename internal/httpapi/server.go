// Package httpapi exposes the ingest pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"note_ingest/internal/domain"
	"note_ingest/internal/service"
)

const maxBodyBytes = 1 << 20

type Submitter interface {
	Submit(ctx context.Context, credential string, body []byte) (string, error)
}

type CallbackProcessor interface {
	Process(ctx context.Context, payload domain.CallbackPayload) domain.CallbackResult
}

type JobLookup interface {
	Lookup(ctx context.Context, credential, jobID string) (*service.JobReport, error)
}

type Config struct {
	// CallbackToken, when set, must match the token query parameter of every callback.
	CallbackToken string
}

type Server struct {
	submitter     Submitter
	processor     CallbackProcessor
	jobs          JobLookup
	callbackToken string
	logger        *slog.Logger
}

// NewServer wires the handlers. jobs may be nil, which leaves the job
// lookup route unregistered.
func NewServer(submitter Submitter, processor CallbackProcessor, jobs JobLookup, logger *slog.Logger, cfg Config) *Server {
	return &Server{
		submitter:     submitter,
		processor:     processor,
		jobs:          jobs,
		callbackToken: cfg.CallbackToken,
		logger:        logger.With("component", "http"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/api/ingest", s.handleIngest)
	mux.HandleFunc("/api/callback", s.handleCallback)
	if s.jobs != nil {
		mux.HandleFunc("/api/jobs/{id}", s.handleJob)
	}

	return s.logRequest(mux)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", requestID,
		)
	})
}
