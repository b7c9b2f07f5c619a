package httpapi

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"

	"note_ingest/internal/domain"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid body"))
		return
	}

	jobID, err := s.submitter.Submit(r.Context(), bearerToken(r), body)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "processing", "jobId": jobID})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody("Unauthorized"))
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid body"))
	default:
		s.logger.Error("failed to start processing", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to start processing"))
	}
}

type callbackResponse struct {
	Received  bool   `json:"received,omitempty"`
	Saved     bool   `json:"saved,omitempty"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
	SavedStub *bool  `json:"savedStub,omitempty"`
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
		return
	}

	if s.callbackToken != "" {
		token := r.URL.Query().Get("token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.callbackToken)) != 1 {
			s.logger.Warn("callback with bad token rejected", "remote", r.RemoteAddr)
			writeJSON(w, http.StatusUnauthorized, errorBody("Unauthorized"))
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid payload"))
		return
	}

	payload, err := domain.ParseCallbackPayload(body)
	if err != nil {
		s.logger.Warn("malformed callback payload", "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid payload"))
		return
	}

	writeJSON(w, http.StatusOK, callbackBody(s.processor.Process(r.Context(), payload)))
}

func callbackBody(result domain.CallbackResult) callbackResponse {
	if result.Fallback {
		saved := result.Outcome == domain.OutcomeStubRecorded
		return callbackResponse{Error: "Internal Server Error", SavedStub: &saved}
	}
	if result.Outcome == domain.OutcomeRecorded {
		return callbackResponse{Received: true, Saved: true, Path: result.Path}
	}
	return callbackResponse{Received: true}
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
		return
	}

	report, err := s.jobs.Lookup(r.Context(), bearerToken(r), r.PathValue("id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody("Unauthorized"))
	case errors.Is(err, domain.ErrJobNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("Job not found"))
	default:
		s.logger.Error("failed to load job", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to load job"))
	}
}

func bearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}
