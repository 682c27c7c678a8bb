package service

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/home-assistant-blueprints/sun2-go/internal/errors"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// NewRouter returns the HTTP handler exposing the service calls as JSON
// endpoints.
func NewRouter(s *Services, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/services/get_location", s.handleGetLocation)
	mux.HandleFunc("POST /api/services/update_location", s.handleUpdateLocation)
	mux.HandleFunc("POST /api/services/reload", s.handleReload)
	return loggingMiddleware(log.Named("http"), mux)
}

func (s *Services) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	var req types.GetLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.ErrInvalidArgument("invalid request body: "+err.Error()))
		return
	}
	resp, err := s.GetLocation(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Services) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.ErrInvalidArgument("invalid request body: "+err.Error()))
		return
	}
	if err := s.UpdateLocation(req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Services) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps typed errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetType(err) {
	case errors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusWriter records the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)))
	})
}
