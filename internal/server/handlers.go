package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fjacquet/camt-recon/internal/dateutils"
	"fjacquet/camt-recon/internal/importer"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconciler"
	"fjacquet/camt-recon/internal/reconerror"

	"github.com/go-chi/chi/v5"
)

// defaultLookback bounds report and statistics queries without an explicit start.
const defaultLookback = 30 * dateutils.Day

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.HealthCheck(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "camt-recon"})
}

func (s *Server) handleImportStatement(w http.ResponseWriter, r *http.Request) {
	var in importer.StatementInput
	if !s.decode(w, r, &in) {
		return
	}
	stmt, err := s.importer.ImportStatement(r.Context(), in)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, stmt)
}

func (s *Server) handleImportPayments(w http.ResponseWriter, r *http.Request) {
	var payments []models.Payment
	if !s.decode(w, r, &payments) {
		return
	}
	for i := range payments {
		if payments[i].Status == "" {
			payments[i].Status = models.PaymentPending
		}
	}
	if err := s.importer.ImportPayments(r.Context(), payments); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]int{"imported": len(payments)})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := s.reconciler.ProcessStatement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from, err := queryDate(r, "from", now.Add(-defaultLookback))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	to, err := queryDate(r, "to", now)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	reports, err := s.reconciler.ListReports(r.Context(), models.Period{Start: from, End: to})
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleListExceptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ExceptionFilter{
		StatementID: q.Get("statement_id"),
		Status:      models.ExceptionStatus(q.Get("status")),
		Severity:    models.ExceptionSeverity(q.Get("severity")),
		Type:        models.ExceptionType(q.Get("type")),
	}
	exceptions, err := s.reconciler.ListExceptions(r.Context(), filter)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exceptions)
}

func (s *Server) handleCreateException(w http.ResponseWriter, r *http.Request) {
	var in reconciler.ExceptionInput
	if !s.decode(w, r, &in) {
		return
	}
	exc, err := s.reconciler.CreateException(r.Context(), in, actor(r))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, exc)
}

type noteRequest struct {
	Resolution string `json:"resolution"`
	Reason     string `json:"reason"`
}

func (s *Server) handleResolveException(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !s.decode(w, r, &req) {
		return
	}
	exc, err := s.reconciler.ResolveException(r.Context(), chi.URLParam(r, "id"), req.Resolution, actor(r))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exc)
}

func (s *Server) handleInvestigateException(w http.ResponseWriter, r *http.Request) {
	exc, err := s.reconciler.InvestigateException(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exc)
}

func (s *Server) handleIgnoreException(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !s.decode(w, r, &req) {
		return
	}
	exc, err := s.reconciler.IgnoreException(r.Context(), chi.URLParam(r, "id"), req.Reason, actor(r))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exc)
}

type manualMatchRequest struct {
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
}

func (s *Server) handleManualMatch(w http.ResponseWriter, r *http.Request) {
	var req manualMatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	mm, err := s.reconciler.CreateManualMatch(r.Context(), req.PaymentID, req.TransactionID, actor(r))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, mm)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	since, err := queryDate(r, "since", time.Now().UTC().Add(-defaultLookback))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	stats, err := s.reconciler.Statistics(r.Context(), since)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func actor(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(ActorHeader))
}

func queryDate(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	t, _, err := dateutils.ParseDate(raw)
	if err != nil {
		return time.Time{}, &reconerror.InputError{Field: key, Reason: err.Error()}
	}
	return t.UTC(), nil
}

// decode reads a JSON body. An empty body leaves v untouched.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed request body: %v", err))
		return false
	}
	return true
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, reconerror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reconerror.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, reconerror.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("Request failed")
	}
	s.writeError(w, status, err.Error())
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Error("Failed to encode JSON response", logging.F("status", status))
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
