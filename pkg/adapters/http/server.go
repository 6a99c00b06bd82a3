package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/bookflow"
	"github.com/aretw0/bookflow/internal/logging"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/scheduling"
	"github.com/aretw0/bookflow/pkg/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxBodyBytes caps the size of request bodies.
const MaxBodyBytes = 64 << 10

// Sessions is the session store the API works on. *session.Pool implements it.
type Sessions interface {
	Create(ctx context.Context) (*bookflow.Session, error)
	Get(ctx context.Context, sessionID string) (*bookflow.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// Server serves the booking wizard over HTTP.
type Server struct {
	engine   *bookflow.Engine
	sessions Sessions
	metrics  http.Handler
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler of the booking API.
func NewHandler(engine *bookflow.Engine, sessions Sessions, opts ...Option) http.Handler {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/services", s.ListServices)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Put("/fields/{field}", s.SetField)
			r.Put("/date", s.SelectDate)
			r.Put("/slot", s.SelectSlot)
			r.Post("/advance", s.Advance)
			r.Post("/retreat", s.Retreat)
			r.Post("/submit", s.Submit)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "bookflow-http",
		"version": strings.TrimSpace(bookflow.Version),
		"tenant":  s.engine.Tenant,
	})
}

// ListServices handles GET /services.
func (s *Server) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.engine.Services(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, services)
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("session created", "session_id", sess.ID())
	s.writeJSON(w, http.StatusCreated, NewSessionView(sess))
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *bookflow.Session) error { return nil })
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValueRequest is the body of PUT /fields/{field} and PUT /date.
type ValueRequest struct {
	Value string `json:"value"`
}

// SlotRequest is the body of PUT /slot.
type SlotRequest struct {
	StartTime string `json:"start_time"`
}

// SetField handles PUT /sessions/{sessionID}/fields/{field}.
func (s *Server) SetField(w http.ResponseWriter, r *http.Request) {
	var body ValueRequest
	if !s.decode(w, r, &body) {
		return
	}
	key := domain.FieldKey(chi.URLParam(r, "field"))
	s.withSession(w, r, func(sess *bookflow.Session) error {
		return sess.SetFieldValue(r.Context(), key, body.Value)
	})
}

// SelectDate handles PUT /sessions/{sessionID}/date.
func (s *Server) SelectDate(w http.ResponseWriter, r *http.Request) {
	var body ValueRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.withSession(w, r, func(sess *bookflow.Session) error {
		return sess.SelectDate(r.Context(), body.Value)
	})
}

// SelectSlot handles PUT /sessions/{sessionID}/slot.
func (s *Server) SelectSlot(w http.ResponseWriter, r *http.Request) {
	var body SlotRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.withSession(w, r, func(sess *bookflow.Session) error {
		return sess.SelectSlot(r.Context(), body.StartTime)
	})
}

// Advance handles POST /sessions/{sessionID}/advance.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *bookflow.Session) error {
		return sess.Advance(r.Context())
	})
}

// Retreat handles POST /sessions/{sessionID}/retreat.
func (s *Server) Retreat(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *bookflow.Session) error {
		return sess.Retreat(r.Context())
	})
}

// Submit handles POST /sessions/{sessionID}/submit.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *bookflow.Session) error {
		return sess.Submit(r.Context())
	})
}

// withSession loads the session, applies fn and answers with the resulting view.
// When fn fails, the error body also carries the view so clients can show field errors.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*bookflow.Session) error) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := fn(sess); err != nil {
		s.writeErrorWithView(w, r, err, NewSessionView(sess))
		return
	}
	s.writeJSON(w, http.StatusOK, NewSessionView(sess))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_body", Message: err.Error()})
		return false
	}
	return true
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string                              `json:"error"`
	Message string                              `json:"message,omitempty"`
	Step    string                              `json:"step,omitempty"`
	Fields  map[domain.FieldKey]domain.ErrorCode `json:"fields,omitempty"`
	Session *SessionView                        `json:"session,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorWithView(w, r, err, nil)
}

func (s *Server) writeErrorWithView(w http.ResponseWriter, r *http.Request, err error, view *SessionView) {
	status, resp := classify(err)
	resp.Session = view
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "code", resp.Error, "err", err)
	}
	s.writeJSON(w, status, resp)
}

func classify(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Message: err.Error()}

	var blocked *bookflow.StepBlockedError
	var sched *scheduling.Error
	var submit *bookflow.SubmissionError

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		resp.Error = "session_not_found"
		return http.StatusNotFound, resp
	case errors.As(err, &blocked):
		resp.Error = "step_blocked"
		resp.Step = blocked.Step.String()
		resp.Fields = blocked.Errors
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &sched):
		resp.Error = string(sched.Code)
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, domain.ErrNotSubmittable):
		resp.Error = "not_submittable"
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, domain.ErrUnknownField):
		resp.Error = "unknown_field"
		return http.StatusBadRequest, resp
	case errors.Is(err, validation.ErrInputTooLarge), errors.Is(err, validation.ErrInvalidUTF8):
		resp.Error = "invalid_input"
		return http.StatusBadRequest, resp
	case errors.Is(err, domain.ErrSubmitInProgress):
		resp.Error = "submit_in_progress"
		return http.StatusConflict, resp
	case errors.Is(err, domain.ErrAlreadySubmitted):
		resp.Error = "already_submitted"
		return http.StatusConflict, resp
	case errors.Is(err, bookflow.ErrNoNextStep), errors.Is(err, bookflow.ErrNoPreviousStep):
		resp.Error = "no_step"
		return http.StatusConflict, resp
	case errors.Is(err, bookflow.ErrSchedulingUnavailable):
		resp.Error = "scheduling_unavailable"
		return http.StatusConflict, resp
	case errors.As(err, &submit):
		resp.Error = "submit_failed"
		return http.StatusBadGateway, resp
	}
	resp.Error = "internal"
	return http.StatusInternalServerError, resp
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
