// Package http exposes assessment runs over a REST surface. Each run is held
// in memory while live and persisted through a session manager on save or
// completion, so a host can resume interrupted runs across restarts.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/BiAffectBridge/cairn"
	"github.com/BiAffectBridge/cairn/internal/logging"
	"github.com/BiAffectBridge/cairn/pkg/domain"
	"github.com/BiAffectBridge/cairn/pkg/ports"
	"github.com/BiAffectBridge/cairn/pkg/session"
)

// Server hosts assessment runs over HTTP.
type Server struct {
	engine   *cairn.Engine
	sessions *session.Manager
	logger   *slog.Logger
	metrics  *metrics

	mu   sync.Mutex
	runs map[string]*liveRun
}

// liveRun is an in-flight run plus its controller. The per-run mutex
// serializes transitions; the engine itself is not safe for concurrent use
// on a single run.
type liveRun struct {
	mu           sync.Mutex
	assessmentID string
	root         ports.RootNodeState
	ctrl         *hostController
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger used by the handlers.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an HTTP host over the given engine and session manager.
func NewServer(engine *cairn.Engine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		logger:   logging.NewNop(),
		metrics:  newMetrics(),
		runs:     make(map[string]*liveRun),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine *cairn.Engine, sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(engine, sessions, opts...).Handler()
}

// Handler builds the chi router for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/assessments", s.listAssessments)
	r.Handle("/metrics", s.metrics.handler())

	r.Post("/runs", s.createRun)
	r.Get("/runs", s.listRuns)
	r.Get("/runs/{runID}", s.getRun)
	r.Post("/runs/{runID}/forward", s.goForward)
	r.Post("/runs/{runID}/back", s.goBack)
	r.Post("/runs/{runID}/save", s.saveRun)
	r.Delete("/runs/{runID}", s.discardRun)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Request / response shapes --

type createRunRequest struct {
	AssessmentID string `json:"assessment_id"`
	// ResumeRunID restores a previously saved run instead of starting a
	// fresh one.
	ResumeRunID string `json:"resume_run_id,omitempty"`
}

type forwardRequest struct {
	Answer any `json:"answer,omitempty"`
}

type nodeView struct {
	Identifier    string            `json:"identifier"`
	Kind          string            `json:"type"`
	Title         string            `json:"title,omitempty"`
	Subtitle      string            `json:"subtitle,omitempty"`
	Detail        string            `json:"detail,omitempty"`
	InputType     string            `json:"input_type,omitempty"`
	InputOptions  []string          `json:"input_options,omitempty"`
	Optional      bool              `json:"optional,omitempty"`
	Buttons       map[string]string `json:"buttons,omitempty"`
	HiddenButtons []string          `json:"hidden_buttons,omitempty"`
	Answer        any               `json:"answer,omitempty"`
}

type runView struct {
	RunID        string                    `json:"run_id"`
	AssessmentID string                    `json:"assessment_id"`
	Finished     bool                      `json:"finished"`
	Reason       domain.FinishedReason     `json:"reason,omitempty"`
	Node         *nodeView                 `json:"node,omitempty"`
	Progress     *domain.Progress          `json:"progress,omitempty"`
	CanGoBack    bool                      `json:"can_go_back"`
	Request      *domain.TransitionRequest `json:"request,omitempty"`
	Result       *domain.Result            `json:"result,omitempty"`
}

func (s *Server) viewOf(run *liveRun) runView {
	v := runView{
		RunID:        run.root.RunID(),
		AssessmentID: run.assessmentID,
		Finished:     run.ctrl.finished,
		Reason:       run.ctrl.reason,
	}
	if run.ctrl.finished {
		v.Result = run.root.Result().Clone()
		return v
	}
	if state := run.ctrl.current; state != nil {
		node := state.Node()
		nv := &nodeView{
			Identifier:    node.Identifier,
			Kind:          node.Kind,
			Title:         node.Title,
			Subtitle:      node.Subtitle,
			Detail:        node.Detail,
			InputType:     node.InputType,
			InputOptions:  node.InputOptions,
			Optional:      node.Optional,
			Buttons:       node.Buttons,
			HiddenButtons: node.HiddenButtons,
		}
		if q, ok := state.(ports.QuestionState); ok {
			nv.Answer = q.Answer()
		}
		v.Node = nv
		if parent := state.Parent(); parent != nil {
			v.Progress = parent.Progress()
			v.CanGoBack = parent.AllowBackNavigation()
		}
	}
	v.Request = run.ctrl.pending
	return v
}

// -- Handlers --

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var body createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("createRun: invalid request body", "err", err)
		return
	}
	if body.AssessmentID == "" {
		http.Error(w, "assessment_id is required", http.StatusBadRequest)
		return
	}

	ctrl := &hostController{}
	var (
		root ports.RootNodeState
		err  error
	)
	if body.ResumeRunID != "" {
		var saved *domain.Result
		saved, err = s.sessions.Load(r.Context(), body.ResumeRunID)
		if err == nil {
			root, err = s.engine.Restore(r.Context(), body.AssessmentID, saved, ctrl)
		}
	} else {
		root, err = s.engine.Start(r.Context(), body.AssessmentID, ctrl)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrAssessmentNotFound) || errors.Is(err, domain.ErrRunNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, fmt.Sprintf("Start error: %v", err), status)
		s.logger.Error("createRun failed", "assessment", body.AssessmentID, "err", err)
		return
	}

	run := &liveRun{assessmentID: body.AssessmentID, root: root, ctrl: ctrl}
	s.mu.Lock()
	s.runs[root.RunID()] = run
	s.mu.Unlock()
	s.metrics.activeRuns.Inc()
	s.metrics.transitions.WithLabelValues(string(domain.DirectionForward)).Inc()

	s.logger.Info("run created", "run_id", root.RunID(), "assessment", body.AssessmentID)
	writeJSON(w, http.StatusCreated, s.viewOf(run))
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) *liveRun {
	runID := chi.URLParam(r, "runID")
	s.mu.Lock()
	run, ok := s.runs[runID]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "Run not found", http.StatusNotFound)
		return nil
	}
	return run
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	writeJSON(w, http.StatusOK, s.viewOf(run))
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	live := make([]string, 0, len(s.runs))
	for id := range s.runs {
		live = append(live, id)
	}
	s.mu.Unlock()

	saved, err := s.sessions.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("listRuns failed", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"live": live, "saved": saved})
}

func (s *Server) goForward(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}

	var body forwardRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("goForward: invalid request body", "err", err)
			return
		}
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	if body.Answer != nil {
		q, ok := run.ctrl.current.(ports.QuestionState)
		if !ok {
			http.Error(w, "Current node does not accept an answer", http.StatusUnprocessableEntity)
			return
		}
		q.SetAnswer(body.Answer)
	}

	if err := run.ctrl.current.GoForward(r.Context(), nil); err != nil {
		s.transitionError(w, run, err, "goForward")
		return
	}
	s.metrics.transitions.WithLabelValues(string(domain.DirectionForward)).Inc()
	s.afterTransition(w, r, run)
}

func (s *Server) goBack(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	if err := run.ctrl.current.GoBackward(r.Context(), nil); err != nil {
		s.transitionError(w, run, err, "goBack")
		return
	}
	s.metrics.transitions.WithLabelValues(string(domain.DirectionBackward)).Inc()
	s.afterTransition(w, r, run)
}

func (s *Server) transitionError(w http.ResponseWriter, run *liveRun, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrAnswerRequired):
		http.Error(w, "An answer is required before moving forward", http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrNoPreviousNode):
		http.Error(w, "There is no previous node", http.StatusConflict)
	case errors.Is(err, domain.ErrRunFinished):
		http.Error(w, "Run already finished", http.StatusConflict)
	default:
		http.Error(w, fmt.Sprintf("Transition error: %v", err), http.StatusInternalServerError)
		s.logger.Error("transition failed", "op", op, "run_id", run.root.RunID(), "err", err)
	}
}

// afterTransition persists and unregisters the run when the transition
// turned out to be terminal, then writes the current view.
func (s *Server) afterTransition(w http.ResponseWriter, r *http.Request, run *liveRun) {
	view := s.viewOf(run)
	if run.ctrl.finished {
		s.retire(r, run, run.ctrl.reason)
	}
	writeJSON(w, http.StatusOK, view)
}

// retire removes the run from the live table and persists or deletes the
// saved result depending on the finish reason.
func (s *Server) retire(r *http.Request, run *liveRun, reason domain.FinishedReason) {
	runID := run.root.RunID()
	s.mu.Lock()
	delete(s.runs, runID)
	s.mu.Unlock()
	s.metrics.activeRuns.Dec()
	s.metrics.finished.WithLabelValues(string(reason)).Inc()

	switch reason {
	case domain.ReasonDiscarded:
		if err := s.sessions.Delete(r.Context(), runID); err != nil && !errors.Is(err, domain.ErrRunNotFound) {
			s.logger.Warn("failed to delete saved run", "run_id", runID, "err", err)
		}
	default:
		if err := s.sessions.Save(r.Context(), runID, run.root.Result()); err != nil {
			s.logger.Error("failed to persist run result", "run_id", runID, "err", err)
		}
	}
	s.logger.Info("run finished", "run_id", runID, "reason", reason)
}

func (s *Server) saveRun(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	if err := run.root.Close(r.Context(), domain.ReasonSaveProgress); err != nil {
		s.transitionError(w, run, err, "saveRun")
		return
	}
	view := s.viewOf(run)
	s.retire(r, run, domain.ReasonSaveProgress)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) discardRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	s.mu.Lock()
	run, live := s.runs[runID]
	s.mu.Unlock()

	if live {
		run.mu.Lock()
		defer run.mu.Unlock()
		if err := run.root.Close(r.Context(), domain.ReasonDiscarded); err != nil {
			s.transitionError(w, run, err, "discardRun")
			return
		}
		s.retire(r, run, domain.ReasonDiscarded)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// Not live: remove any persisted copy.
	if err := s.sessions.Delete(r.Context(), runID); err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		s.logger.Error("discardRun failed", "run_id", runID, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listAssessments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("listAssessments failed", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"assessments": ids})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "cairn-http",
		"version": strings.TrimSpace(cairn.Version),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
