// Package http exposes the intake gate and the assessment engine over a
// JSON REST API.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kneez/intake/internal/engine"
	"github.com/kneez/intake/internal/intake"
	"github.com/kneez/intake/internal/logging"
	"github.com/kneez/intake/internal/tree"
	"github.com/kneez/intake/pkg/domain"
)

// Server holds the handlers' dependencies. Gate may be nil when the
// deployment has no NLU credentials; chat then answers 503 while the
// assessment endpoints keep working.
type Server struct {
	engine *engine.Engine
	trees  *tree.Registry
	gate   *intake.Gate
	logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGate enables the /chat endpoint.
func WithGate(g *intake.Gate) Option {
	return func(s *Server) {
		s.gate = g
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler builds the chi router for the API.
func NewHandler(eng *engine.Engine, trees *tree.Registry, opts ...Option) http.Handler {
	s := &Server{
		engine: eng,
		trees:  trees,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/health", s.health)
	r.Get("/assessment/tree", s.getTree)
	r.Post("/assessment/start", s.startAssessment)
	r.Post("/assessment/next", s.nextAssessment)
	r.Post("/chat", s.chat)

	return r
}

// cors allows browser clients to call the API directly.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"tree_versions": s.trees.Versions(),
		"chat_enabled":  s.gate != nil,
	})
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	t, err := s.trees.Tree(r.URL.Query().Get("version"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version": t.Version,
		"entry":   t.Entry,
		"nodes":   t.Nodes(),
	})
}

type startRequest struct {
	Version string `json:"version"`
}

type startResponse struct {
	SessionID string       `json:"session_id"`
	Version   string       `json:"version"`
	Node      *domain.Node `json:"node"`
}

func (s *Server) startAssessment(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	started, err := s.engine.Start(r.Context(), req.Version)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{
		SessionID: started.Session.ID,
		Version:   started.Session.TreeVersion,
		Node:      started.Node,
	})
}

type nextRequest struct {
	SessionID string        `json:"session_id"`
	Version   string        `json:"version"`
	Answer    domain.Answer `json:"answer"`
}

type nextResponse struct {
	SessionID string         `json:"session_id"`
	Node      *domain.Node   `json:"node"`
	Completed bool           `json:"completed"`
	Answers   map[string]any `json:"answers"`
}

func (s *Server) nextAssessment(w http.ResponseWriter, r *http.Request) {
	var req nextRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	advanced, err := s.engine.Advance(r.Context(), req.SessionID, req.Version, req.Answer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nextResponse{
		SessionID: advanced.SessionID,
		Node:      advanced.NextNode,
		Completed: advanced.Completed,
		Answers:   advanced.Answers,
	})
}

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type chatResponse struct {
	ConversationID string                  `json:"conversation_id"`
	Reply          string                  `json:"reply"`
	Intent         domain.UserIntent       `json:"intent,omitempty"`
	Entities       *domain.SymptomEntities `json:"entities,omitempty"`
	IntakeComplete bool                    `json:"intake_complete"`
	SessionID      string                  `json:"session_id,omitempty"`
	EntryNode      *domain.Node            `json:"entry_node,omitempty"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	if s.gate == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "chat is not configured on this deployment",
		})
		return
	}

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	result, err := s.gate.HandleTurn(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		ConversationID: result.ConversationID,
		Reply:          result.Reply,
		Intent:         result.Intent,
		Entities:       result.Entities,
		IntakeComplete: result.IntakeComplete,
		SessionID:      result.SessionID,
		EntryNode:      result.EntryNode,
	})
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// writeError maps domain errors onto HTTP status codes: validation 400,
// missing records 404, tree configuration 500, unavailable collaborators
// 503.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrConversationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrExtractorUnavailable), domain.IsUpstream(err):
		status = http.StatusServiceUnavailable
	case domain.IsTreeConfig(err):
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
