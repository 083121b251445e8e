// Package http exposes railchat conversations over HTTP, server-sent events and
// websockets.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/railchat"
	"github.com/aretw0/railchat/internal/logging"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
	"github.com/aretw0/railchat/pkg/runner"
)

//go:embed openapi.yaml
var openapiSpec []byte

// DefaultRequestTimeout bounds a single turn request.
const DefaultRequestTimeout = 30 * time.Second

// Sessions is the conversation store driven by the server. *session.Manager satisfies it.
type Sessions interface {
	runner.Sessions
	Reset(ctx context.Context, sessionID string) (*domain.TurnResult, error)
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// Server serves the conversation API.
type Server struct {
	Sessions  Sessions
	Extractor ports.Extractor
	Streams   *StreamManager

	logger   *slog.Logger
	origins  []string
	gatherer prometheus.Gatherer
	timeout  time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request logs and handler errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCORSOrigins sets the allowed CORS and websocket origins. Empty allows all.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMetrics serves the gatherer on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithRequestTimeout bounds turn requests. Streams are not bounded.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// NewServer creates a Server.
func NewServer(sessions Sessions, extractor ports.Extractor, opts ...Option) *Server {
	s := &Server{
		Sessions:  sessions,
		Extractor: extractor,
		Streams:   NewStreamManager(),
		logger:    logging.NewNop(),
		timeout:   DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates the HTTP handler for the conversation API.
func NewHandler(sessions Sessions, extractor ports.Extractor, opts ...Option) http.Handler {
	return NewServer(sessions, extractor, opts...).Router()
}

// Router builds the chi router with all routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/ws", s.Chat)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Get("/{id}/events", s.SubscribeEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.timeout))
			r.Get("/", s.ListSessions)
			r.Get("/{id}", s.GetSession)
			r.Delete("/{id}", s.DeleteSession)
			r.Post("/{id}/messages", s.SendMessage)
			r.Post("/{id}/turns", s.RunTurn)
			r.Post("/{id}/reset", s.ResetSession)
		})
	})
	return r
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>railchat API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

type messageRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SendMessage handles POST /v1/sessions/{id}/messages.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body messageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	res, err := runner.Respond(r.Context(), s.Sessions, s.Extractor, id, body.Text)
	if err != nil {
		s.fail(w, "SendMessage", id, err)
		return
	}
	s.publish(id, res)
	s.writeJSON(w, http.StatusOK, res)
}

// RunTurn handles POST /v1/sessions/{id}/turns with an already extracted message.
func (s *Server) RunTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ex, err := domain.DecodeExtraction(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.Sessions.Handle(r.Context(), id, ex)
	if err != nil {
		s.fail(w, "RunTurn", id, err)
		return
	}
	s.publish(id, res)
	s.writeJSON(w, http.StatusOK, res)
}

// ResetSession handles POST /v1/sessions/{id}/reset.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := s.Sessions.Reset(r.Context(), id)
	if err != nil {
		s.fail(w, "ResetSession", id, err)
		return
	}
	s.publish(id, res)
	s.writeJSON(w, http.StatusOK, res)
}

// GetSession handles GET /v1/sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		s.fail(w, "GetSession", id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.fail(w, "DeleteSession", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSessions handles GET /v1/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", "", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "railchat-http",
		"version":     strings.TrimSpace(railchat.Version),
		"api_version": APIVersion(),
	})
}

// APIVersion returns the version declared by the embedded OpenAPI document.
func APIVersion() string {
	doc, err := openapi3.NewLoader().LoadFromData(openapiSpec)
	if err != nil || doc.Info == nil {
		return "unknown"
	}
	return doc.Info.Version
}

// fail maps engine and storage errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, op, sessionID string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, runner.ErrInputTooLarge):
		s.writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, runner.ErrInvalidUTF8):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(op+" failed", "session_id", sessionID, "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s error: %v", op, err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) publish(sessionID string, res *domain.TurnResult) {
	if b, err := json.Marshal(res); err == nil {
		s.Streams.Broadcast(sessionID, string(b))
	}
}
