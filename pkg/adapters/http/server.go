package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/tgdialogs"
	"github.com/aretw0/tgdialogs/internal/logging"
	"github.com/aretw0/tgdialogs/pkg/domain"
)

// SecretHeader carries the secret token configured with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// DefaultPath is where Telegram posts updates unless configured otherwise.
const DefaultPath = "/telegram/webhook"

// UpdateHandler consumes decoded updates.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u *domain.Update) error
}

// UpdateHandlerFunc adapts a function to UpdateHandler.
type UpdateHandlerFunc func(ctx context.Context, u *domain.Update) error

func (f UpdateHandlerFunc) HandleUpdate(ctx context.Context, u *domain.Update) error {
	return f(ctx, u)
}

// Server receives webhook calls.
type Server struct {
	Handler UpdateHandler

	path    string
	secret  string
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithPath sets the webhook path.
func WithPath(path string) Option {
	return func(s *Server) {
		if path != "" {
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			s.path = path
		}
	}
}

// WithSecret rejects webhook calls whose secret header does not match.
func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

// WithMetrics mounts a metrics handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewHandler creates the HTTP handler serving the webhook and the service endpoints.
func NewHandler(h UpdateHandler, opts ...Option) http.Handler {
	s := &Server{
		Handler: h,
		path:    DefaultPath,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post(s.path, s.Webhook)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Webhook handles the POST request Telegram sends for every update.
// Processing errors are logged and acknowledged with 200, since Telegram would
// otherwise redeliver the same update indefinitely.
func (s *Server) Webhook(w http.ResponseWriter, r *http.Request) {
	if s.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			http.Error(w, "Invalid secret token", http.StatusUnauthorized)
			s.logger.Warn("Webhook: invalid secret token", "remote", r.RemoteAddr)
			return
		}
	}

	var u domain.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, "Invalid update body", http.StatusBadRequest)
		s.logger.Warn("Webhook: invalid update body", "err", err)
		return
	}

	if err := s.Handler.HandleUpdate(r.Context(), &u); err != nil {
		s.logger.Error("Webhook: update handling failed", "update_id", u.UpdateID, "err", err)
	}
	w.WriteHeader(http.StatusOK)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{
		"app":     "tgdialogs",
		"version": strings.TrimSpace(tgdialogs.Version),
		"webhook": s.path,
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
