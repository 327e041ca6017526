// Package server is the HTTP chat boundary. It owns request decoding and
// status mapping; all command semantics live in the engine.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "ledgerchat/internal/common/errors"
	"ledgerchat/internal/common/logger"
	"ledgerchat/internal/engine"
	"ledgerchat/internal/engine/action"
)

// maxChatBody caps the request body; chat inputs are single sentences.
const maxChatBody = 4 << 10

// Handler is the engine surface the server needs. Narrowed to an interface
// so tests can substitute a stub.
type Handler interface {
	Handle(ctx context.Context, text string, now time.Time) action.Result
}

// Pinger reports backing-service health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the chat, health, and metrics routes.
type Server struct {
	handler Handler
	pingers map[string]Pinger
	logger  logger.Logger
	now     func() time.Time
}

var _ Handler = (*engine.Engine)(nil)

// New builds the server. pingers keys appear in the health response.
func New(h Handler, pingers map[string]Pinger, log logger.Logger) *Server {
	return &Server{handler: h, pingers: pingers, logger: log, now: time.Now}
}

// Routes returns the route table as an http.Handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

type chatRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
		return
	}

	var req chatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "text is required"})
		return
	}

	res := s.handler.Handle(r.Context(), req.Text, s.now())
	status := http.StatusOK
	if res.ErrKind != "" {
		status = apperrors.HTTPStatus(res.ErrKind)
	}
	if status >= http.StatusInternalServerError {
		// The Result message is already user-safe; detail carries only the
		// error kind for log correlation, never store error text.
		writeJSON(w, status, map[string]string{
			"message": res.Message,
			"detail":  string(res.ErrKind),
		})
		return
	}
	writeJSON(w, status, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.pingers))
	for name, p := range s.pingers {
		if err := p.Ping(ctx); err != nil {
			s.logger.WithError(err).Warn("health check failed", map[string]interface{}{
				"dependency": name,
			})
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": http.StatusText(status),
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
