// Package server exposes the voice pipeline over HTTP: a websocket endpoint
// for audio streaming, health probes, and a Prometheus metrics endpoint.
//
// The websocket protocol mirrors the browser client: the client streams raw
// PCM16 audio as binary messages and JSON control messages as text; the
// server answers with JSON events and WAV clips as binary messages.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wiredbrain/axiom/internal/health"
	"github.com/wiredbrain/axiom/internal/observe"
	"github.com/wiredbrain/axiom/internal/pipeline"
)

// maxMessageBytes bounds a single websocket message. One second of 16 kHz
// PCM16 audio is 32 KiB; clients chunk well below that, but leave headroom.
const maxMessageBytes = 1 << 20

// Session is the per-connection pipeline surface the server drives.
// [pipeline.Session] satisfies it.
type Session interface {
	HandleAudio(ctx context.Context, data []byte)
	HandleControl(ctx context.Context, raw []byte)
	Close()
}

// SessionFactory builds a session bound to one client connection. The sink
// is the connection's write half.
type SessionFactory func(sink pipeline.Sink) (Session, error)

// Server routes websocket, health, and metrics traffic.
type Server struct {
	newSession SessionFactory
	health     *health.Handler
	metrics    *observe.Metrics
	log        *slog.Logger
	origins    []string
}

// Option configures a [Server].
type Option func(*Server)

// WithHealth installs the health handler serving /healthz and /readyz.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetrics sets the metrics instance used for request and session
// instrumentation. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithOriginPatterns sets the allowed websocket origins. Without it only
// same-host origins are accepted.
func WithOriginPatterns(patterns []string) Option {
	return func(s *Server) { s.origins = patterns }
}

// New creates a Server that builds one session per websocket connection.
func New(factory SessionFactory, opts ...Option) *Server {
	s := &Server{newSession: factory}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Handler returns the full HTTP handler: /ws, health probes, and /metrics,
// wrapped in the request metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.health != nil {
		s.health.Register(mux)
	}
	return observe.Middleware(s.metrics)(mux)
}

// handleWS upgrades the connection and pumps messages into a fresh session
// until the client disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.log.Warn("websocket accept failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "session terminated")
	conn.SetReadLimit(maxMessageBytes)

	sess, err := s.newSession(&wsSink{conn: conn})
	if err != nil {
		s.log.Error("session setup failed", slog.String("error", err.Error()))
		conn.Close(websocket.StatusInternalError, "session setup failed")
		return
	}
	defer sess.Close()

	ctx := r.Context()
	s.metrics.ActiveSessions.Add(ctx, 1)
	defer s.metrics.ActiveSessions.Add(context.Background(), -1)

	remote := r.RemoteAddr
	s.log.Info("session connected", slog.String("remote", remote))

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				errors.Is(err, context.Canceled) {
				s.log.Info("session disconnected", slog.String("remote", remote))
			} else {
				s.log.Warn("session read failed",
					slog.String("remote", remote),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		switch typ {
		case websocket.MessageBinary:
			sess.HandleAudio(ctx, data)
		case websocket.MessageText:
			sess.HandleControl(ctx, data)
		}
	}
}
