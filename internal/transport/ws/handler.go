// Package ws streams live dashboard snapshots over websockets.
//
// Every connection is its own gradebook context: it gets a private service
// with its own caches and change subscriptions, which are disposed when the
// connection goes away.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
	"github.com/heartmarshall/gradebook-backend/internal/service/gradebook"
	"github.com/heartmarshall/gradebook-backend/internal/service/notify"
	"github.com/heartmarshall/gradebook-backend/internal/service/stats"
)

// Session is the gradebook view a connection owns.
type Session interface {
	Open(ctx context.Context) error
	Close()
	Dashboard(recent int) stats.Summary
}

// SessionFactory builds a Session for one connection. opts.OnChange and the
// notifier are wired to the connection by the handler.
type SessionFactory func(opts gradebook.Options, notifier notify.Func) Session

// Config tunes the dashboard stream.
type Config struct {
	Recent         int           // latest grades per snapshot
	WriteTimeout   time.Duration // per message
	PingInterval   time.Duration
	AllowedOrigins string // comma separated, "*" allows any
}

// Handler upgrades GET /ws/dashboard and runs one session per connection.
type Handler struct {
	newSession SessionFactory
	recorder   notifier
	cfg        Config
	upgrader   websocket.Upgrader
	clock      clockwork.Clock
	log        *slog.Logger
}

type notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// NewHandler creates a Handler. Every notification a session raises is also
// passed to recorder.
func NewHandler(newSession SessionFactory, recorder notifier, clock clockwork.Clock, cfg Config, logger *slog.Logger) *Handler {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}

	h := &Handler{
		newSession: newSession,
		recorder:   recorder,
		cfg:        cfg,
		clock:      clock,
		log:        logger.With("handler", "ws"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// ServeHTTP handles GET /ws/dashboard.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.WarnContext(r.Context(), "upgrade failed", slog.String("error", err.Error()))
		return
	}

	s := newSession(conn, h)
	s.run(r.Context())
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, a := range strings.Split(h.cfg.AllowedOrigins, ",") {
		a = strings.TrimSpace(a)
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
