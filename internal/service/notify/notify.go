// Package notify delivers transient, user-facing outcome messages.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
	"github.com/heartmarshall/gradebook-backend/pkg/ctxutil"
)

// Func adapts a plain function to the notifier contract used by services.
type Func func(ctx context.Context, n domain.Notification)

// Notify calls f.
func (f Func) Notify(ctx context.Context, n domain.Notification) { f(ctx, n) }

// Recorder logs every notification and keeps the most recent ones in a
// bounded ring, newest last.
type Recorder struct {
	mu    sync.Mutex
	ring  []domain.Notification
	next  int
	full  bool
	clock clockwork.Clock
	log   *slog.Logger
}

// NewRecorder creates a Recorder holding at most size notifications.
func NewRecorder(log *slog.Logger, clock clockwork.Clock, size int) *Recorder {
	if size < 1 {
		size = 1
	}
	return &Recorder{
		ring:  make([]domain.Notification, size),
		clock: clock,
		log:   log.With("service", "notify"),
	}
}

// Notify records n. A zero At is stamped with the recorder's clock.
func (r *Recorder) Notify(ctx context.Context, n domain.Notification) {
	if n.At.IsZero() {
		n.At = r.clock.Now()
	}

	level := slog.LevelInfo
	if n.IsError() {
		level = slog.LevelWarn
	}
	attrs := []any{
		slog.String("title", n.Title),
		slog.String("description", n.Description),
	}
	if id, ok := ctxutil.SessionIDFromCtx(ctx); ok {
		attrs = append(attrs, slog.String("session_id", id.String()))
	}
	r.log.Log(ctx, level, "notification", attrs...)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ring[r.next] = n
	r.next = (r.next + 1) % len(r.ring)
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns the recorded notifications, oldest first.
func (r *Recorder) Recent() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]domain.Notification, r.next)
		copy(out, r.ring[:r.next])
		return out
	}

	out := make([]domain.Notification, 0, len(r.ring))
	out = append(out, r.ring[r.next:]...)
	out = append(out, r.ring[:r.next]...)
	return out
}
