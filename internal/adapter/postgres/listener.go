package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

type publisher interface {
	Publish(evt domain.ChangeEvent)
}

// notificationConn is the part of *pgx.Conn the listener needs.
type notificationConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// ListenerConfig configures a Listener.
type ListenerConfig struct {
	Channel        string
	Tables         []string // tables that receive a RESYNC after each (re)connect
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// Listener turns PostgreSQL NOTIFY payloads on one channel into change events.
type Listener struct {
	dial  func(ctx context.Context) (notificationConn, error)
	pub   publisher
	cfg   ListenerConfig
	clock clockwork.Clock
	log   *slog.Logger

	connected atomic.Bool
}

// NewListener creates a Listener that takes a dedicated connection from pool.
func NewListener(log *slog.Logger, pool *pgxpool.Pool, pub publisher, clock clockwork.Clock, cfg ListenerConfig) *Listener {
	return &Listener{
		dial: func(ctx context.Context) (notificationConn, error) {
			c, err := pool.Acquire(ctx)
			if err != nil {
				return nil, err
			}
			// The connection keeps LISTEN state; it never goes back to the pool.
			return c.Hijack(), nil
		},
		pub:   pub,
		cfg:   cfg,
		clock: clock,
		log:   log.With("service", "listener", "channel", cfg.Channel),
	}
}

// Run listens until ctx is cancelled, reconnecting with exponential backoff.
// After every successful LISTEN it publishes a RESYNC event per table,
// since notifications sent while disconnected are lost.
func (l *Listener) Run(ctx context.Context) error {
	b := backoff.WithContext(l.newBackOff(), ctx)

	for {
		err := l.listen(ctx, b.Reset)
		if ctx.Err() != nil {
			l.log.Info("listener stopped")
			return nil
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return fmt.Errorf("listen %s: %w", l.cfg.Channel, err)
		}
		l.log.Warn("listener disconnected",
			slog.String("error", errString(err)),
			slog.Duration("retry_in", wait),
		)

		select {
		case <-ctx.Done():
			l.log.Info("listener stopped")
			return nil
		case <-l.clock.After(wait):
		}
	}
}

func (l *Listener) listen(ctx context.Context, onConnected func()) error {
	conn, err := l.dial(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		l.connected.Store(false)
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.cfg.Channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	onConnected()
	l.connected.Store(true)
	l.log.Info("listening")

	for _, table := range l.cfg.Tables {
		l.pub.Publish(domain.ChangeEvent{Table: table, Op: domain.ChangeOpResync})
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		evt, err := ParseNotification(n.Payload)
		if err != nil {
			l.log.Warn("bad notification payload",
				slog.String("payload", n.Payload),
				slog.String("error", err.Error()),
			)
			continue
		}
		l.pub.Publish(evt)
	}
}

// Connected reports whether the listener currently holds a LISTEN connection.
func (l *Listener) Connected() bool {
	return l.connected.Load()
}

func (l *Listener) newBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = l.cfg.BackoffInitial
	eb.MaxInterval = l.cfg.BackoffMax
	eb.MaxElapsedTime = 0 // retry forever
	eb.Clock = l.clock
	eb.Reset()
	return eb
}

type notificationPayload struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id"`
}

// ParseNotification decodes a trigger payload of the form
// {"table":"grades","op":"INSERT","id":"<uuid>"}.
func ParseNotification(payload string) (domain.ChangeEvent, error) {
	var p notificationPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("decode payload: %w", err)
	}
	if p.Table == "" {
		return domain.ChangeEvent{}, errors.New("payload has no table")
	}

	op := domain.ChangeOp(p.Op)
	if !op.IsValid() {
		return domain.ChangeEvent{}, fmt.Errorf("unknown op %q", p.Op)
	}

	var id uuid.UUID
	if p.ID != "" {
		parsed, err := uuid.Parse(p.ID)
		if err != nil {
			return domain.ChangeEvent{}, fmt.Errorf("parse id: %w", err)
		}
		id = parsed
	}

	return domain.ChangeEvent{Table: p.Table, Op: op, RecordID: id}, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
