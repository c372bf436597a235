// Package collection keeps an in-memory ordered copy of one remote table
// eventually consistent with the store.
//
// All writes go through the store first (write-through). Local state is then
// reconciled either by a full refetch or by merging the single record the
// store returned. Independently, a change-feed subscription triggers a full
// refetch on every server-observed change. Refetches are not sequenced
// against each other: each one replaces the whole list, so whichever
// resolves last wins and the list converges once the store goes quiet.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
	"github.com/heartmarshall/gradebook-backend/internal/realtime"
)

// ErrDisposed is returned by every operation after Close.
var ErrDisposed = errors.New("collection disposed")

// Store is the remote table a Collection mirrors.
type Store[T, C, U any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, input C) (T, error)
	Update(ctx context.Context, id uuid.UUID, params U) (T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type changeFeed interface {
	Subscribe(table, channelID string, onChange func(domain.ChangeEvent)) (*realtime.Subscription, error)
}

type notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// Reconcile selects how local state catches up after a successful write.
type Reconcile int

const (
	// ReconcileMerge upserts (create) or patches (update) the record the store returned.
	ReconcileMerge Reconcile = iota
	// ReconcileRefetch re-reads the whole table, for views that need server-side joins.
	ReconcileRefetch
)

// Config describes one mirrored table.
type Config[T any] struct {
	Table  string            // remote table, also used in fetch messages
	Entity string            // singular noun for notifications, e.g. "student"
	Key    func(T) uuid.UUID // primary key of a record

	Reconcile Reconcile

	// DuplicateHint is appended to the create failure message when the store
	// reports domain.ErrAlreadyExists.
	DuplicateHint string

	// RollbackFailedDelete re-inserts an optimistically removed record when
	// the store rejects the delete. Off by default: the row stays removed
	// locally until the next refetch.
	RollbackFailedDelete bool

	// OnChange, if set, is called after every change of the local list.
	OnChange func()
}

// Collection is a synchronized cache of one table.
type Collection[T, C, U any] struct {
	store    Store[T, C, U]
	feed     changeFeed
	notifier notifier
	clock    clockwork.Clock
	log      *slog.Logger
	cfg      Config[T]

	// lifetime bounds fetches started by change events; cancelled on Close.
	lifetime context.Context
	stop     context.CancelFunc

	mu       sync.RWMutex
	items    []T
	loaded   bool
	inflight int
	disposed bool
	sub      *realtime.Subscription
}

// New creates a Collection in the Uninitialized state. Nothing is fetched or
// subscribed until FetchAll and Subscribe are called.
func New[T, C, U any](
	log *slog.Logger,
	store Store[T, C, U],
	feed changeFeed,
	notifier notifier,
	clock clockwork.Clock,
	cfg Config[T],
) *Collection[T, C, U] {
	if cfg.Key == nil || cfg.Table == "" {
		panic("collection: Config.Table and Config.Key are required")
	}
	if cfg.Entity == "" {
		cfg.Entity = cfg.Table
	}

	lifetime, stop := context.WithCancel(context.Background())

	return &Collection[T, C, U]{
		store:    store,
		feed:     feed,
		notifier: notifier,
		clock:    clock,
		log:      log.With("service", "collection", "table", cfg.Table),
		cfg:      cfg,
		lifetime: lifetime,
		stop:     stop,
		items:    []T{},
	}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// FetchAll replaces the local list with a fresh read of the table.
// On failure the list is left as it was and an error notification is sent.
func (c *Collection[T, C, U]) FetchAll(ctx context.Context) error {
	return c.fetch(ctx, true)
}

func (c *Collection[T, C, U]) fetch(ctx context.Context, notifyFailure bool) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.inflight++
	c.mu.Unlock()

	items, err := c.store.List(ctx)

	c.mu.Lock()
	c.inflight--
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	if err != nil {
		c.mu.Unlock()
		c.log.ErrorContext(ctx, "fetch failed", slog.String("error", err.Error()))
		if notifyFailure {
			c.notify(ctx, domain.ErrorNotification("Failed to fetch "+c.cfg.Table))
		}
		return fmt.Errorf("fetch %s: %w", c.cfg.Table, err)
	}
	c.items = clone(items)
	c.loaded = true
	c.mu.Unlock()

	c.log.DebugContext(ctx, "fetched", slog.Int("count", len(items)))
	c.changed()

	return nil
}

// Items returns a copy of the current list in store order.
func (c *Collection[T, C, U]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.items)
}

// Get returns the cached record with the given key.
func (c *Collection[T, C, U]) Get(id uuid.UUID) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Len returns the number of cached records.
func (c *Collection[T, C, U]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Loading reports whether a fetch is in flight.
func (c *Collection[T, C, U]) Loading() bool {
	return c.State() == StateLoading
}

// State returns the lifecycle state.
func (c *Collection[T, C, U]) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.disposed:
		return StateDisposed
	case c.inflight > 0:
		return StateLoading
	case c.loaded:
		return StateReady
	default:
		return StateUninitialized
	}
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// Create inserts input into the store, then reconciles local state.
// On failure nothing changes locally.
func (c *Collection[T, C, U]) Create(ctx context.Context, input C) (T, error) {
	var zero T
	if c.isDisposed() {
		return zero, ErrDisposed
	}

	rec, err := c.store.Create(ctx, input)
	if err != nil {
		msg := "Failed to add " + c.cfg.Entity
		if c.cfg.DuplicateHint != "" && errors.Is(err, domain.ErrAlreadyExists) {
			msg += ". " + c.cfg.DuplicateHint
		}
		c.log.ErrorContext(ctx, "create failed", slog.String("error", err.Error()))
		c.notify(ctx, domain.ErrorNotification(msg))
		return zero, fmt.Errorf("create %s: %w", c.cfg.Entity, err)
	}

	switch c.cfg.Reconcile {
	case ReconcileRefetch:
		c.refetchAfterWrite(ctx)
	default:
		c.upsert(rec)
	}

	c.log.InfoContext(ctx, "created", slog.String("id", c.cfg.Key(rec).String()))
	c.notify(ctx, domain.SuccessNotification(capitalize(c.cfg.Entity)+" added successfully"))

	return rec, nil
}

// Update applies params to the record with key id in the store, then
// reconciles local state. On failure nothing changes locally.
func (c *Collection[T, C, U]) Update(ctx context.Context, id uuid.UUID, params U) (T, error) {
	var zero T
	if c.isDisposed() {
		return zero, ErrDisposed
	}

	rec, err := c.store.Update(ctx, id, params)
	if err != nil {
		c.log.ErrorContext(ctx, "update failed",
			slog.String("id", id.String()),
			slog.String("error", err.Error()),
		)
		c.notify(ctx, domain.ErrorNotification("Failed to update "+c.cfg.Entity))
		return zero, fmt.Errorf("update %s %s: %w", c.cfg.Entity, id, err)
	}

	switch c.cfg.Reconcile {
	case ReconcileRefetch:
		c.refetchAfterWrite(ctx)
	default:
		c.patch(rec)
	}

	c.log.InfoContext(ctx, "updated", slog.String("id", id.String()))
	c.notify(ctx, domain.SuccessNotification(capitalize(c.cfg.Entity)+" updated successfully"))

	return rec, nil
}

// Delete removes the record locally right away, then deletes it in the store.
// If the store rejects the delete the error is reported; the local removal
// stands unless RollbackFailedDelete is set.
func (c *Collection[T, C, U]) Delete(ctx context.Context, id uuid.UUID) error {
	if c.isDisposed() {
		return ErrDisposed
	}

	removed, at, ok := c.removeLocal(id)
	if ok {
		c.changed()
	}

	if err := c.store.Delete(ctx, id); err != nil {
		if ok && c.cfg.RollbackFailedDelete {
			c.restore(removed, at)
		}
		c.log.ErrorContext(ctx, "delete failed",
			slog.String("id", id.String()),
			slog.String("error", err.Error()),
		)
		c.notify(ctx, domain.ErrorNotification("Failed to delete "+c.cfg.Entity))
		return fmt.Errorf("delete %s %s: %w", c.cfg.Entity, id, err)
	}

	c.log.InfoContext(ctx, "deleted", slog.String("id", id.String()))
	c.notify(ctx, domain.SuccessNotification(capitalize(c.cfg.Entity)+" deleted successfully"))

	return nil
}

// refetchAfterWrite reconciles after a successful write. A failure here is
// logged only: the write itself succeeded and gets its own notification.
func (c *Collection[T, C, U]) refetchAfterWrite(ctx context.Context) {
	if err := c.fetch(ctx, false); err != nil && !errors.Is(err, ErrDisposed) {
		c.log.WarnContext(ctx, "refetch after write failed", slog.String("error", err.Error()))
	}
}

// ---------------------------------------------------------------------------
// Subscription lifecycle
// ---------------------------------------------------------------------------

// Subscribe opens the change listener for the table. Only one listener is
// opened per Collection; later calls are no-ops.
func (c *Collection[T, C, U]) Subscribe() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return ErrDisposed
	}
	if c.sub != nil {
		return nil
	}

	channelID := realtime.NewChannelID(c.clock, c.cfg.Table)
	sub, err := c.feed.Subscribe(c.cfg.Table, channelID, c.onChange)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.cfg.Table, err)
	}
	c.sub = sub

	c.log.Info("subscribed", slog.String("channel", channelID))

	return nil
}

func (c *Collection[T, C, U]) onChange(evt domain.ChangeEvent) {
	c.log.Debug("change received",
		slog.String("op", evt.Op.String()),
		slog.String("record_id", evt.RecordID.String()),
	)
	// Failures are logged and notified inside fetch.
	_ = c.fetch(c.lifetime, true)
}

// Close disposes the Collection: the subscription is released, fetches
// started by change events are cancelled and every later call returns
// ErrDisposed. Close is idempotent.
func (c *Collection[T, C, U]) Close() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	c.stop()
	if sub != nil {
		sub.Close()
	}

	c.log.Info("disposed")
}

// ---------------------------------------------------------------------------
// Local state helpers
// ---------------------------------------------------------------------------

func (c *Collection[T, C, U]) isDisposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}

// indexOf must be called with c.mu held.
func (c *Collection[T, C, U]) indexOf(id uuid.UUID) int {
	for i, item := range c.items {
		if c.cfg.Key(item) == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T, C, U]) upsert(rec T) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	// A change-event refetch may already have brought the record in.
	if i := c.indexOf(c.cfg.Key(rec)); i >= 0 {
		c.items[i] = rec
	} else {
		c.items = append(c.items, rec)
	}
	c.mu.Unlock()
	c.changed()
}

func (c *Collection[T, C, U]) patch(rec T) {
	c.mu.Lock()
	i := -1
	if !c.disposed {
		i = c.indexOf(c.cfg.Key(rec))
	}
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.items[i] = rec
	c.mu.Unlock()
	c.changed()
}

func (c *Collection[T, C, U]) removeLocal(id uuid.UUID) (T, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	i := c.indexOf(id)
	if i < 0 {
		return zero, -1, false
	}
	removed := c.items[i]
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	return removed, i, true
}

func (c *Collection[T, C, U]) restore(rec T, at int) {
	c.mu.Lock()
	if c.disposed || c.indexOf(c.cfg.Key(rec)) >= 0 {
		c.mu.Unlock()
		return
	}
	if at > len(c.items) {
		at = len(c.items)
	}
	c.items = append(c.items[:at:at], append([]T{rec}, c.items[at:]...)...)
	c.mu.Unlock()
	c.changed()
}

func (c *Collection[T, C, U]) changed() {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange()
	}
}

func (c *Collection[T, C, U]) notify(ctx context.Context, n domain.Notification) {
	if c.notifier == nil {
		return
	}
	n.At = c.clock.Now()
	c.notifier.Notify(ctx, n)
}

func clone[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
