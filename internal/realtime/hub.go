// Package realtime routes server-observed table changes to local handlers.
//
// A Hub is transport independent: PostgreSQL LISTEN/NOTIFY, the in-memory
// store or a test publish into it, and subscribers receive events for the
// table they watch on their own goroutine.
package realtime

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// Hub fans change events out to subscriptions keyed by table and channel id.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[string]*Subscription // table -> channel id -> sub
	log  *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		subs: make(map[string]map[string]*Subscription),
		log:  log.With("service", "realtime"),
	}
}

// Subscribe registers onChange for every event on table. The handler runs on
// a goroutine owned by the subscription, never concurrently with itself.
// Returns domain.ErrAlreadyExists if channelID is already open.
func (h *Hub) Subscribe(table, channelID string, onChange func(domain.ChangeEvent)) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	byChannel, ok := h.subs[table]
	if !ok {
		byChannel = make(map[string]*Subscription)
		h.subs[table] = byChannel
	}
	if _, taken := byChannel[channelID]; taken {
		return nil, fmt.Errorf("channel %s: %w", channelID, domain.ErrAlreadyExists)
	}

	sub := newSubscription(h, table, channelID, onChange)
	byChannel[channelID] = sub
	go sub.run()

	h.log.Debug("subscribed",
		slog.String("table", table),
		slog.String("channel", channelID),
	)

	return sub, nil
}

// Publish delivers evt to every subscription on evt.Table. It never blocks:
// a subscription that already has an undelivered event keeps that one, since
// handlers reconcile the whole table either way.
func (h *Hub) Publish(evt domain.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs[evt.Table] {
		sub.offer(evt)
	}
}

// Subscribers returns the number of open subscriptions on table.
func (h *Hub) Subscribers(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[table])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	byChannel := h.subs[sub.table]
	if byChannel[sub.channelID] != sub {
		return
	}
	delete(byChannel, sub.channelID)
	if len(byChannel) == 0 {
		delete(h.subs, sub.table)
	}

	h.log.Debug("unsubscribed",
		slog.String("table", sub.table),
		slog.String("channel", sub.channelID),
	)
}
