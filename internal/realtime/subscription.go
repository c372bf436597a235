package realtime

import (
	"sync"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// Subscription is one open change listener. Close releases it.
type Subscription struct {
	hub       *Hub
	table     string
	channelID string
	onChange  func(domain.ChangeEvent)

	mailbox chan domain.ChangeEvent // one slot; extra events coalesce
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newSubscription(h *Hub, table, channelID string, onChange func(domain.ChangeEvent)) *Subscription {
	return &Subscription{
		hub:       h,
		table:     table,
		channelID: channelID,
		onChange:  onChange,
		mailbox:   make(chan domain.ChangeEvent, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Table returns the watched table.
func (s *Subscription) Table() string { return s.table }

// ChannelID returns the channel identifier the subscription was opened with.
func (s *Subscription) ChannelID() string { return s.channelID }

// Close unsubscribes and waits for a running handler to return.
// It is safe to call more than once. Must not be called from the handler.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
		<-s.stopped
	})
}

func (s *Subscription) offer(evt domain.ChangeEvent) {
	select {
	case s.mailbox <- evt:
	default:
	}
}

func (s *Subscription) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		case evt := <-s.mailbox:
			select {
			case <-s.done:
				return
			default:
			}
			s.onChange(evt)
		}
	}
}
