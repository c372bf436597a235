package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
	"github.com/heartmarshall/gradebook-backend/internal/service/gradebook"
	"github.com/heartmarshall/gradebook-backend/internal/transport/rest"
	"github.com/heartmarshall/gradebook-backend/pkg/ctxutil"
)

const (
	maxClientMessage = 512
	notificationBuf  = 32
)

// Message types sent to the client.
const (
	TypeDashboard    = "dashboard"
	TypeNotification = "notification"
)

// Message is the envelope of every frame sent to the client.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type session struct {
	id   uuid.UUID
	conn *websocket.Conn
	h    *Handler
	log  *slog.Logger

	// dirty holds at most one pending snapshot request; bursts of
	// changes collapse into one push.
	dirty chan struct{}
	notes chan domain.Notification

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(conn *websocket.Conn, h *Handler) *session {
	id := uuid.New()
	return &session{
		id:    id,
		conn:  conn,
		h:     h,
		log:   h.log.With("session_id", id.String()),
		dirty: make(chan struct{}, 1),
		notes: make(chan domain.Notification, notificationBuf),
		done:  make(chan struct{}),
	}
}

func (s *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(ctxutil.WithSessionID(parent, s.id))
	defer cancel()
	defer s.conn.Close()

	svc := s.h.newSession(gradebook.Options{
		OnChange: func(string) { s.markDirty() },
	}, s.notify)
	defer svc.Close()

	s.log.InfoContext(ctx, "session opened")

	// Initial load failures were already turned into notifications; the
	// subscriptions are open regardless and will retry on the next change.
	_ = svc.Open(ctx)
	s.markDirty()

	go s.readLoop()
	s.writeLoop(ctx, svc)

	s.log.InfoContext(ctx, "session closed")
}

func (s *session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *session) notify(ctx context.Context, n domain.Notification) {
	ctx = ctxutil.WithSessionID(ctx, s.id)
	if n.At.IsZero() {
		n.At = s.h.clock.Now()
	}
	s.h.recorder.Notify(ctx, n)

	select {
	case s.notes <- n:
	default:
		s.log.WarnContext(ctx, "notification dropped, client too slow",
			slog.String("description", n.Description))
	}
}

// readLoop drains client frames so control messages are processed and a
// closed connection is noticed. Clients are not expected to send data.
func (s *session) readLoop() {
	defer s.stop()

	s.conn.SetReadLimit(maxClientMessage)
	pongWait := s.h.cfg.PingInterval * 2
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("read failed", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (s *session) writeLoop(ctx context.Context, svc Session) {
	ping := s.h.clock.NewTicker(s.h.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			s.writeClose(websocket.CloseGoingAway, "server shutting down")
			return
		case <-s.done:
			return
		case <-s.dirty:
			snapshot := rest.ToDashboardResponse(svc.Dashboard(s.h.cfg.Recent))
			if err := s.write(Message{Type: TypeDashboard, Data: snapshot}); err != nil {
				s.log.Warn("write failed", slog.String("error", err.Error()))
				return
			}
		case n := <-s.notes:
			if err := s.write(Message{Type: TypeNotification, Data: rest.ToNotificationResponse(n)}); err != nil {
				s.log.Warn("write failed", slog.String("error", err.Error()))
				return
			}
		case <-ping.Chan():
			deadline := time.Now().Add(s.h.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (s *session) write(msg Message) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.h.cfg.WriteTimeout))
	return s.conn.WriteJSON(msg)
}

func (s *session) writeClose(code int, text string) {
	deadline := time.Now().Add(s.h.cfg.WriteTimeout)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

func (s *session) stop() {
	s.closeOnce.Do(func() { close(s.done) })
}
