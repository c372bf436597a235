package collection

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

type item struct {
	ID   uuid.UUID
	Name string
}

func itemKey(i item) uuid.UUID { return i.ID }

// ---------------------------------------------------------------------------
// storeMock
// ---------------------------------------------------------------------------

type storeMock struct {
	ListFunc   func(ctx context.Context) ([]item, error)
	CreateFunc func(ctx context.Context, input string) (item, error)
	UpdateFunc func(ctx context.Context, id uuid.UUID, params string) (item, error)
	DeleteFunc func(ctx context.Context, id uuid.UUID) error

	mu          sync.Mutex
	listCalls   int
	createCalls []string
	updateCalls []uuid.UUID
	deleteCalls []uuid.UUID
}

func (m *storeMock) List(ctx context.Context) ([]item, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	return m.ListFunc(ctx)
}

func (m *storeMock) Create(ctx context.Context, input string) (item, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, input)
	m.mu.Unlock()
	return m.CreateFunc(ctx, input)
}

func (m *storeMock) Update(ctx context.Context, id uuid.UUID, params string) (item, error) {
	m.mu.Lock()
	m.updateCalls = append(m.updateCalls, id)
	m.mu.Unlock()
	return m.UpdateFunc(ctx, id, params)
}

func (m *storeMock) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	m.deleteCalls = append(m.deleteCalls, id)
	m.mu.Unlock()
	return m.DeleteFunc(ctx, id)
}

func (m *storeMock) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

func (m *storeMock) DeleteCalls() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.deleteCalls...)
}

// ---------------------------------------------------------------------------
// notifierMock
// ---------------------------------------------------------------------------

type notifierMock struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (m *notifierMock) Notify(_ context.Context, n domain.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
}

func (m *notifierMock) NotifyCalls() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Notification(nil), m.sent...)
}
