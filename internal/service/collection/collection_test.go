package collection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
	"github.com/heartmarshall/gradebook-backend/internal/realtime"
)

const testTable = "items"

func newTestCollection(store *storeMock, hub *realtime.Hub, n *notifierMock, mutate func(*Config[item])) *Collection[item, string, string] {
	cfg := Config[item]{
		Table:  testTable,
		Entity: "item",
		Key:    itemKey,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	if hub == nil {
		hub = realtime.NewHub(slog.Default())
	}
	return New[item, string, string](slog.Default(), store, hub, n, clockwork.NewFakeClock(), cfg)
}

func staticList(items ...item) func(context.Context) ([]item, error) {
	return func(context.Context) ([]item, error) {
		return append([]item(nil), items...), nil
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}

func names(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func equalNames(t *testing.T, got []item, want ...string) {
	t.Helper()
	g := names(got)
	if len(g) != len(want) {
		t.Fatalf("items = %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("items = %v, want %v", g, want)
		}
	}
}

// ---------------------------------------------------------------------------
// FetchAll
// ---------------------------------------------------------------------------

func TestFetchAll_ReplacesList(t *testing.T) {
	t.Parallel()

	a := item{ID: uuid.New(), Name: "a"}
	b := item{ID: uuid.New(), Name: "b"}
	store := &storeMock{ListFunc: staticList(a, b)}
	n := &notifierMock{}
	c := newTestCollection(store, nil, n, nil)
	defer c.Close()

	if c.State() != StateUninitialized {
		t.Fatalf("initial state = %s", c.State())
	}

	if err := c.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	equalNames(t, c.Items(), "a", "b")
	if c.State() != StateReady {
		t.Errorf("state = %s, want ready", c.State())
	}
	if got, ok := c.Get(b.ID); !ok || got.Name != "b" {
		t.Errorf("Get(b) = %+v, %v", got, ok)
	}
	if len(n.NotifyCalls()) != 0 {
		t.Errorf("successful fetch must not notify, got %v", n.NotifyCalls())
	}
}

func TestFetchAll_FailureKeepsPreviousList(t *testing.T) {
	t.Parallel()

	a := item{ID: uuid.New(), Name: "a"}
	fail := false
	store := &storeMock{ListFunc: func(context.Context) ([]item, error) {
		if fail {
			return nil, errors.New("connection refused")
		}
		return []item{a}, nil
	}}
	n := &notifierMock{}
	c := newTestCollection(store, nil, n, nil)
	defer c.Close()

	if err := c.FetchAll(context.Background()); err != nil {
		t.Fatalf("first FetchAll: %v", err)
	}

	fail = true
	if err := c.FetchAll(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	equalNames(t, c.Items(), "a")
	if c.State() != StateReady {
		t.Errorf("state = %s, want ready", c.State())
	}

	sent := n.NotifyCalls()
	if len(sent) != 1 || !sent[0].IsError() || sent[0].Description != "Failed to fetch items" {
		t.Errorf("unexpected notifications %+v", sent)
	}
}

func TestFetchAll_FirstFailureStaysUninitialized(t *testing.T) {
	t.Parallel()

	store := &storeMock{ListFunc: func(context.Context) ([]item, error) {
		return nil, errors.New("boom")
	}}
	c := newTestCollection(store, nil, &notifierMock{}, nil)
	defer c.Close()

	_ = c.FetchAll(context.Background())

	if c.State() != StateUninitialized {
		t.Errorf("state = %s, want uninitialized", c.State())
	}
	if c.Loading() {
		t.Error("loading flag must be cleared after a failed fetch")
	}
	if c.Items() == nil || c.Len() != 0 {
		t.Errorf("items = %v, want empty non-nil", c.Items())
	}
}

func TestFetchAll_LoadingWhileInFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	entered := make(chan struct{})
	store := &storeMock{ListFunc: func(context.Context) ([]item, error) {
		close(entered)
		<-release
		return nil, nil
	}}
	c := newTestCollection(store, nil, &notifierMock{}, nil)
	defer c.Close()

	done := make(chan error, 1)
	go func() { done <- c.FetchAll(context.Background()) }()

	<-entered
	if !c.Loading() {
		t.Error("expected Loading while fetch is in flight")
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if c.State() != StateReady {
		t.Errorf("state = %s, want ready", c.State())
	}
}

// ---------------------------------------------------------------------------
// Create / Update
// ---------------------------------------------------------------------------

func TestCreate_MergeAppends(t *testing.T) {
	t.Parallel()

	a := item{ID: uuid.New(), Name: "a"}
	created := item{ID: uuid.New(), Name: "new"}
	store := &storeMock{
		ListFunc:   staticList(a),
		CreateFunc: func(context.Context, string) (item, error) { return created, nil },
	}
	n := &notifierMock{}
	c := newTestCollection(store, nil, n, nil)
	defer c.Close()

	_ = c.FetchAll(context.Background())

	got, err := c.Create(context.Background(), "new")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("returned %+v, want %+v", got, created)
	}

	equalNames(t, c.Items(), "a", "new")
	if store.ListCalls() != 1 {
		t.Errorf("merge strategy must not refetch, list calls = %d", store.ListCalls())
	}

	sent := n.NotifyCalls()
	if len(sent) != 1 || sent[0].IsError() || sent[0].Description != "Item added successfully" {
		t.Errorf("unexpected notifications %+v", sent)
	}
}

func TestCreate_MergeDoesNotDuplicateRecordAlreadyFetched(t *testing.T) {
	t.Parallel()

	created := item{ID: uuid.New(), Name: "new"}
	store := &storeMock{
		ListFunc:   staticList(created),
		CreateFunc: func(context.Context, string) (item, error) { return created, nil },
	}
	c := newTestCollection(store, nil, &notifierMock{}, nil)
	defer c.Close()

	_ = c.FetchAll(context.Background())
	if _, err := c.Create(context.Background(), "new"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}

func TestCreate_RefetchReplacesList(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		rows []item
	)
	store := &storeMock{
		ListFunc: func(context.Context) ([]item, error) {
			mu.Lock()
			defer mu.Unlock()
			// Newest first, like a created_at desc query.
			out := make([]item, 0, len(rows))
			for i := len(rows) - 1; i >= 0; i-- {
				out = append(out, rows[i])
			}
			return out, nil
		},
		CreateFunc: func(_ context.Context, name string) (item, error) {
			mu.Lock()
			defer mu.Unlock()
			it := item{ID: uuid.New(), Name: name}
			rows = append(rows, it)
			return it, nil
		},
	}
	n := &notifierMock{}
	c := newTestCollection(store, nil, n, func(cfg *Config[item]) {
		cfg.Reconcile = ReconcileRefetch
	})
	defer c.Close()

	_ = c.FetchAll(context.Background())
	_, _ = c.Create(context.Background(), "first")
	_, _ = c.Create(context.Background(), "second")

	equalNames(t, c.Items(), "second", "first")
	if store.ListCalls() != 3 {
		t.Errorf("list calls = %d, want 3", store.ListCalls())
	}
	if got := len(n.NotifyCalls()); got != 2 {
		t.Errorf("notifications = %d, want one per create", got)
	}
}

func TestCreate_FailureLeavesListUntouched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		hint    string
		wantMsg string
	}{
		{
			name:    "generic failure",
			err:     errors.New("boom"),
			hint:    "Check for duplicates.",
			wantMsg: "Failed to add item",
		},
		{
			name:    "duplicate with hint",
			err:     domain.ErrAlreadyExists,
			hint:    "Check for duplicates.",
			wantMsg: "Failed to add item. Check for duplicates.",
		},
		{
			name:    "duplicate without hint",
			err:     domain.ErrAlreadyExists,
			wantMsg: "Failed to add item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := item{ID: uuid.New(), Name: "a"}
			store := &storeMock{
				ListFunc:   staticList(a),
				CreateFunc: func(context.Context, string) (item, error) { return item{}, tt.err },
			}
			n := &notifierMock{}
			c := newTestCollection(store, nil, n, func(cfg *Config[item]) {
				cfg.DuplicateHint = tt.hint
			})
			defer c.Close()

			_ = c.FetchAll(context.Background())

			_, err := c.Create(context.Background(), "x")
			if !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want wrapping %v", err, tt.err)
			}

			equalNames(t, c.Items(), "a")
			sent := n.NotifyCalls()
			if len(sent) != 1 || !sent[0].IsError() || sent[0].Description != tt.wantMsg {
				t.Errorf("notifications = %+v, want one error %q", sent, tt.wantMsg)
			}
		})
	}
}

func TestUpdate_MergePatchesInPlace(t *testing.T) {
	t.Parallel()

	a := item{ID: uuid.New(), Name: "a"}
	b := item{ID: uuid.New(), Name: "b"}
	store := &storeMock{
		ListFunc: staticList(a, b),
		UpdateFunc: func(_ context.Context, id uuid.UUID, name string) (item, error) {
			return item{ID: id, Name: name}, nil
		},
	}
	n := &notifierMock{}
	c := newTestCollection(store, nil, n, nil)
	defer c.Close()

	_ = c.FetchAll(context.Background())

	if _, err := c.Update(context.Background(), a.ID, "a2"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	equalNames(t, c.Items(), "a2", "b")
	sent := n.NotifyCalls()
	if len(sent) != 1 || sent[0].Description != "Item updated successfully" {
		t.Errorf("unexpected notifications %+v", sent)
	}
}

func TestUpdate_MergeIgnoresRecordNotCached(t *testing.T) {
	t.Parallel()

	a := item{ID: uuid.New(), Name: "a"}
	store := &storeMock{
		ListFunc: staticList(a),
		UpdateFunc: func(_ context.Context, id uuid.UUID, name string) (item, error) {
			return item{ID: id, Name: name}, nil
		},
	}
	c := newTestCollection(store, nil, &notifierMock{}, nil)
	defer c.Close()

	_ = c.FetchAll(context.Background())
	if _, err := c.Update(context.Background(), uuid.New(), "ghost"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	equalNames(t, c.Items(), "a")
}

func TestUpdate_FailureLeavesListUntouched(t *testing.T) {
	t.Parallel()

	a := item{ID: uuid.New(), Name: "a"}
	store := &storeMock{
		ListFunc: staticList(a),
		UpdateFunc: func(context.Context, uuid.UUID, string) (item, error) {
			return item{}, domain.ErrNotFound
		},
	}
	n := &notifierMock{}
	c := newTestCollection(store, nil, n, nil)
	defer c.Close()

	_ = c.FetchAll(context.Background())

	_, err := c.Update(context.Background(), a.ID, "changed")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	equalNames(t, c.Items(), "a")
	sent := n.NotifyCalls()
	if len(sent) != 1 || sent[0].Description != "Failed to update item" {
		t.Errorf("unexpected notifications %+v", sent)
	}
}

func TestUpdate_RefetchFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	a := item{ID: uuid.New(), Name: "a"}
	var lists atomic.Int32
	store := &storeMock{
		ListFunc: func(context.Context) ([]item, error) {
			if lists.Add(1) > 1 {
				return nil, errors.New("read replica down")
			}
			return []item{a}, nil
		},
		UpdateFunc: func(_ context.Context, id uuid.UUID, name string) (item, error) {
			return item{ID: id, Name: name}, nil
		},
	}
	n := &notifierMock{}
	c := newTestCollection(store, nil, n, func(cfg *Config[item]) {
		cfg.Reconcile = ReconcileRefetch
	})
	defer c.Close()

	_ = c.FetchAll(context.Background())

	if _, err := c.Update(context.Background(), a.ID, "a2"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	sent := n.NotifyCalls()
	if len(sent) != 1 || sent[0].IsError() {
		t.Errorf("want exactly one success notification, got %+v", sent)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete_RemovesBeforeStoreCall(t *testing.T) {
	t.Parallel()

	a := item{ID: uuid.New(), Name: "a"}
	b := item{ID: uuid.New(), Name: "b"}
	store := &storeMock{ListFunc: staticList(a, b)}
	n := &notifierMock{}
	c := newTestCollection(store, nil, n, nil)
	defer c.Close()

	var seenDuringCall []item
	store.DeleteFunc = func(context.Context, uuid.UUID) error {
		seenDuringCall = c.Items()
		return nil
	}

	_ = c.FetchAll(context.Background())
	if err := c.Delete(context.Background(), a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	equalNames(t, seenDuringCall, "b")
	equalNames(t, c.Items(), "b")

	sent := n.NotifyCalls()
	if len(sent) != 1 || sent[0].Description != "Item deleted successfully" {
		t.Errorf("unexpected notifications %+v", sent)
	}
}

func TestDelete_FailureKeepsOptimisticRemoval(t *testing.T) {
	t.Parallel()

	a := item{ID: uuid.New(), Name: "a"}
	b := item{ID: uuid.New(), Name: "b"}
	store := &storeMock{
		ListFunc:   staticList(a, b),
		DeleteFunc: func(context.Context, uuid.UUID) error { return errors.New("boom") },
	}
	n := &notifierMock{}
	c := newTestCollection(store, nil, n, nil)
	defer c.Close()

	_ = c.FetchAll(context.Background())
	if err := c.Delete(context.Background(), a.ID); err == nil {
		t.Fatal("expected error")
	}

	equalNames(t, c.Items(), "b")
	sent := n.NotifyCalls()
	if len(sent) != 1 || !sent[0].IsError() || sent[0].Description != "Failed to delete item" {
		t.Errorf("unexpected notifications %+v", sent)
	}

	// The next fetch restores the server truth.
	_ = c.FetchAll(context.Background())
	equalNames(t, c.Items(), "a", "b")
}

func TestDelete_RollbackRestoresPosition(t *testing.T) {
	t.Parallel()

	a := item{ID: uuid.New(), Name: "a"}
	b := item{ID: uuid.New(), Name: "b"}
	d := item{ID: uuid.New(), Name: "c"}
	store := &storeMock{
		ListFunc:   staticList(a, b, d),
		DeleteFunc: func(context.Context, uuid.UUID) error { return domain.ErrNotFound },
	}
	c := newTestCollection(store, nil, &notifierMock{}, func(cfg *Config[item]) {
		cfg.RollbackFailedDelete = true
	})
	defer c.Close()

	_ = c.FetchAll(context.Background())
	if err := c.Delete(context.Background(), b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	equalNames(t, c.Items(), "a", "b", "c")
}

func TestDelete_UnknownIDStillCallsStore(t *testing.T) {
	t.Parallel()

	store := &storeMock{
		ListFunc:   staticList(),
		DeleteFunc: func(context.Context, uuid.UUID) error { return nil },
	}
	c := newTestCollection(store, nil, &notifierMock{}, nil)
	defer c.Close()

	id := uuid.New()
	if err := c.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if calls := store.DeleteCalls(); len(calls) != 1 || calls[0] != id {
		t.Errorf("delete calls = %v", calls)
	}
}

// ---------------------------------------------------------------------------
// Subscribe / Close
// ---------------------------------------------------------------------------

func TestSubscribe_ChangeEventTriggersRefetch(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		rows = []item{{ID: uuid.New(), Name: "a"}}
	)
	store := &storeMock{ListFunc: func(context.Context) ([]item, error) {
		mu.Lock()
		defer mu.Unlock()
		return append([]item(nil), rows...), nil
	}}
	hub := realtime.NewHub(slog.Default())
	c := newTestCollection(store, hub, &notifierMock{}, nil)
	defer c.Close()

	_ = c.FetchAll(context.Background())
	if err := c.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// Another client writes directly to the store.
	added := item{ID: uuid.New(), Name: "b"}
	mu.Lock()
	rows = append(rows, added)
	mu.Unlock()
	hub.Publish(domain.ChangeEvent{Table: testTable, Op: domain.ChangeOpInsert, RecordID: added.ID})

	waitFor(t, func() bool { return c.Len() == 2 })
	equalNames(t, c.Items(), "a", "b")
}

func TestSubscribe_OnlyOneListener(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub(slog.Default())
	c := newTestCollection(&storeMock{ListFunc: staticList()}, hub, &notifierMock{}, nil)

	if err := c.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := c.Subscribe(); err != nil {
		t.Fatalf("second Subscribe: %v", err)
	}
	if n := hub.Subscribers(testTable); n != 1 {
		t.Fatalf("subscribers = %d, want 1", n)
	}

	c.Close()
	if n := hub.Subscribers(testTable); n != 0 {
		t.Errorf("subscribers after Close = %d, want 0", n)
	}
}

func TestClose_OperationsReturnErrDisposed(t *testing.T) {
	t.Parallel()

	store := &storeMock{ListFunc: staticList()}
	c := newTestCollection(store, nil, &notifierMock{}, nil)

	c.Close()
	c.Close()

	if c.State() != StateDisposed {
		t.Errorf("state = %s, want disposed", c.State())
	}
	if err := c.FetchAll(context.Background()); !errors.Is(err, ErrDisposed) {
		t.Errorf("FetchAll: %v", err)
	}
	if _, err := c.Create(context.Background(), "x"); !errors.Is(err, ErrDisposed) {
		t.Errorf("Create: %v", err)
	}
	if _, err := c.Update(context.Background(), uuid.New(), "x"); !errors.Is(err, ErrDisposed) {
		t.Errorf("Update: %v", err)
	}
	if err := c.Delete(context.Background(), uuid.New()); !errors.Is(err, ErrDisposed) {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Subscribe(); !errors.Is(err, ErrDisposed) {
		t.Errorf("Subscribe: %v", err)
	}
	if store.ListCalls() != 0 {
		t.Errorf("store touched after Close")
	}
}

func TestClose_DiscardsLateFetchResult(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	store := &storeMock{ListFunc: func(context.Context) ([]item, error) {
		close(entered)
		<-release
		return []item{{ID: uuid.New(), Name: "late"}}, nil
	}}
	var changes atomic.Int32
	n := &notifierMock{}
	c := newTestCollection(store, nil, n, func(cfg *Config[item]) {
		cfg.OnChange = func() { changes.Add(1) }
	})

	done := make(chan error, 1)
	go func() { done <- c.FetchAll(context.Background()) }()

	<-entered
	c.Close()
	close(release)

	if err := <-done; !errors.Is(err, ErrDisposed) {
		t.Fatalf("late fetch returned %v, want ErrDisposed", err)
	}
	if c.Len() != 0 {
		t.Errorf("late result applied: %v", c.Items())
	}
	if changes.Load() != 0 {
		t.Errorf("OnChange called %d times after Close", changes.Load())
	}
	if len(n.NotifyCalls()) != 0 {
		t.Errorf("notified after Close: %+v", n.NotifyCalls())
	}
}

func TestClose_CancelsEventFetch(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{}, 1)
	store := &storeMock{ListFunc: func(ctx context.Context) ([]item, error) {
		entered <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	hub := realtime.NewHub(slog.Default())
	n := &notifierMock{}
	c := newTestCollection(store, hub, n, nil)

	if err := c.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	hub.Publish(domain.ChangeEvent{Table: testTable, Op: domain.ChangeOpUpdate})
	<-entered

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on in-flight event fetch")
	}
	if len(n.NotifyCalls()) != 0 {
		t.Errorf("cancelled fetch must not notify: %+v", n.NotifyCalls())
	}
}

// ---------------------------------------------------------------------------
// Convergence
// ---------------------------------------------------------------------------

func TestConvergesAfterConcurrentWritesAndEvents(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		rows []item
	)
	snapshot := func() []item {
		mu.Lock()
		defer mu.Unlock()
		return append([]item(nil), rows...)
	}
	hub := realtime.NewHub(slog.Default())
	store := &storeMock{
		ListFunc: func(context.Context) ([]item, error) {
			time.Sleep(time.Millisecond)
			return snapshot(), nil
		},
		CreateFunc: func(_ context.Context, name string) (item, error) {
			mu.Lock()
			it := item{ID: uuid.New(), Name: name}
			rows = append(rows, it)
			mu.Unlock()
			hub.Publish(domain.ChangeEvent{Table: testTable, Op: domain.ChangeOpInsert, RecordID: it.ID})
			return it, nil
		},
	}
	c := newTestCollection(store, hub, &notifierMock{}, func(cfg *Config[item]) {
		cfg.Reconcile = ReconcileRefetch
	})
	defer c.Close()

	if err := c.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = c.Create(context.Background(), string(rune('a'+i)))
		}(i)
	}
	wg.Wait()

	// Quiescence: one more fetch after the last write settles the list.
	_ = c.FetchAll(context.Background())
	waitFor(t, func() bool { return !c.Loading() && c.Len() == 8 })

	want := names(snapshot())
	equalNames(t, c.Items(), want...)
}

func TestConvergesAfterOutOfOrderUpdateRefetches(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	var (
		mu    sync.Mutex
		row   = item{ID: id, Name: "v0"}
		calls int
	)
	entered := make(chan struct{})
	release := make(chan struct{})

	hub := realtime.NewHub(slog.Default())
	store := &storeMock{
		ListFunc: func(context.Context) ([]item, error) {
			mu.Lock()
			calls++
			n := calls
			snap := []item{row}
			mu.Unlock()

			// The refetch of the first update reads early and resolves last.
			if n == 1 {
				close(entered)
				<-release
			}
			return snap, nil
		},
		UpdateFunc: func(_ context.Context, _ uuid.UUID, name string) (item, error) {
			mu.Lock()
			defer mu.Unlock()
			row.Name = name
			return row, nil
		},
	}
	c := newTestCollection(store, hub, &notifierMock{}, func(cfg *Config[item]) {
		cfg.Reconcile = ReconcileRefetch
	})
	defer c.Close()

	if err := c.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	first := make(chan error, 1)
	go func() {
		_, err := c.Update(context.Background(), id, "v1")
		first <- err
	}()
	<-entered

	if _, err := c.Update(context.Background(), id, "v2"); err != nil {
		t.Fatalf("second Update: %v", err)
	}
	equalNames(t, c.Items(), "v2")

	close(release)
	if err := <-first; err != nil {
		t.Fatalf("first Update: %v", err)
	}
	// The stale snapshot landed last.
	equalNames(t, c.Items(), "v1")

	hub.Publish(domain.ChangeEvent{Table: testTable, Op: domain.ChangeOpUpdate, RecordID: id})
	waitFor(t, func() bool {
		got, ok := c.Get(id)
		return ok && got.Name == "v2" && !c.Loading()
	})
	equalNames(t, c.Items(), "v2")
}
