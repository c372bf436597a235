package notify

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

func TestRecorder_KeepsOrderBeforeWrap(t *testing.T) {
	t.Parallel()

	r := NewRecorder(slog.Default(), clockwork.NewFakeClock(), 5)
	ctx := context.Background()

	r.Notify(ctx, domain.SuccessNotification("one"))
	r.Notify(ctx, domain.ErrorNotification("two"))

	got := r.Recent()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Description != "one" || got[1].Description != "two" {
		t.Errorf("unexpected order: %q, %q", got[0].Description, got[1].Description)
	}
	if got[1].Title != domain.NotificationError || got[1].Variant != domain.VariantDestructive {
		t.Errorf("error notification fields: %+v", got[1])
	}
}

func TestRecorder_DropsOldestWhenFull(t *testing.T) {
	t.Parallel()

	r := NewRecorder(slog.Default(), clockwork.NewFakeClock(), 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		r.Notify(ctx, domain.SuccessNotification(fmt.Sprintf("n%d", i)))
	}

	got := r.Recent()
	want := []string{"n3", "n4", "n5"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Description != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i].Description, want[i])
		}
	}
}

func TestRecorder_StampsTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	r := NewRecorder(slog.Default(), clockwork.NewFakeClockAt(at), 2)

	r.Notify(context.Background(), domain.SuccessNotification("stamped"))

	explicit := domain.SuccessNotification("explicit")
	explicit.At = at.Add(time.Hour)
	r.Notify(context.Background(), explicit)

	got := r.Recent()
	if !got[0].At.Equal(at) {
		t.Errorf("At = %v, want %v", got[0].At, at)
	}
	if !got[1].At.Equal(at.Add(time.Hour)) {
		t.Errorf("explicit At overwritten: %v", got[1].At)
	}
}

func TestFunc(t *testing.T) {
	t.Parallel()

	var got domain.Notification
	f := Func(func(_ context.Context, n domain.Notification) { got = n })

	f.Notify(context.Background(), domain.ErrorNotification("boom"))

	if got.Description != "boom" || !got.IsError() {
		t.Errorf("unexpected notification %+v", got)
	}
}
