package reminder

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newTestService(at time.Time) *Service {
	svc := NewService(NewInMemoryStore(), time.UTC)
	svc.SetClock(func() time.Time { return at })
	return svc
}

func TestSlotAlignment(t *testing.T) {
	svc := NewService(NewInMemoryStore(), time.UTC)
	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2025, 12, 25, 10, 50, 0, 0, time.UTC), "20251225-1050"},
		{time.Date(2025, 12, 25, 10, 53, 12, 0, time.UTC), "20251225-1050"},
		{time.Date(2025, 12, 25, 10, 55, 0, 0, time.UTC), "20251225-1055"},
		{time.Date(2025, 12, 25, 0, 4, 59, 0, time.UTC), "20251225-0000"},
	}
	for _, tc := range cases {
		if got := svc.Slot(tc.at); got != tc.want {
			t.Fatalf("Slot(%v) = %q, want %q", tc.at, got, tc.want)
		}
	}
}

func TestIsDueOnlyOnFiveMinuteBoundary(t *testing.T) {
	ctx := context.Background()
	for minute := 0; minute < 60; minute++ {
		svc := newTestService(time.Date(2025, 12, 25, 10, minute, 0, 0, time.UTC))
		due, err := svc.IsDue(ctx, "willy")
		if err != nil {
			t.Fatalf("IsDue() error = %v", err)
		}
		if want := minute%5 == 0; due != want {
			t.Fatalf("IsDue() at minute %d = %v, want %v", minute, due, want)
		}
	}
}

func TestIsDueFiresOncePerSlot(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(time.Date(2025, 12, 25, 10, 50, 0, 0, time.UTC))

	due, err := svc.IsDue(ctx, "willy")
	if err != nil {
		t.Fatalf("IsDue() error = %v", err)
	}
	if !due {
		t.Fatalf("first IsDue() in slot = false, want true")
	}

	due, err = svc.IsDue(ctx, "willy")
	if err != nil {
		t.Fatalf("IsDue() error = %v", err)
	}
	if due {
		t.Fatalf("second IsDue() in same slot = true, want false")
	}
}

func TestIsDueFiresAgainInNextSlot(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 12, 25, 10, 50, 0, 0, time.UTC)
	svc := newTestService(at)

	if due, _ := svc.IsDue(ctx, "willy"); !due {
		t.Fatalf("first slot should fire")
	}

	svc.SetClock(func() time.Time { return at.Add(5 * time.Minute) })
	if due, _ := svc.IsDue(ctx, "willy"); !due {
		t.Fatalf("next slot should fire again")
	}
}

func TestMarkDoneSuppressesReminders(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(time.Date(2025, 12, 25, 10, 50, 0, 0, time.UTC))

	if err := svc.MarkDone(ctx, "willy"); err != nil {
		t.Fatalf("MarkDone() error = %v", err)
	}
	// Idempotent.
	if err := svc.MarkDone(ctx, "willy"); err != nil {
		t.Fatalf("MarkDone() repeat error = %v", err)
	}

	for _, offset := range []time.Duration{0, 5 * time.Minute, 6 * time.Hour} {
		at := time.Date(2025, 12, 25, 10, 50, 0, 0, time.UTC).Add(offset)
		svc.SetClock(func() time.Time { return at })
		due, err := svc.IsDue(ctx, "willy")
		if err != nil {
			t.Fatalf("IsDue() error = %v", err)
		}
		if due {
			t.Fatalf("IsDue() after ack at offset %v = true, want false", offset)
		}
	}
}

func TestDailyRolloverResetsState(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2025, 12, 25, 10, 50, 0, 0, time.UTC)
	svc := newTestService(day1)

	if err := svc.MarkDone(ctx, "willy"); err != nil {
		t.Fatalf("MarkDone() error = %v", err)
	}
	if due, _ := svc.IsDue(ctx, "willy"); due {
		t.Fatalf("done today should suppress")
	}

	svc.SetClock(func() time.Time { return day1.Add(24 * time.Hour) })
	st, err := svc.Get(ctx, "willy")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if st.Done {
		t.Fatalf("Done should reset on new day")
	}
	if st.LastSlot != "" {
		t.Fatalf("LastSlot = %q, want empty after rollover", st.LastSlot)
	}
	if due, _ := svc.IsDue(ctx, "willy"); !due {
		t.Fatalf("fresh day due slot should fire")
	}
}

func TestReminderText(t *testing.T) {
	withName := Text("小明")
	if !strings.Contains(withName, "小明") {
		t.Fatalf("Text with name = %q, want it to address 小明", withName)
	}
	generic := Text("")
	if !strings.Contains(generic, "您") {
		t.Fatalf("Text without name = %q, want generic 您", generic)
	}
	if !strings.Contains(generic, "吃藥") {
		t.Fatalf("Text = %q, want medication wording", generic)
	}
}
