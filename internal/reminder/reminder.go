package reminder

import (
	"context"
	"fmt"
	"time"
)

// Service is the daily-resetting debounce gate for medication reminders.
// A reminder may fire at most once per 5-minute wall-clock slot, and not at
// all once the user has acknowledged taking their medication today.
type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: store, loc: loc, now: time.Now}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) today(t time.Time) string {
	return t.In(s.loc).Format("20060102")
}

// Slot buckets a timestamp into its 5-minute-aligned identifier,
// e.g. 20251225-1050.
func (s *Service) Slot(t time.Time) string {
	t = t.In(s.loc)
	return fmt.Sprintf("%s-%02d%02d", t.Format("20060102"), t.Hour(), t.Minute()/5*5)
}

// Get returns the user's current med state, creating or rolling it over.
func (s *Service) Get(ctx context.Context, userID string) (MedState, error) {
	return s.store.Get(ctx, userID, s.today(s.now()))
}

// MarkDone records that the user took their medication today. Idempotent;
// suppresses reminders for the remainder of the day.
func (s *Service) MarkDone(ctx context.Context, userID string) error {
	return s.store.MarkDone(ctx, userID, s.today(s.now()))
}

// IsDue reports whether a reminder should fire right now. This is a
// side-effecting check-and-set: on returning true the slot is recorded, so a
// second call within the same slot returns false. The check is invoked on
// every chat turn; without the slot gate a chatty user would get a reminder
// appended to every reply.
func (s *Service) IsDue(ctx context.Context, userID string) (bool, error) {
	now := s.now().In(s.loc)
	if now.Minute()%5 != 0 {
		return false, nil
	}

	today := s.today(now)
	st, err := s.store.Get(ctx, userID, today)
	if err != nil {
		return false, err
	}
	if st.Done {
		return false, nil
	}

	return s.store.ClaimSlot(ctx, userID, today, s.Slot(now))
}

// Text formats the gentle reminder, addressing the user by name when known.
func Text(name string) string {
	who := "您～"
	if name != "" {
		who = name + "～"
	}
	return fmt.Sprintf("對了 %s溫馨提醒一下：差不多該吃藥了。吃完跟我說「我吃了」，我今天就不再提醒您囉。", who)
}
