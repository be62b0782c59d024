package reminder

import (
	"context"
	"strings"
)

// MedState is the per-user daily medication reminder record. Exactly one row
// exists per user; it rolls over to a fresh state on the first read of a new
// calendar day.
type MedState struct {
	UserID   string `json:"user_id"`
	Day      string `json:"day"` // YYYYMMDD in the service's local timezone
	Done     bool   `json:"done"`
	LastSlot string `json:"last_slot"` // e.g. 20251225-1050, 5-minute aligned
}

// Store persists MedState rows. Implementations must make ClaimSlot atomic
// per user so two concurrent turns cannot both fire the same slot's reminder.
type Store interface {
	// Get lazily creates the row and resets done/last_slot when the stored
	// day differs from today.
	Get(ctx context.Context, userID, today string) (MedState, error)
	// MarkDone records today's acknowledgment. Idempotent.
	MarkDone(ctx context.Context, userID, today string) error
	// ClaimSlot sets last_slot=slot iff the user is not done today and the
	// slot has not fired yet. Reports whether the claim won.
	ClaimSlot(ctx context.Context, userID, today, slot string) (bool, error)
	Close() error
}

// NewStore creates a postgres-backed store when configured, otherwise in-memory.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
