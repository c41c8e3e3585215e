package ledger

import (
	"context"
	"time"
)

// Record is the persisted streak ledger of the installed app instance.
type Record struct {
	CurrentStreak      int        `json:"current_streak"`
	LongestStreak      int        `json:"longest_streak"`
	TotalCheckins      int        `json:"total_checkins"`
	LastCheckinAt      *time.Time `json:"last_checkin_at"`
	Credits            int        `json:"credits"`
	OnboardingComplete bool       `json:"onboarding_complete"`
	// LastCheckinDate holds a date-only (YYYY-MM-DD) last check-in written by
	// early clients. The ledger resolves it in its own location on load.
	LastCheckinDate string `json:"-"`
}

// Store persists the whole ledger record. Save must write every field in one
// atomic operation; Load reports initialized=false when the schema version tag
// has never been written.
type Store interface {
	Load(ctx context.Context) (rec Record, initialized bool, err error)
	Save(ctx context.Context, rec Record) error
}
