package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCheckinReward is the number of credits granted per check-in.
const DefaultCheckinReward = 1

// Status is the derived view returned by Ledger.Status. It is computed on
// every query and never stored.
type Status struct {
	CurrentStreak      int        `json:"current_streak"`
	LongestStreak      int        `json:"longest_streak"`
	TotalCheckins      int        `json:"total_checkins"`
	LastCheckinAt      *time.Time `json:"last_checkin_at"`
	Credits            int        `json:"credits"`
	OnboardingComplete bool       `json:"onboarding_complete"`
	HasCheckedInToday  bool       `json:"has_checked_in_today"`
	StreakBroken       bool       `json:"streak_broken"`
	DaysMissed         int        `json:"days_missed"`
}

// CheckInResult describes the outcome of a check-in.
type CheckInResult struct {
	Success          bool `json:"success"`
	NewStreak        int  `json:"new_streak"`
	NewTotalCheckins int  `json:"new_total_checkins"`
	NewCreditBalance int  `json:"new_credit_balance"`
}

// SpendResult describes the outcome of a credit spend.
type SpendResult struct {
	Success    bool `json:"success"`
	NewBalance int  `json:"new_balance"`
}

// Options tunes a Ledger. Zero values fall back to defaults.
type Options struct {
	CheckinReward int
	Location      *time.Location
	Now           func() time.Time
	Logger        *zap.Logger
}

// Ledger owns the streak and credit state of a single user. Every operation
// runs inside one critical section that reads the whole record, mutates it in
// memory and writes it back as a whole.
type Ledger struct {
	mu     sync.Mutex
	store  Store
	reward int
	loc    *time.Location
	now    func() time.Time
	log    *zap.Logger
}

// New creates a Ledger on top of store.
func New(store Store, opts Options) *Ledger {
	l := &Ledger{
		store:  store,
		reward: opts.CheckinReward,
		loc:    opts.Location,
		now:    opts.Now,
		log:    opts.Logger,
	}
	if l.reward <= 0 {
		l.reward = DefaultCheckinReward
	}
	if l.loc == nil {
		l.loc = time.Local
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	return l
}

// Location returns the timezone used for calendar-day comparisons.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Open performs the one-time first-run initialization. It writes the zero
// record together with the schema version tag when the tag is absent and is a
// no-op afterwards.
func (l *Ledger) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, initialized, err := l.store.Load(ctx)
	if err != nil {
		return storageError("open ledger", err)
	}
	if initialized {
		return nil
	}
	if rec, err = resolveDate(rec, l.loc); err != nil {
		return storageError("open ledger", err)
	}
	// keys may exist without the tag (written by an older client); keep them
	if err := l.store.Save(ctx, rec); err != nil {
		return storageError("initialize ledger", err)
	}
	l.log.Info("ledger initialized", zap.Int("current_streak", rec.CurrentStreak))
	return nil
}

// Snapshot returns the stored record without evaluating streak breaks.
func (l *Ledger) Snapshot(ctx context.Context) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Status reports the current streak state.
//
// This read has one side effect: when two or more calendar days have passed
// since the last check-in and the stored streak is still positive, the streak
// is reset to zero and persisted. StreakBroken and DaysMissed are reported only
// by the call that performed that reset.
func (l *Ledger) Status(ctx context.Context) (Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.load(ctx)
	if err != nil {
		return Status{}, err
	}
	st, next := evaluate(rec, l.now(), l.loc)
	if st.StreakBroken {
		if err := l.save(ctx, next); err != nil {
			return Status{}, err
		}
		l.log.Info("streak broken",
			zap.Int("previous_streak", rec.CurrentStreak),
			zap.Int("days_missed", st.DaysMissed))
	}
	return st, nil
}

// CheckIn records today's check-in, extending the streak and granting the
// check-in reward. A second call on the same calendar day fails with
// ErrAlreadyCheckedIn and changes nothing.
func (l *Ledger) CheckIn(ctx context.Context) (CheckInResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.load(ctx)
	if err != nil {
		return CheckInResult{}, err
	}
	now := l.now()
	st, next := evaluate(rec, now, l.loc)
	if st.HasCheckedInToday {
		return CheckInResult{
			NewStreak:        rec.CurrentStreak,
			NewTotalCheckins: rec.TotalCheckins,
			NewCreditBalance: rec.Credits,
		}, ErrAlreadyCheckedIn
	}

	next.CurrentStreak++
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.TotalCheckins++
	next.Credits += l.reward
	at := now
	next.LastCheckinAt = &at

	if err := l.save(ctx, next); err != nil {
		return CheckInResult{}, err
	}
	l.log.Info("checked in",
		zap.String("date", DateKey(now, l.loc)),
		zap.Int("streak", next.CurrentStreak),
		zap.Int("credits", next.Credits))

	return CheckInResult{
		Success:          true,
		NewStreak:        next.CurrentStreak,
		NewTotalCheckins: next.TotalCheckins,
		NewCreditBalance: next.Credits,
	}, nil
}

// ResetStreak is the user-initiated slip-up reset. Only the current streak is
// zeroed.
func (l *Ledger) ResetStreak(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.load(ctx)
	if err != nil {
		return err
	}
	if rec.CurrentStreak == 0 {
		return nil
	}
	rec.CurrentStreak = 0
	if err := l.save(ctx, rec); err != nil {
		return err
	}
	l.log.Info("streak reset by user")
	return nil
}

// GrantCredits adds amount to the balance and returns the new balance.
func (l *Ledger) GrantCredits(ctx context.Context, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	rec.Credits += amount
	if err := l.save(ctx, rec); err != nil {
		return 0, err
	}
	return rec.Credits, nil
}

// SpendCredits deducts amount from the balance. The spend either succeeds in
// full or leaves the balance untouched.
func (l *Ledger) SpendCredits(ctx context.Context, amount int) (SpendResult, error) {
	if amount <= 0 {
		return SpendResult{}, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.load(ctx)
	if err != nil {
		return SpendResult{}, err
	}
	if rec.Credits < amount {
		return SpendResult{NewBalance: rec.Credits}, ErrInsufficientCredits
	}
	rec.Credits -= amount
	if err := l.save(ctx, rec); err != nil {
		return SpendResult{}, err
	}
	return SpendResult{Success: true, NewBalance: rec.Credits}, nil
}

// CompleteOnboarding persists the onboarding-complete flag.
func (l *Ledger) CompleteOnboarding(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.load(ctx)
	if err != nil {
		return err
	}
	if rec.OnboardingComplete {
		return nil
	}
	rec.OnboardingComplete = true
	return l.save(ctx, rec)
}

// ClearAll resets every field to its initial state, equivalent to recreating
// the ledger.
func (l *Ledger) ClearAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.save(ctx, Record{}); err != nil {
		return err
	}
	l.log.Warn("ledger cleared")
	return nil
}

func (l *Ledger) load(ctx context.Context) (Record, error) {
	rec, _, err := l.store.Load(ctx)
	if err != nil {
		return Record{}, storageError("load ledger", err)
	}
	if rec, err = resolveDate(rec, l.loc); err != nil {
		return Record{}, storageError("load ledger", err)
	}
	return rec, nil
}

func (l *Ledger) save(ctx context.Context, rec Record) error {
	if err := l.store.Save(ctx, rec); err != nil {
		return storageError("save ledger", err)
	}
	return nil
}

// Credits returns the current balance.
func (l *Ledger) Credits(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	return rec.Credits, nil
}
