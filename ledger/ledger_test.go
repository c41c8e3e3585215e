package ledger_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/nailgrow/ledger"
	"github.com/cppla/nailgrow/storage"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

const day = 24 * time.Hour

var start = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newLedger(t *testing.T, opts ledger.Options) (*ledger.Ledger, *storage.MemoryStore, *clock) {
	t.Helper()
	c := &clock{t: start}
	store := storage.NewMemoryStore()
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	opts.Now = c.Now
	l := ledger.New(store, opts)
	require.NoError(t, l.Open(context.Background()))
	return l, store, c
}

func checkInDays(t *testing.T, l *ledger.Ledger, c *clock, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if i > 0 {
			c.Advance(day)
		}
		_, err := l.CheckIn(context.Background())
		require.NoError(t, err)
	}
}

func TestOpenInitializesOnce(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newLedger(t, ledger.Options{})

	v, ok, err := store.GetSetting(ctx, storage.KeySchemaVersion)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, storage.SchemaVersion, v)

	store.Put(storage.KeyCredits, "7")
	require.NoError(t, l.Open(ctx))

	rec, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, rec.Credits)
}

func TestOpenKeepsUntaggedValues(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.Put(storage.KeyStreak, "3")
	store.Put(storage.KeyLongestStreak, "5")

	l := ledger.New(store, ledger.Options{})
	require.NoError(t, l.Open(ctx))

	_, initialized, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, initialized)

	rec, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.CurrentStreak)
	assert.Equal(t, 5, rec.LongestStreak)
}

func TestDateOnlyCheckinUsesLedgerLocation(t *testing.T) {
	local := time.Local
	time.Local = time.UTC
	t.Cleanup(func() { time.Local = local })

	ctx := context.Background()
	loc := time.FixedZone("UTC-7", -7*60*60)
	for _, tagged := range []bool{true, false} {
		store := storage.NewMemoryStore()
		store.Put(storage.KeyStreak, "3")
		store.Put(storage.KeyLongestStreak, "3")
		store.Put(storage.KeyLastCheckin, "2024-05-01")
		if tagged {
			store.Put(storage.KeySchemaVersion, storage.SchemaVersion)
		}
		now := time.Date(2024, 5, 2, 10, 0, 0, 0, loc)
		l := ledger.New(store, ledger.Options{Location: loc, Now: func() time.Time { return now }})
		require.NoError(t, l.Open(ctx))

		st, err := l.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, st.CurrentStreak, "tagged=%v", tagged)
		assert.False(t, st.StreakBroken, "tagged=%v", tagged)
		assert.False(t, st.HasCheckedInToday, "tagged=%v", tagged)
		require.NotNil(t, st.LastCheckinAt)
		assert.Equal(t, "2024-05-01", ledger.DateKey(*st.LastCheckinAt, loc))

		res, err := l.CheckIn(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, res.NewStreak)

		rec, _, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, rec.LastCheckinDate)
		require.NotNil(t, rec.LastCheckinAt)
		assert.Equal(t, "2024-05-02", ledger.DateKey(*rec.LastCheckinAt, loc))
	}
}

func TestFreshLedgerStatus(t *testing.T) {
	l, _, _ := newLedger(t, ledger.Options{})

	st, err := l.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ledger.Status{}, st)
}

func TestCheckInConsecutiveDays(t *testing.T) {
	ctx := context.Background()
	l, _, c := newLedger(t, ledger.Options{})

	for i := 1; i <= 5; i++ {
		res, err := l.CheckIn(ctx)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, i, res.NewStreak)
		assert.Equal(t, i, res.NewTotalCheckins)
		assert.Equal(t, i, res.NewCreditBalance)
		c.Advance(day)
	}

	c.Advance(-day)
	st, err := l.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, st.CurrentStreak)
	assert.Equal(t, 5, st.LongestStreak)
	assert.Equal(t, 5, st.TotalCheckins)
	assert.Equal(t, 5, st.Credits)
	assert.True(t, st.HasCheckedInToday)
	require.NotNil(t, st.LastCheckinAt)
	assert.True(t, st.LastCheckinAt.Equal(c.Now()))
}

func TestCheckInTwiceSameDay(t *testing.T) {
	ctx := context.Background()
	l, _, c := newLedger(t, ledger.Options{})

	first, err := l.CheckIn(ctx)
	require.NoError(t, err)
	before, err := l.Snapshot(ctx)
	require.NoError(t, err)

	c.Advance(10 * time.Hour)
	second, err := l.CheckIn(ctx)
	assert.ErrorIs(t, err, ledger.ErrAlreadyCheckedIn)
	assert.False(t, second.Success)
	assert.Equal(t, first.NewStreak, second.NewStreak)
	assert.Equal(t, first.NewTotalCheckins, second.NewTotalCheckins)
	assert.Equal(t, first.NewCreditBalance, second.NewCreditBalance)

	after, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.CurrentStreak, after.CurrentStreak)
	assert.Equal(t, before.TotalCheckins, after.TotalCheckins)
	assert.Equal(t, before.Credits, after.Credits)
	assert.True(t, before.LastCheckinAt.Equal(*after.LastCheckinAt))
}

func TestCheckInAcrossMidnight(t *testing.T) {
	ctx := context.Background()
	l, _, c := newLedger(t, ledger.Options{})

	c.Set(time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC))
	_, err := l.CheckIn(ctx)
	require.NoError(t, err)

	c.Set(time.Date(2024, 5, 2, 0, 1, 0, 0, time.UTC))
	st, err := l.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.HasCheckedInToday)
	assert.False(t, st.StreakBroken)

	res, err := l.CheckIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewStreak)
}

func TestStatusBreaksStreakAfterGap(t *testing.T) {
	ctx := context.Background()
	l, _, c := newLedger(t, ledger.Options{})
	checkInDays(t, l, c, 3)
	last, err := l.Snapshot(ctx)
	require.NoError(t, err)

	c.Advance(3 * day)
	st, err := l.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.StreakBroken)
	assert.Equal(t, 3, st.DaysMissed)
	assert.Equal(t, 0, st.CurrentStreak)
	assert.Equal(t, 3, st.LongestStreak)
	assert.Equal(t, 3, st.TotalCheckins)
	assert.Equal(t, 3, st.Credits)
	assert.False(t, st.HasCheckedInToday)
	require.NotNil(t, st.LastCheckinAt)
	assert.True(t, st.LastCheckinAt.Equal(*last.LastCheckinAt))

	rec, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.CurrentStreak)

	// the break is reported once
	again, err := l.Status(ctx)
	require.NoError(t, err)
	assert.False(t, again.StreakBroken)
	assert.Zero(t, again.DaysMissed)
	assert.Equal(t, 0, again.CurrentStreak)
}

func TestStatusKeepsStreakAfterOneDay(t *testing.T) {
	ctx := context.Background()
	l, _, c := newLedger(t, ledger.Options{})
	checkInDays(t, l, c, 2)

	c.Advance(day + 14*time.Hour)
	st, err := l.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.StreakBroken)
	assert.False(t, st.HasCheckedInToday)
	assert.Equal(t, 2, st.CurrentStreak)
}

func TestCheckInAfterBreakStartsOver(t *testing.T) {
	ctx := context.Background()
	l, _, c := newLedger(t, ledger.Options{})
	checkInDays(t, l, c, 4)

	c.Advance(5 * day)
	res, err := l.CheckIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewStreak)
	assert.Equal(t, 5, res.NewTotalCheckins)
	assert.Equal(t, 5, res.NewCreditBalance)

	rec, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, rec.LongestStreak)
	assert.GreaterOrEqual(t, rec.LongestStreak, rec.CurrentStreak)
	assert.GreaterOrEqual(t, rec.TotalCheckins, rec.CurrentStreak)
}

func TestClockMovedBackwards(t *testing.T) {
	ctx := context.Background()
	l, _, c := newLedger(t, ledger.Options{})
	checkInDays(t, l, c, 1)

	c.Advance(-2 * day)
	st, err := l.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.HasCheckedInToday)
	assert.False(t, st.StreakBroken)

	_, err = l.CheckIn(ctx)
	assert.ErrorIs(t, err, ledger.ErrAlreadyCheckedIn)
}

func TestCheckinReward(t *testing.T) {
	l, _, _ := newLedger(t, ledger.Options{CheckinReward: 3})

	res, err := l.CheckIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.NewCreditBalance)
}

func TestCheckInUsesLocation(t *testing.T) {
	ctx := context.Background()
	l, _, c := newLedger(t, ledger.Options{Location: time.FixedZone("UTC-8", -8*3600)})

	// 2024-05-01 06:00 local
	c.Set(time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC))
	_, err := l.CheckIn(ctx)
	require.NoError(t, err)

	// still 2024-05-01 local even though UTC rolled over
	c.Set(time.Date(2024, 5, 2, 7, 0, 0, 0, time.UTC))
	_, err = l.CheckIn(ctx)
	assert.ErrorIs(t, err, ledger.ErrAlreadyCheckedIn)

	c.Set(time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC))
	res, err := l.CheckIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewStreak)
}

func TestResetStreak(t *testing.T) {
	ctx := context.Background()
	l, _, c := newLedger(t, ledger.Options{})
	checkInDays(t, l, c, 3)
	before, err := l.Snapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, l.ResetStreak(ctx))

	after, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, after.CurrentStreak)
	assert.Equal(t, before.LongestStreak, after.LongestStreak)
	assert.Equal(t, before.TotalCheckins, after.TotalCheckins)
	assert.Equal(t, before.Credits, after.Credits)
	assert.True(t, before.LastCheckinAt.Equal(*after.LastCheckinAt))

	// today is still used up
	_, err = l.CheckIn(ctx)
	assert.ErrorIs(t, err, ledger.ErrAlreadyCheckedIn)

	c.Advance(day)
	res, err := l.CheckIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewStreak)
}

func TestGrantCredits(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, ledger.Options{})

	balance, err := l.GrantCredits(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	_, err = l.GrantCredits(ctx, 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	_, err = l.GrantCredits(ctx, -2)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	credits, err := l.Credits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, credits)
}

func TestSpendCredits(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, ledger.Options{})

	res, err := l.SpendCredits(ctx, 1)
	assert.ErrorIs(t, err, ledger.ErrInsufficientCredits)
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.NewBalance)

	_, err = l.CheckIn(ctx)
	require.NoError(t, err)

	_, err = l.SpendCredits(ctx, 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	res, err = l.SpendCredits(ctx, 1)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.NewBalance)

	res, err = l.SpendCredits(ctx, 1)
	assert.ErrorIs(t, err, ledger.ErrInsufficientCredits)
	assert.Equal(t, 0, res.NewBalance)
}

func TestSpendMoreThanBalanceLeavesBalance(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, ledger.Options{})
	_, err := l.GrantCredits(ctx, 3)
	require.NoError(t, err)

	res, err := l.SpendCredits(ctx, 4)
	assert.ErrorIs(t, err, ledger.ErrInsufficientCredits)
	assert.Equal(t, 3, res.NewBalance)

	credits, err := l.Credits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, credits)
}

func TestConcurrentSpendsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, ledger.Options{})
	_, err := l.GrantCredits(ctx, 1)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		refused   atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.SpendCredits(ctx, 1)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ledger.ErrInsufficientCredits):
				refused.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(15), refused.Load())
	credits, err := l.Credits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, credits)
}

func TestConcurrentCheckInsRecordOnce(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, ledger.Options{})

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.CheckIn(ctx); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	rec, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.TotalCheckins)
	assert.Equal(t, 1, rec.Credits)
}

func TestCompleteOnboarding(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, ledger.Options{})

	require.NoError(t, l.CompleteOnboarding(ctx))
	require.NoError(t, l.CompleteOnboarding(ctx))

	st, err := l.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.OnboardingComplete)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	l, store, c := newLedger(t, ledger.Options{})
	require.NoError(t, l.CompleteOnboarding(ctx))
	checkInDays(t, l, c, 3)
	_, err := l.GrantCredits(ctx, 10)
	require.NoError(t, err)

	require.NoError(t, l.ClearAll(ctx))

	st, err := l.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.Status{}, st)

	_, initialized, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, initialized)

	res, err := l.CheckIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewStreak)
	assert.Equal(t, 1, res.NewTotalCheckins)
}

// flakyStore fails Load or Save on demand.
type flakyStore struct {
	ledger.Store
	failLoad bool
	failSave bool
}

var errDisk = errors.New("disk on fire")

func (s *flakyStore) Load(ctx context.Context) (ledger.Record, bool, error) {
	if s.failLoad {
		return ledger.Record{}, false, errDisk
	}
	return s.Store.Load(ctx)
}

func (s *flakyStore) Save(ctx context.Context, rec ledger.Record) error {
	if s.failSave {
		return errDisk
	}
	return s.Store.Save(ctx, rec)
}

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: start}
	store := &flakyStore{Store: storage.NewMemoryStore()}
	l := ledger.New(store, ledger.Options{Now: c.Now, Location: time.UTC})
	require.NoError(t, l.Open(ctx))
	_, err := l.CheckIn(ctx)
	require.NoError(t, err)
	before, err := l.Snapshot(ctx)
	require.NoError(t, err)

	store.failSave = true
	c.Advance(day)
	_, err = l.CheckIn(ctx)
	assert.ErrorIs(t, err, ledger.ErrStorageUnavailable)
	assert.ErrorIs(t, err, errDisk)
	_, err = l.SpendCredits(ctx, 1)
	assert.ErrorIs(t, err, ledger.ErrStorageUnavailable)
	_, err = l.GrantCredits(ctx, 1)
	assert.ErrorIs(t, err, ledger.ErrStorageUnavailable)

	store.failSave = false
	after, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.CurrentStreak, after.CurrentStreak)
	assert.Equal(t, before.TotalCheckins, after.TotalCheckins)
	assert.Equal(t, before.Credits, after.Credits)
	assert.True(t, before.LastCheckinAt.Equal(*after.LastCheckinAt))

	store.failLoad = true
	_, err = l.Status(ctx)
	assert.ErrorIs(t, err, ledger.ErrStorageUnavailable)
	assert.ErrorIs(t, l.Open(ctx), ledger.ErrStorageUnavailable)

	// the retried check-in goes through once storage is back
	store.failLoad = false
	res, err := l.CheckIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewStreak)
}
