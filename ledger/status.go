package ledger

import "time"

// evaluate derives the status of rec at now without touching storage. The
// returned record equals rec except that the current streak is zeroed when a
// break was detected.
func evaluate(rec Record, now time.Time, loc *time.Location) (Status, Record) {
	st := Status{
		CurrentStreak:      rec.CurrentStreak,
		LongestStreak:      rec.LongestStreak,
		TotalCheckins:      rec.TotalCheckins,
		LastCheckinAt:      rec.LastCheckinAt,
		Credits:            rec.Credits,
		OnboardingComplete: rec.OnboardingComplete,
	}
	if rec.LastCheckinAt == nil {
		return st, rec
	}

	gap := daysBetween(*rec.LastCheckinAt, now, loc)
	switch {
	case gap <= 0:
		// a last check-in dated after today means the clock moved backwards;
		// treat it like today so it cannot be farmed for extra credits
		st.HasCheckedInToday = true
	case gap == 1:
		// still alive, waiting for today's check-in
	default:
		if rec.CurrentStreak > 0 {
			rec.CurrentStreak = 0
			st.CurrentStreak = 0
			st.StreakBroken = true
			st.DaysMissed = gap
		}
	}
	return st, rec
}
