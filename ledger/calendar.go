package ledger

import "time"

// DateLayout is the calendar date format used for date keys.
const DateLayout = "2006-01-02"

// DateKey formats t as a local calendar date (YYYY-MM-DD).
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// resolveDate places a date-only check-in at midnight of that date in loc.
func resolveDate(rec Record, loc *time.Location) (Record, error) {
	if rec.LastCheckinDate == "" {
		return rec, nil
	}
	if rec.LastCheckinAt == nil {
		d, err := time.ParseInLocation(DateLayout, rec.LastCheckinDate, loc)
		if err != nil {
			return Record{}, err
		}
		rec.LastCheckinAt = &d
	}
	rec.LastCheckinDate = ""
	return rec, nil
}

// civilDay maps t onto UTC midnight of its calendar date in loc, so that
// subtracting two civil days never sees a DST hour.
func civilDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of calendar days from a to b in loc.
// It is negative when b falls on an earlier date than a.
func daysBetween(a, b time.Time, loc *time.Location) int {
	return int(civilDay(b, loc).Sub(civilDay(a, loc)) / (24 * time.Hour))
}
