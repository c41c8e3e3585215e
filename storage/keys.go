package storage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cppla/nailgrow/ledger"
)

// Persisted key layout. An absent key is read as the zero value of its type.
const (
	KeyPrefix               = "@nailgrow:"
	KeyOnboardingComplete   = KeyPrefix + "onboarding_complete"
	KeyStreak               = KeyPrefix + "streak"
	KeyLongestStreak        = KeyPrefix + "longest_streak"
	KeyTotalCheckins        = KeyPrefix + "total_checkins"
	KeyLastCheckin          = KeyPrefix + "last_checkin"
	KeyCredits              = KeyPrefix + "credits"
	KeySchemaVersion        = KeyPrefix + "schema_version"
	KeyNotificationsEnabled = KeyPrefix + "notifications_enabled"
)

// SchemaVersion is written alongside every ledger save.
const SchemaVersion = "1"

// LedgerKeys lists every key owned by the ledger record, version tag included.
var LedgerKeys = []string{
	KeyOnboardingComplete,
	KeyStreak,
	KeyLongestStreak,
	KeyTotalCheckins,
	KeyLastCheckin,
	KeyCredits,
	KeySchemaVersion,
}

// EncodeRecord flattens rec into the key layout. An unset timestamp is
// written as an empty string.
func EncodeRecord(rec ledger.Record) map[string]string {
	last := rec.LastCheckinDate
	if rec.LastCheckinAt != nil {
		last = rec.LastCheckinAt.Format(time.RFC3339Nano)
	}
	return map[string]string{
		KeyOnboardingComplete: strconv.FormatBool(rec.OnboardingComplete),
		KeyStreak:             strconv.Itoa(rec.CurrentStreak),
		KeyLongestStreak:      strconv.Itoa(rec.LongestStreak),
		KeyTotalCheckins:      strconv.Itoa(rec.TotalCheckins),
		KeyLastCheckin:        last,
		KeyCredits:            strconv.Itoa(rec.Credits),
		KeySchemaVersion:      SchemaVersion,
	}
}

// DecodeRecord rebuilds a record from stored values. initialized reports
// whether the schema version tag was present.
func DecodeRecord(values map[string]string) (rec ledger.Record, initialized bool, err error) {
	if rec.CurrentStreak, err = decodeCount(values, KeyStreak); err != nil {
		return ledger.Record{}, false, err
	}
	if rec.LongestStreak, err = decodeCount(values, KeyLongestStreak); err != nil {
		return ledger.Record{}, false, err
	}
	if rec.TotalCheckins, err = decodeCount(values, KeyTotalCheckins); err != nil {
		return ledger.Record{}, false, err
	}
	if rec.Credits, err = decodeCount(values, KeyCredits); err != nil {
		return ledger.Record{}, false, err
	}
	if rec.LastCheckinAt, rec.LastCheckinDate, err = decodeTime(values[KeyLastCheckin]); err != nil {
		return ledger.Record{}, false, err
	}
	rec.OnboardingComplete = values[KeyOnboardingComplete] == "true"
	_, initialized = values[KeySchemaVersion]
	return rec, initialized, nil
}

func decodeCount(values map[string]string, key string) (int, error) {
	raw, ok := values[key]
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("decode %s: negative value %d", key, n)
	}
	return n, nil
}

// decodeTime parses a full timestamp. Date-only values written by early
// clients carry no zone and are returned as-is for the ledger to place.
func decodeTime(raw string) (*time.Time, string, error) {
	if raw == "" {
		return nil, "", nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return &t, "", nil
	}
	if _, derr := time.Parse(ledger.DateLayout, raw); derr == nil {
		return nil, raw, nil
	}
	return nil, "", fmt.Errorf("decode %s: %w", KeyLastCheckin, err)
}
