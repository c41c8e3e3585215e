package storage

import "context"

// SettingsStore reads and writes free-form preferences kept beside the ledger.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

var (
	_ SettingsStore = (*GormStore)(nil)
	_ SettingsStore = (*MemoryStore)(nil)
)

// NotificationsEnabled reports the daily reminder preference (off by default).
func NotificationsEnabled(ctx context.Context, s SettingsStore) (bool, error) {
	v, _, err := s.GetSetting(ctx, KeyNotificationsEnabled)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// SetNotificationsEnabled persists the daily reminder preference.
func SetNotificationsEnabled(ctx context.Context, s SettingsStore, enabled bool) error {
	v := "false"
	if enabled {
		v = "true"
	}
	return s.SetSetting(ctx, KeyNotificationsEnabled, v)
}
