package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/nailgrow/ledger"
	"github.com/cppla/nailgrow/models"
)

// GormStore keeps the key layout in the kv_entries table. It works on any
// gorm dialect that supports upserts (SQLite, MySQL).
type GormStore struct {
	db *gorm.DB
}

var _ ledger.Store = (*GormStore)(nil)

// NewGormStore wraps an initialized gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the kv_entries table when missing.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.KVEntry{})
}

// Load reads every ledger key in one query.
func (s *GormStore) Load(ctx context.Context) (ledger.Record, bool, error) {
	var rows []models.KVEntry
	if err := s.db.WithContext(ctx).Where("kv_key IN ?", LedgerKeys).Find(&rows).Error; err != nil {
		return ledger.Record{}, false, err
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return DecodeRecord(values)
}

// Save upserts the whole key set in a single transaction.
func (s *GormStore) Save(ctx context.Context, rec ledger.Record) error {
	return s.putAll(ctx, EncodeRecord(rec))
}

// GetSetting returns a free-form value stored next to the ledger keys.
func (s *GormStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var row models.KVEntry
	err := s.db.WithContext(ctx).Where("kv_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

// SetSetting upserts a single free-form value.
func (s *GormStore) SetSetting(ctx context.Context, key, value string) error {
	return s.putAll(ctx, map[string]string{key: value})
}

func (s *GormStore) putAll(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := time.Now()
	entries := make([]models.KVEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, models.KVEntry{Key: key, Value: values[key], UpdatedAt: now})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kv_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"kv_value", "updated_at"}),
		}).Create(&entries).Error
	})
}
