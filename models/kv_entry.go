package models

import "time"

// KVEntry is one named scalar of the persisted key-value layout.
type KVEntry struct {
	Key       string    `gorm:"column:kv_key;primaryKey;size:128" json:"key"`
	Value     string    `gorm:"column:kv_value;size:255;not null;default:''" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name independent of naming strategy.
func (KVEntry) TableName() string {
	return "kv_entries"
}
