package models

import "time"

// TrendItem is an unlocked inspiration entry. ImageURL is empty for keyword
// unlocks and set for generated designs; mediumtext leaves room for an inline
// image on MySQL.
type TrendItem struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UID       string    `gorm:"uniqueIndex;size:36;not null" json:"id"`
	Keyword   string    `gorm:"size:128;not null" json:"keyword"`
	ImageURL  string    `gorm:"type:mediumtext" json:"image_url"`
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
}
