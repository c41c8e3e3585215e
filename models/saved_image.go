package models

import "time"

// SavedImage is an image the user pinned to their gallery.
type SavedImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ImageURL  string    `gorm:"uniqueIndex;size:768;not null" json:"image_url"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
