package inspo

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/nailgrow/media"
	"github.com/cppla/nailgrow/models"
)

// ErrInvalidImageURL is returned for blank gallery URLs and anything that is
// neither an absolute http(s) URL nor a served media path. Inline data: URLs
// are rejected; generated images are moved to media first.
var ErrInvalidImageURL = errors.New("invalid image url")

// Gallery stores the images the user saved.
type Gallery struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGallery creates a Gallery. A nil now uses time.Now.
func NewGallery(db *gorm.DB, now func() time.Time) *Gallery {
	if now == nil {
		now = time.Now
	}
	return &Gallery{db: db, now: now}
}

// SaveImage pins imageURL to the front of the gallery. Saving an image that is
// already pinned moves it to the front.
func (g *Gallery) SaveImage(ctx context.Context, imageURL string) (models.SavedImage, error) {
	imageURL = strings.TrimSpace(imageURL)
	if !validImageURL(imageURL) {
		return models.SavedImage{}, ErrInvalidImageURL
	}
	var saved models.SavedImage
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		img := models.SavedImage{ImageURL: imageURL, CreatedAt: g.now()}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "image_url"}},
			DoUpdates: clause.AssignmentColumns([]string{"created_at"}),
		}).Create(&img).Error; err != nil {
			return err
		}
		return tx.Where("image_url = ?", imageURL).First(&saved).Error
	})
	if err != nil {
		return models.SavedImage{}, err
	}
	return saved, nil
}

// RemoveImage unpins imageURL. Removing an unknown URL is not an error.
func (g *Gallery) RemoveImage(ctx context.Context, imageURL string) error {
	return g.db.WithContext(ctx).
		Where("image_url = ?", strings.TrimSpace(imageURL)).
		Delete(&models.SavedImage{}).Error
}

// ListSavedImages returns the gallery, most recently saved first.
func (g *Gallery) ListSavedImages(ctx context.Context) ([]models.SavedImage, error) {
	var images []models.SavedImage
	if err := g.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func validImageURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return strings.HasPrefix(u.Path, media.URLPrefix) && !strings.Contains(u.Path, "..")
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
