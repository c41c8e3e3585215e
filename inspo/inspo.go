// Package inspo implements the credit-gated inspiration features: keyword
// unlocks, generated designs and the saved gallery.
package inspo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/nailgrow/catalog"
	"github.com/cppla/nailgrow/generator"
	"github.com/cppla/nailgrow/ledger"
	"github.com/cppla/nailgrow/media"
	"github.com/cppla/nailgrow/models"
)

// ErrGenerationFailed wraps generator errors after the charge was refunded.
var ErrGenerationFailed = errors.New("design generation failed")

// ImageStore moves inline generated images out of the database.
type ImageStore interface {
	SaveDataURL(ctx context.Context, raw string) (string, error)
}

// Options configures a Service. Without Images, inline data: images are kept
// as returned by the generator.
type Options struct {
	UnlockCost   int
	GenerateCost int
	Picker       *catalog.Picker
	Images       ImageStore
	Now          func() time.Time
	Logger       *zap.Logger
}

// Service runs trend unlocks and design generation.
type Service struct {
	db           *gorm.DB
	wallet       ledger.Wallet
	gen          generator.Generator
	picker       *catalog.Picker
	images       ImageStore
	unlockCost   int
	generateCost int
	now          func() time.Time
	log          *zap.Logger
}

// Unlocked is the result of UnlockTrend and GenerateDesign.
type Unlocked struct {
	Item         models.TrendItem `json:"item"`
	PinterestURL string           `json:"pinterest_url"`
	NewBalance   int              `json:"new_balance"`
}

// NewService wires a Service.
func NewService(db *gorm.DB, wallet ledger.Wallet, gen generator.Generator, opts Options) *Service {
	s := &Service{
		db:           db,
		wallet:       wallet,
		gen:          gen,
		picker:       opts.Picker,
		images:       opts.Images,
		unlockCost:   opts.UnlockCost,
		generateCost: opts.GenerateCost,
		now:          opts.Now,
		log:          opts.Logger,
	}
	if s.picker == nil {
		s.picker = catalog.NewPicker(nil)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// UnlockTrend charges the unlock cost and reveals one random trend keyword.
func (s *Service) UnlockTrend(ctx context.Context) (Unlocked, error) {
	balance, err := ledger.Charge(ctx, s.wallet, s.unlockCost)
	if err != nil {
		return Unlocked{NewBalance: balance}, err
	}
	item := models.TrendItem{
		UID:       uuid.NewString(),
		Keyword:   s.picker.Pick(),
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		balance, err = ledger.Refund(ctx, s.wallet, s.unlockCost, fmt.Errorf("save trend item: %w", err), s.log)
		return Unlocked{NewBalance: balance}, err
	}
	s.log.Info("trend unlocked", zap.String("keyword", item.Keyword), zap.Int("credits", balance))
	return Unlocked{Item: item, PinterestURL: catalog.PinterestURL(item.Keyword), NewBalance: balance}, nil
}

// GenerateDesign charges the generation cost and asks the generator for a
// design image. A blank keyword picks a random one. The charge is refunded
// when generation fails.
func (s *Service) GenerateDesign(ctx context.Context, keyword string) (Unlocked, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		keyword = s.picker.Pick()
	}
	balance, err := ledger.Charge(ctx, s.wallet, s.generateCost)
	if err != nil {
		return Unlocked{NewBalance: balance}, err
	}

	res, err := s.gen.Generate(ctx, generator.Request{Kind: generator.KindImage, Prompt: designPrompt(keyword)})
	if err != nil {
		s.log.Warn("design generation failed", zap.String("keyword", keyword), zap.Error(err))
		balance, err = ledger.Refund(ctx, s.wallet, s.generateCost, fmt.Errorf("%w: %w", ErrGenerationFailed, err), s.log)
		return Unlocked{NewBalance: balance}, err
	}

	imageURL := res.ImageURL
	if s.images != nil && media.IsDataURL(imageURL) {
		if imageURL, err = s.images.SaveDataURL(ctx, imageURL); err != nil {
			balance, err = ledger.Refund(ctx, s.wallet, s.generateCost, fmt.Errorf("store design image: %w", err), s.log)
			return Unlocked{NewBalance: balance}, err
		}
	}

	item := models.TrendItem{
		UID:       uuid.NewString(),
		Keyword:   keyword,
		ImageURL:  imageURL,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		balance, err = ledger.Refund(ctx, s.wallet, s.generateCost, fmt.Errorf("save design: %w", err), s.log)
		return Unlocked{NewBalance: balance}, err
	}
	s.log.Info("design generated", zap.String("keyword", keyword), zap.String("model", res.Model))
	return Unlocked{Item: item, PinterestURL: catalog.PinterestURL(keyword), NewBalance: balance}, nil
}

// ListTrends returns unlocked items, newest first. limit <= 0 means no limit.
func (s *Service) ListTrends(ctx context.Context, limit int) ([]models.TrendItem, error) {
	var items []models.TrendItem
	q := s.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func designPrompt(keyword string) string {
	return fmt.Sprintf("Close-up photo of a manicured hand with %s nail art, trendy salon design, soft natural light, high detail", keyword)
}
