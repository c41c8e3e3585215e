package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/nailgrow/chat"
	"github.com/cppla/nailgrow/config"
	"github.com/cppla/nailgrow/generator"
	"github.com/cppla/nailgrow/inspo"
	"github.com/cppla/nailgrow/ledger"
	"github.com/cppla/nailgrow/media"
	"github.com/cppla/nailgrow/models"
	"github.com/cppla/nailgrow/routes"
	"github.com/cppla/nailgrow/storage"
	"github.com/cppla/nailgrow/utils"
)

// app holds the wired services for one process.
type app struct {
	cfg      config.AppConfig
	db       *gorm.DB
	redis    *redis.Client
	ledger   *ledger.Ledger
	settings *storage.GormStore
	services routes.Services
}

// newApp opens storage, initializes the ledger and wires the services.
func newApp(ctx context.Context, cfg config.AppConfig) (*app, error) {
	db, err := config.InitDatabase(cfg,
		&models.KVEntry{}, &models.TrendItem{}, &models.SavedImage{}, &models.ChatMessage{})
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	a := &app{cfg: cfg, db: db, settings: storage.NewGormStore(db)}

	store, err := a.ledgerStore()
	if err != nil {
		a.close()
		return nil, err
	}
	a.ledger = ledger.New(store, ledger.Options{
		CheckinReward: cfg.CheckinReward,
		Location:      cfg.Location(),
		Logger:        utils.Logger.Named("ledger"),
	})
	if err := a.ledger.Open(ctx); err != nil {
		a.close()
		return nil, err
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	images := media.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL, nil)
	a.services = routes.Services{
		Ledger: a.ledger,
		Inspo: inspo.NewService(db, a.ledger, gen, inspo.Options{
			UnlockCost:   cfg.UnlockCost,
			GenerateCost: cfg.GenerateCost,
			Images:       images,
			Logger:       utils.Logger.Named("inspo"),
		}),
		Gallery: inspo.NewGallery(db, nil),
		Chat: chat.NewService(db, a.ledger, a.ledger, gen, chat.Options{
			Cost:   cfg.ChatCost,
			Logger: utils.Logger.Named("chat"),
		}),
		Settings: a.settings,
		MediaDir: images.Dir(),
	}
	return a, nil
}

func (a *app) ledgerStore() (ledger.Store, error) {
	switch a.cfg.LedgerBackend {
	case config.BackendRedis:
		client, err := utils.NewRedis(a.cfg)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return storage.NewRedisStore(client, a.cfg.RedisLedgerKey), nil
	case config.BackendMemory:
		utils.Logger.Warn("memory ledger backend selected, progress is lost on exit")
		return storage.NewMemoryStore(), nil
	case config.BackendDatabase, "":
		return a.settings, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", a.cfg.LedgerBackend)
	}
}

func newGenerator(cfg config.AppConfig) (generator.Generator, error) {
	if cfg.GeneratorAPIKey == "" {
		utils.Logger.Warn("no generator api key configured, using loopback generator")
		return generator.NewLoopback(), nil
	}
	return generator.NewHTTP(generator.Config{
		APIKey:     cfg.GeneratorAPIKey,
		BaseURL:    cfg.GeneratorBaseURL,
		TextModel:  cfg.GeneratorTextModel,
		ImageModel: cfg.GeneratorImageModel,
		Timeout:    time.Duration(cfg.GeneratorTimeoutSec) * time.Second,
	})
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			utils.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = utils.Logger.Sync()
}
