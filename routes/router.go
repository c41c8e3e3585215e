package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/nailgrow/chat"
	"github.com/cppla/nailgrow/config"
	"github.com/cppla/nailgrow/controllers"
	"github.com/cppla/nailgrow/inspo"
	"github.com/cppla/nailgrow/ledger"
	"github.com/cppla/nailgrow/media"
	"github.com/cppla/nailgrow/middleware"
	"github.com/cppla/nailgrow/storage"
	"github.com/cppla/nailgrow/utils"
)

// Services are the domain services the API exposes.
type Services struct {
	Ledger   *ledger.Ledger
	Inspo    *inspo.Service
	Gallery  *inspo.Gallery
	Chat     *chat.Service
	Settings storage.SettingsStore
	// MediaDir is served under media.URLPrefix when set.
	MediaDir string
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(svc Services) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// access log goes to its own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, utils.RotateOptions{
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	if svc.MediaDir != "" {
		r.Static(strings.TrimSuffix(media.URLPrefix, "/"), svc.MediaDir)
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController()
	ledgerController := controllers.NewLedgerController(svc.Ledger)
	creditController := controllers.NewCreditController(svc.Ledger)
	inspoController := controllers.NewInspoController(svc.Inspo, svc.Gallery)
	chatController := controllers.NewChatController(svc.Chat)
	settingsController := controllers.NewSettingsController(svc.Settings)
	configController := controllers.NewConfigController()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	// passcode guessing is throttled per IP, separately from regular traffic
	pairAttempts := cfg.PairAttemptsPerMinute
	if pairAttempts <= 0 {
		pairAttempts = config.DefaultPairAttemptsPerMinute
	}
	pairLimiter := middleware.NewRateLimiterWithBurst(pairAttempts, pairAttempts)

	api := r.Group("/api/v1")
	api.GET("/config/pricing", configController.GetPricing)

	authGroup := api.Group("/auth")
	authGroup.POST("/pair", pairLimiter.Middleware(), authController.Pair)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	// mutating routes are rate limited per device
	limited := protected.Group("")
	limited.Use(limiter.Middleware())

	protected.GET("/ledger/status", ledgerController.Status)
	limited.POST("/ledger/checkin", ledgerController.CheckIn)
	limited.POST("/ledger/reset", ledgerController.Reset)
	limited.POST("/ledger/clear", ledgerController.Clear)
	limited.POST("/ledger/onboarding", ledgerController.CompleteOnboarding)

	protected.GET("/credits", creditController.Balance)
	limited.POST("/credits/grant", creditController.Grant)
	limited.POST("/credits/spend", creditController.Spend)

	protected.GET("/inspo/trends", inspoController.ListTrends)
	protected.GET("/inspo/keywords", inspoController.Keywords)
	limited.POST("/inspo/unlock", inspoController.Unlock)
	limited.POST("/inspo/generate", inspoController.Generate)

	protected.GET("/gallery", inspoController.ListGallery)
	limited.POST("/gallery", inspoController.SaveImage)
	limited.DELETE("/gallery", inspoController.RemoveImage)

	protected.GET("/chat", chatController.History)
	limited.POST("/chat", chatController.Send)
	limited.DELETE("/chat", chatController.Clear)

	protected.GET("/settings", settingsController.Get)
	limited.PUT("/settings", settingsController.Update)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
