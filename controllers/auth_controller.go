package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/nailgrow/config"
	"github.com/cppla/nailgrow/middleware"
	"github.com/cppla/nailgrow/utils"
)

// AuthController pairs client devices with the ledger.
type AuthController struct{}

// NewAuthController creates a new controller instance.
func NewAuthController() *AuthController {
	return &AuthController{}
}

// Pair verifies the pairing passcode and issues a device token.
func (a *AuthController) Pair(ctx *gin.Context) {
	type request struct {
		Passcode   string `json:"passcode" binding:"required"`
		DeviceName string `json:"device_name" binding:"max=64"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	cfg := config.Get()
	if cfg.PairingPasscodeHash == "" {
		utils.Error(ctx, http.StatusForbidden, 40310, "pairing disabled, issue a token from the command line")
		return
	}
	if !utils.CheckPasscode(cfg.PairingPasscodeHash, req.Passcode) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid passcode")
		return
	}

	device := strings.TrimSpace(req.DeviceName)
	if device == "" {
		device = "device"
	}
	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	token, err := utils.GenerateDeviceToken(cfg.JWTSecret, device, ttl)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Logger.Info("device paired", zap.String("device", device), zap.String("ip", ctx.ClientIP()))

	utils.Success(ctx, gin.H{
		"token":      token,
		"device":     device,
		"expires_in": int(ttl.Seconds()),
	})
}

// Me returns the device bound to the current token.
func (a *AuthController) Me(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"device": ctx.GetString(middleware.ContextDeviceKey)})
}
