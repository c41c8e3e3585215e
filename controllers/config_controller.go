package controllers

import (
	"github.com/cppla/nailgrow/config"
	"github.com/cppla/nailgrow/utils"
	"github.com/gin-gonic/gin"
)

// ConfigController serves configuration the client needs to render prices.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetPricing returns the credit reward and costs.
func (c *ConfigController) GetPricing(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"checkin_reward": cfg.CheckinReward,
		"unlock_cost":    cfg.UnlockCost,
		"generate_cost":  cfg.GenerateCost,
		"chat_cost":      cfg.ChatCost,
		"timezone":       cfg.Location().String(),
	})
}
