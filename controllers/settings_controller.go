package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/nailgrow/storage"
	"github.com/cppla/nailgrow/utils"
)

// SettingsController reads and writes user preferences.
type SettingsController struct {
	store storage.SettingsStore
}

func NewSettingsController(store storage.SettingsStore) *SettingsController {
	return &SettingsController{store: store}
}

// Get returns the preferences.
func (c *SettingsController) Get(ctx *gin.Context) {
	enabled, err := storage.NotificationsEnabled(ctx.Request.Context(), c.store)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"notifications_enabled": enabled})
}

// Update changes the preferences.
func (c *SettingsController) Update(ctx *gin.Context) {
	var req struct {
		NotificationsEnabled *bool `json:"notifications_enabled" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	if err := storage.SetNotificationsEnabled(ctx.Request.Context(), c.store, *req.NotificationsEnabled); err != nil {
		respondError(ctx, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"notifications_enabled": *req.NotificationsEnabled})
}
