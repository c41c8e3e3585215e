package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/nailgrow/catalog"
	"github.com/cppla/nailgrow/inspo"
	"github.com/cppla/nailgrow/utils"
)

// InspoController serves trend unlocks, generated designs and the gallery.
type InspoController struct {
	service *inspo.Service
	gallery *inspo.Gallery
}

// NewInspoController creates a new controller instance.
func NewInspoController(service *inspo.Service, gallery *inspo.Gallery) *InspoController {
	return &InspoController{service: service, gallery: gallery}
}

// ListTrends returns unlocked trends, newest first.
func (c *InspoController) ListTrends(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	items, err := c.service.ListTrends(ctx.Request.Context(), limit)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		out = append(out, gin.H{
			"item":          item,
			"pinterest_url": catalog.PinterestURL(item.Keyword),
		})
	}
	utils.Success(ctx, gin.H{"items": out})
}

// Keywords lists the curated keyword catalog.
func (c *InspoController) Keywords(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"categories": catalog.Categories})
}

// Unlock spends credits on one random trend keyword.
func (c *InspoController) Unlock(ctx *gin.Context) {
	res, err := c.service.UnlockTrend(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, gin.H{"new_balance": res.NewBalance})
		return
	}
	utils.Success(ctx, res)
}

// Generate spends credits on a generated design.
func (c *InspoController) Generate(ctx *gin.Context) {
	var req struct {
		Keyword string `json:"keyword"`
	}
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badPayload(ctx)
			return
		}
	}
	res, err := c.service.GenerateDesign(ctx.Request.Context(), req.Keyword)
	if err != nil {
		respondError(ctx, err, gin.H{"new_balance": res.NewBalance})
		return
	}
	utils.Success(ctx, res)
}

type imageRequest struct {
	ImageURL string `json:"image_url" binding:"required"`
}

// ListGallery returns the saved images, newest first.
func (c *InspoController) ListGallery(ctx *gin.Context) {
	images, err := c.gallery.ListSavedImages(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"images": images})
}

// SaveImage pins an image to the gallery.
func (c *InspoController) SaveImage(ctx *gin.Context) {
	var req imageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	img, err := c.gallery.SaveImage(ctx.Request.Context(), req.ImageURL)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	utils.Success(ctx, img)
}

// RemoveImage unpins an image.
func (c *InspoController) RemoveImage(ctx *gin.Context) {
	var req imageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	if err := c.gallery.RemoveImage(ctx.Request.Context(), req.ImageURL); err != nil {
		respondError(ctx, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"removed": req.ImageURL})
}
