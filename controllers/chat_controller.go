package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/nailgrow/chat"
	"github.com/cppla/nailgrow/utils"
)

// ChatController serves the sponsor chat.
type ChatController struct {
	service *chat.Service
}

// NewChatController creates a new controller instance.
func NewChatController(service *chat.Service) *ChatController {
	return &ChatController{service: service}
}

// History returns the conversation, oldest first.
func (c *ChatController) History(ctx *gin.Context) {
	msgs, err := c.service.History(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"messages": msgs})
}

// Send posts a message and returns the sponsor's reply.
func (c *ChatController) Send(ctx *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	reply, err := c.service.Send(ctx.Request.Context(), req.Message)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	utils.Success(ctx, reply)
}

// Clear deletes the conversation.
func (c *ChatController) Clear(ctx *gin.Context) {
	if err := c.service.Clear(ctx.Request.Context()); err != nil {
		respondError(ctx, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"message": "chat cleared"})
}
