package controllers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/cppla/nailgrow/ledger"
	"github.com/cppla/nailgrow/utils"
)

// LedgerController exposes the streak ledger.
type LedgerController struct {
	ledger *ledger.Ledger
}

// NewLedgerController creates a new controller instance.
func NewLedgerController(l *ledger.Ledger) *LedgerController {
	return &LedgerController{ledger: l}
}

// Status returns the current streak, detecting a broken streak on the way.
func (c *LedgerController) Status(ctx *gin.Context) {
	st, err := c.ledger.Status(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	utils.Success(ctx, st)
}

// CheckIn records today's check-in.
func (c *LedgerController) CheckIn(ctx *gin.Context) {
	res, err := c.ledger.CheckIn(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, res)
		return
	}
	utils.Success(ctx, res)
}

// Reset zeroes the current streak after a slip-up.
func (c *LedgerController) Reset(ctx *gin.Context) {
	c.writeThenStatus(ctx, c.ledger.ResetStreak)
}

// Clear wipes every ledger field.
func (c *LedgerController) Clear(ctx *gin.Context) {
	c.writeThenStatus(ctx, c.ledger.ClearAll)
}

// CompleteOnboarding marks onboarding as done.
func (c *LedgerController) CompleteOnboarding(ctx *gin.Context) {
	c.writeThenStatus(ctx, c.ledger.CompleteOnboarding)
}

func (c *LedgerController) writeThenStatus(ctx *gin.Context, op func(ctx context.Context) error) {
	if err := op(ctx.Request.Context()); err != nil {
		respondError(ctx, err, nil)
		return
	}
	rec, err := c.ledger.Snapshot(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	utils.Success(ctx, rec)
}
