package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/nailgrow/ledger"
	"github.com/cppla/nailgrow/utils"
)

// CreditController exposes the credit balance.
type CreditController struct {
	ledger *ledger.Ledger
}

type amountRequest struct {
	Amount int `json:"amount"`
}

// NewCreditController creates a new controller instance.
func NewCreditController(l *ledger.Ledger) *CreditController {
	return &CreditController{ledger: l}
}

// Balance returns the current credit balance.
func (c *CreditController) Balance(ctx *gin.Context) {
	credits, err := c.ledger.Credits(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"credits": credits})
}

// Grant adds credits.
func (c *CreditController) Grant(ctx *gin.Context) {
	var req amountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	balance, err := c.ledger.GrantCredits(ctx.Request.Context(), req.Amount)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"new_balance": balance})
}

// Spend deducts credits. An insufficient balance is reported with the
// unchanged balance.
func (c *CreditController) Spend(ctx *gin.Context) {
	var req amountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	res, err := c.ledger.SpendCredits(ctx.Request.Context(), req.Amount)
	if err != nil {
		respondError(ctx, err, res)
		return
	}
	utils.Success(ctx, res)
}
