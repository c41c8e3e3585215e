package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/nailgrow/chat"
	"github.com/cppla/nailgrow/inspo"
	"github.com/cppla/nailgrow/ledger"
	"github.com/cppla/nailgrow/utils"
)

// respondError maps domain errors onto the response envelope. data, when not
// nil, carries the unchanged state back to the client.
func respondError(ctx *gin.Context, err error, data interface{}) {
	status, code, message := http.StatusInternalServerError, 50030, "internal error"
	switch {
	case errors.Is(err, ledger.ErrAlreadyCheckedIn):
		status, code, message = http.StatusBadRequest, 40030, err.Error()
	case errors.Is(err, ledger.ErrInvalidAmount):
		status, code, message = http.StatusBadRequest, 40031, err.Error()
	case errors.Is(err, inspo.ErrInvalidImageURL):
		status, code, message = http.StatusBadRequest, 40032, err.Error()
	case errors.Is(err, chat.ErrEmptyMessage):
		status, code, message = http.StatusBadRequest, 40033, err.Error()
	case errors.Is(err, ledger.ErrInsufficientCredits):
		status, code, message = http.StatusPaymentRequired, 40230, err.Error()
	case errors.Is(err, inspo.ErrGenerationFailed), errors.Is(err, chat.ErrGenerationFailed):
		status, code, message = http.StatusBadGateway, 50230, "generation service unavailable, credits refunded"
	case errors.Is(err, ledger.ErrStorageUnavailable):
		status, code, message = http.StatusServiceUnavailable, 50330, "storage unavailable, try again"
	}
	if status >= http.StatusInternalServerError {
		utils.Logger.Error("request failed",
			zap.String("path", ctx.FullPath()),
			zap.Int("code", code),
			zap.Error(err))
	}
	utils.ErrorWithData(ctx, status, code, message, data)
}

func badPayload(ctx *gin.Context) {
	utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
}
