package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/nailgrow/config"
	"github.com/cppla/nailgrow/utils"
)

const (
	// ContextDeviceKey stores the paired device name inside Gin context.
	ContextDeviceKey = "device"
	// ContextTokenIDKey stores the token id inside Gin context.
	ContextTokenIDKey = "token_id"
)

// AuthRequired ensures the request carries a valid device token.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseDeviceToken(config.Get().JWTSecret, tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextDeviceKey, claims.DeviceName)
		ctx.Set(ContextTokenIDKey, claims.ID)
		ctx.Next()
	}
}
