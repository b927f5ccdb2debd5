package middlewares

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/ecorewards/ecorewards/internal/server/handlers/api"
	"github.com/gin-gonic/gin"
)

const apiKeyHeader = "apikey"

var errInvalidAPIKey = errors.New("Invalid API key")

// APIKey rejects requests whose apikey header does not match key. An empty key disables the check.
func APIKey(key string) gin.HandlerFunc {
	if key == "" {
		return func(ctx *gin.Context) {
			ctx.Next()
		}
	}

	return func(ctx *gin.Context) {
		got := ctx.GetHeader(apiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeInvalidAPIKey, errInvalidAPIKey)
			return
		}
		ctx.Next()
	}
}
