package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ecorewards/ecorewards/internal/server/auth"
	"github.com/ecorewards/ecorewards/internal/server/handlers/api"
	"github.com/gin-gonic/gin"
)

const (
	bearerPrefix     = "Bearer "
	authHeader       = "Authorization"
	claimsContextKey = "auth.claims"
)

var (
	errAuthHeaderMissing = errors.New("Auth session missing!")
	errAuthHeaderFormat  = errors.New("Authorization header format must be Bearer {token}")
)

// JWTAuth validates the bearer access token and stores its claims in the context
func JWTAuth(authService *auth.AuthService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value := ctx.GetHeader(authHeader)
		if value == "" {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthSessionMissing, errAuthHeaderMissing)
			return
		}

		token, ok := strings.CutPrefix(value, bearerPrefix)
		if !ok || token == "" {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidToken, errAuthHeaderFormat)
			return
		}

		claims, err := authService.ValidateAccessToken(ctx, token)
		if err != nil {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidToken, err)
			return
		}

		ctx.Set(claimsContextKey, claims)
		ctx.Next()
	}
}

// GetClaims returns the claims set by JWTAuth
func GetClaims(ctx *gin.Context) (*auth.Claims, bool) {
	v, ok := ctx.Get(claimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
