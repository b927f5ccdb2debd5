package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ecorewards/ecorewards/internal/server/handlers/api"
	"github.com/ecorewards/ecorewards/internal/server/handlers/auth"
	"github.com/ecorewards/ecorewards/internal/server/middlewares"
	"github.com/ecorewards/ecorewards/internal/version"
	"github.com/gin-gonic/gin"
)

var (
	errNotFound         = errors.New("not found")
	errMethodNotAllowed = errors.New("method not allowed")
)

func SetupRoutes(config *Config, svc *Services) http.Handler {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middlewares.Logger(slog.Default()))
	r.Use(gin.Recovery())
	r.Use(middlewares.Secure(config.HTTP.TLSEnabled()))
	r.Use(middlewares.CORS())
	r.Use(middlewares.GZIP())

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)

	authH := auth.New(svc.Auth)
	emailLimit := middlewares.RateLimiter(config.EmailRateLimit)

	v1 := r.Group("/auth/v1")
	v1.Use(middlewares.APIKey(config.APIKey))
	{
		// these send email
		v1.POST("/signup", emailLimit, authH.SignUp)
		v1.POST("/otp", emailLimit, authH.OTP)

		v1.POST("/token", authH.Token)
		v1.POST("/verify", authH.Verify)

		user := v1.Group("", middlewares.JWTAuth(svc.Auth))
		user.GET("/user", authH.GetUser)
		user.PUT("/user", authH.UpdateUser)
		user.POST("/logout", authH.Logout)
	}

	r.NoRoute(func(c *gin.Context) {
		api.AbortWithError(c, http.StatusNotFound, api.CodeNotFound, errNotFound)
	})

	r.NoMethod(func(c *gin.Context) {
		api.AbortWithError(c, http.StatusMethodNotAllowed, api.CodeInvalidRequest, errMethodNotAllowed)
	})

	return r.Handler()
}

func IndexHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, version.DetailedWithApp())
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
