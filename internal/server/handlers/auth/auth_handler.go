package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ecorewards/ecorewards/internal/server/auth"
	"github.com/ecorewards/ecorewards/internal/server/handlers/api"
	"github.com/ecorewards/ecorewards/internal/server/middlewares"
	"github.com/gin-gonic/gin"
)

const (
	grantPassword     = "password"
	grantRefreshToken = "refresh_token"
)

var (
	errInternal         = errors.New("Internal server error")
	errUnsupportedGrant = errors.New("Unsupported grant type")
	errSessionMissing   = errors.New("Auth session missing!")
)

const invalidRequestBody = "Invalid request body"

type AuthHandler struct {
	auth *auth.AuthService
}

func New(auth *auth.AuthService) *AuthHandler {
	return &AuthHandler{
		auth: auth,
	}
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest
	if !bind(ctx, &req) {
		return
	}

	user, err := h.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		abortWithAuthError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &SignUpResponse{User: user})
}

// Token issues a session for the password and refresh_token grants
func (h *AuthHandler) Token(ctx *gin.Context) {
	var (
		session *auth.Session
		err     error
	)

	switch grant := ctx.Query("grant_type"); grant {
	case grantPassword:
		var req PasswordGrantRequest
		if !bind(ctx, &req) {
			return
		}
		session, err = h.auth.SignIn(ctx, req.Email, req.Password)

	case grantRefreshToken:
		var req RefreshGrantRequest
		if !bind(ctx, &req) {
			return
		}
		session, err = h.auth.Refresh(ctx, req.RefreshToken)

	default:
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("%w: %q", errUnsupportedGrant, grant))
		return
	}

	if err != nil {
		abortWithAuthError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, session)
}

func (h *AuthHandler) OTP(ctx *gin.Context) {
	var req OTPRequest
	if !bind(ctx, &req) {
		return
	}

	if err := h.auth.SendOTP(ctx, req.Email, req.CreateUser); err != nil {
		abortWithAuthError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, gin.H{})
}

func (h *AuthHandler) Verify(ctx *gin.Context) {
	var req VerifyRequest
	if !bind(ctx, &req) {
		return
	}

	session, err := h.auth.Verify(ctx, auth.OTPType(req.Type), req.Email, req.Token)
	if err != nil {
		abortWithAuthError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, session)
}

func (h *AuthHandler) GetUser(ctx *gin.Context) {
	claims, ok := claimsOrAbort(ctx)
	if !ok {
		return
	}

	user, err := h.auth.GetUser(ctx, claims.Subject)
	if err != nil {
		abortWithAuthError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateUser(ctx *gin.Context) {
	claims, ok := claimsOrAbort(ctx)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !bind(ctx, &req) {
		return
	}

	if req.Password == "" {
		h.GetUser(ctx)
		return
	}

	user, err := h.auth.UpdatePassword(ctx, claims.Subject, req.Password)
	if err != nil {
		abortWithAuthError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	claims, ok := claimsOrAbort(ctx)
	if !ok {
		return
	}

	h.auth.SignOut(ctx, claims)
	ctx.Status(http.StatusNoContent)
}

func bind(ctx *gin.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("%s: %w", invalidRequestBody, err))
		return false
	}
	return true
}

func claimsOrAbort(ctx *gin.Context) (*auth.Claims, bool) {
	claims, ok := middlewares.GetClaims(ctx)
	if !ok {
		api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthSessionMissing, errSessionMissing)
	}
	return claims, ok
}

func abortWithAuthError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrInvalidOTPType):
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
	case errors.Is(err, auth.ErrWeakPassword):
		api.AbortWithError(ctx, http.StatusUnprocessableEntity, api.CodeAuthWeakPassword, err)
	case errors.Is(err, auth.ErrUserExists):
		api.AbortWithError(ctx, http.StatusUnprocessableEntity, api.CodeAuthUserExists, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeAuthInvalidCredentials, err)
	case errors.Is(err, auth.ErrEmailNotConfirmed):
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeAuthEmailNotConfirmed, err)
	case errors.Is(err, auth.ErrSignupNotAllowed):
		api.AbortWithError(ctx, http.StatusUnprocessableEntity, api.CodeAuthSignupNotAllowed, err)
	case errors.Is(err, auth.ErrInvalidOTP):
		api.AbortWithError(ctx, http.StatusForbidden, api.CodeAuthOTPVerificationFailed, err)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrRevokedToken):
		api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidToken, err)
	case errors.Is(err, auth.ErrUserNotFound):
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeNotFound, err)
	case errors.Is(err, auth.ErrNotificationFailed):
		_ = ctx.Error(err)
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeAuthNotificationFailed, auth.ErrNotificationFailed)
	default:
		_ = ctx.Error(err)
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, errInternal)
	}
}
