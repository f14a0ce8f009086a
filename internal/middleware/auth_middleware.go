package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	appauth "github.com/ojtetr/tracker/internal/app/auth"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// TokenCookie carries the access token for browser clients
const TokenCookie = "token"

const actorKey = "actor"

// Authorizer resolves a credential to an actor allowed by the requirement
type Authorizer interface {
	Authorize(ctx context.Context, token string, req appauth.Requirement) (*appauth.Actor, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	gate   Authorizer
	logger zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(gate Authorizer, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{gate: gate, logger: logger}
}

// tokenFrom reads the Authorization header, then the token cookie, then the token query
// parameter that websocket clients use
func tokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, err := auth.ExtractBearerToken(header); err == nil {
			return token
		}
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}

// apiPrefix marks routes whose callers always get JSON errors
const apiPrefix = "/api/"

// wantsHTML reports whether the caller is a browser navigating pages rather than an API client
func wantsHTML(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, apiPrefix) || c.GetHeader("X-Requested-With") != "" {
		return false
	}
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

// Require admits authenticated, active users holding one of roles.
// No roles means any role.
func (m *AuthMiddleware) Require(roles ...models.Role) gin.HandlerFunc {
	req := appauth.Require(roles...)
	return func(c *gin.Context) {
		actor, err := m.gate.Authorize(c.Request.Context(), tokenFrom(c), req)
		if err != nil {
			m.reject(c, err)
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, err error) {
	var (
		status  int
		code    dto.ErrorCode
		message string
	)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		status, code, message = http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"
	case errors.Is(err, apperrors.ErrTokenExpired):
		status, code, message = http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Please login first"
	case errors.Is(err, apperrors.ErrUnauthenticated):
		status, code, message = http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Please login first"
	case errors.Is(err, apperrors.ErrPermissionDenied):
		status, code, message = http.StatusForbidden, dto.ErrorCodeForbidden, "Access denied"
	default:
		HandleAPIError(c, err)
		return
	}

	m.logger.Debug().Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("Request rejected by auth gate")

	if wantsHTML(c) {
		c.Redirect(http.StatusFound, "/?error="+url.QueryEscape(message))
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(status, dto.APIResponse{Error: dto.NewErrorDetail(code, message)})
}

// CurrentActor returns the actor stored by Require
func CurrentActor(c *gin.Context) (*appauth.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil, false
	}
	actor, ok := v.(*appauth.Actor)
	return actor, ok
}
