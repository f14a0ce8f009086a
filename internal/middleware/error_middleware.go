package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/dberrors"
	"github.com/ojtetr/tracker/internal/pkg/filestorage"
	"github.com/ojtetr/tracker/internal/pkg/logger"
)

type errorMapping struct {
	status  int
	code    dto.ErrorCode
	message string
}

// classify picks the HTTP response for err. Order matters: specific sentinels come before their families.
func classify(err error) errorMapping {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return errorMapping{http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid email or password"}
	case errors.Is(err, apperrors.ErrTokenExpired):
		return errorMapping{http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"}
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return errorMapping{http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"}
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return errorMapping{http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Please login first"}
	case errors.Is(err, apperrors.ErrAccountInactive):
		return errorMapping{http.StatusForbidden, dto.ErrorCodeAccountInactive, "Account is not active"}
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return errorMapping{http.StatusForbidden, dto.ErrorCodeForbidden, "Access denied"}
	case BodyTooLarge(err):
		return errorMapping{http.StatusRequestEntityTooLarge, dto.ErrorCodePayloadTooLarge, "Request body too large"}
	case apperrors.Is(err, apperrors.ErrValidationFailed, apperrors.ErrBadRequest, apperrors.ErrInvalidDocType):
		return errorMapping{http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"}
	case apperrors.Is(err, apperrors.ErrEmailAlreadyExists, apperrors.ErrResourceAlreadyExists):
		return errorMapping{http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"}
	case apperrors.Is(err, apperrors.ErrConflict, apperrors.ErrVersionConflict, apperrors.ErrInvalidTransition):
		return errorMapping{http.StatusConflict, dto.ErrorCodeConflict, "Request conflicts with the current state"}
	case notFound(err) != nil:
		return errorMapping{http.StatusNotFound, dto.ErrorCodeResourceNotFound, capitalize(notFound(err).Error())}
	case errors.Is(err, apperrors.ErrRateLimited):
		return errorMapping{http.StatusTooManyRequests, dto.ErrorCodeRateLimited, "Too many requests, try again later"}
	case errors.Is(err, apperrors.ErrUpstreamUnavailable):
		return errorMapping{http.StatusServiceUnavailable, dto.ErrorCodeExternalServiceError, "Service temporarily unavailable"}
	case dberrors.IsConnectionError(err):
		return errorMapping{http.StatusServiceUnavailable, dto.ErrorCodeDatabaseError, "Service temporarily unavailable"}
	default:
		return errorMapping{http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"}
	}
}

var notFoundErrors = []error{
	apperrors.ErrUserNotFound,
	apperrors.ErrProfileNotFound,
	apperrors.ErrDocumentNotFound,
	apperrors.ErrCommentNotFound,
	apperrors.ErrAnnouncementNotFound,
	apperrors.ErrTemplateNotFound,
	filestorage.ErrObjectNotFound,
	apperrors.ErrResourceNotFound,
}

// notFound returns the not-found sentinel err wraps, if any
func notFound(err error) error {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	m := classify(err)

	message := m.message
	if public := apperrors.PublicMessage(err); public != "" && m.status < http.StatusInternalServerError {
		message = public
	}
	detail := dto.NewErrorDetail(m.code, message)

	if m.status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", m.status).
			Msg("Request failed")
	}
	if gin.Mode() == gin.DebugMode {
		detail = detail.WithDebugInfo("%v", err)
	}

	c.AbortWithStatusJSON(m.status, dto.APIResponse{Error: detail})
}

// HandleBindError reports a request body or query that failed binding or validation
func HandleBindError(c *gin.Context, err error) {
	if BodyTooLarge(err) {
		HandleAPIError(c, err)
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.APIResponse{Error: dto.HandleValidationError(err)})
}

// BodyTooLarge reports whether err comes from a body cut off by LimitBody
func BodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || errors.Is(err, apperrors.ErrPayloadTooLarge)
}
