package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Trivia/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrWrongPhase),
		errors.Is(err, domain.ErrSessionFull),
		errors.Is(err, domain.ErrDuplicateAnswer),
		errors.Is(err, domain.ErrNoActiveQuestion):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTooEarly):
		return http.StatusTooEarly
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrInsufficientQuestions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrIdentityUnresolved):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidSettings),
		errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error().Str("module", "adapters.http").Str("path", c.FullPath()).Err(err).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": domain.Code(err)})
}
