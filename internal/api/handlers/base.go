package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/closeready/internal/api/dto"
	"github.com/eshaffer321/closeready/internal/application/service"
	"github.com/eshaffer321/closeready/internal/domain/exceptions"
	"github.com/eshaffer321/closeready/internal/domain/validator"
	"github.com/eshaffer321/closeready/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	svc *service.Service
}

// NewBase creates a new base handler with the given service.
func NewBase(svc *service.Service) *Base {
	return &Base{svc: svc}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// WriteError writes an error response with the given status code and aborts
// the handler chain.
func (b *Base) WriteError(c *gin.Context, status int, err dto.APIError) {
	c.AbortWithStatusJSON(status, err)
}

// WriteServiceError maps a service error to its HTTP status.
func (b *Base) WriteServiceError(c *gin.Context, err error, resource string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, validator.ErrInvalidInput):
		b.WriteError(c, http.StatusBadRequest, dto.ValidationError(err.Error()))
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, service.ErrJobNotFound):
		b.WriteError(c, http.StatusNotFound, dto.NotFoundError(resource))
	case errors.Is(err, service.ErrRunInProgress):
		b.WriteError(c, http.StatusConflict, dto.ConflictError(err.Error()))
	case errors.Is(err, exceptions.ErrInvalidTransition):
		b.WriteError(c, http.StatusUnprocessableEntity, dto.ValidationError(err.Error()))
	case errors.Is(err, service.ErrNoStorage):
		b.WriteError(c, http.StatusServiceUnavailable, dto.UnavailableError(err.Error()))
	default:
		_ = c.Error(err)
		b.WriteError(c, http.StatusInternalServerError, dto.InternalError())
	}
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
