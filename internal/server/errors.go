package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/avelar/sitegauge/internal/audit"
	"github.com/avelar/sitegauge/internal/pipeline"
	"github.com/avelar/sitegauge/internal/store"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validationErr *ErrValidation
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	var badURL *pipeline.InvalidBaseURLError
	if errors.As(err, &badURL) {
		return http.StatusBadRequest
	}
	if errors.Is(err, pipeline.ErrNoRoutes) {
		return http.StatusBadRequest
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}

	var auditErr *audit.Error
	if errors.As(err, &auditErr) {
		switch auditErr.Kind {
		case audit.KindInvalidURL:
			return http.StatusBadRequest
		case audit.KindRateLimited:
			return http.StatusTooManyRequests
		default:
			return http.StatusBadGateway
		}
	}

	return http.StatusInternalServerError
}
