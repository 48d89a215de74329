package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/biomap/internal/curate"
	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/store"
)

// ErrInvalidInput marks a request the handlers rejected before reaching the controller
var ErrInvalidInput = errors.New("invalid input")

// AppError carries the HTTP status for a failed request
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// MapError maps controller and store errors to an AppError with a status code
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, model.ErrInvalidCURIE),
		errors.Is(err, model.ErrInvalidDisposition),
		errors.Is(err, curate.ErrUnknownSort),
		errors.Is(err, curate.ErrInvalidReference):
		return NewAppError(http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, curate.ErrOutOfRange):
		return NewAppError(http.StatusNotFound, "Prediction not found", err)
	case errors.Is(err, curate.ErrAlreadyCurated),
		errors.Is(err, store.ErrCrossRedundant):
		return NewAppError(http.StatusConflict, "Mapping already curated", err)
	}
	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}

func handleError(c *gin.Context, err error) {
	appErr := MapError(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message, "detail": err.Error()})
}
