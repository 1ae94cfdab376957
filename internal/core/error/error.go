package errx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// PostgresErrorMessage describes Postgres related failures.
	PostgresErrorMessage = "postgres operation failed"
	// PostgresNotFoundMessage describes a missing Postgres row.
	PostgresNotFoundMessage = "postgres row not found"
	// StoreErrorMessage describes document store failures.
	StoreErrorMessage = "document store operation failed"
	// UpstreamModelMessage describes a failed generative model call.
	UpstreamModelMessage = "upstream model call failed"
	// TemplateBindingMessage describes a prompt that could not be filled.
	TemplateBindingMessage = "prompt template binding failed"
	// EmptyRequestMessage describes an empty request text.
	EmptyRequestMessage = "request text is empty"
)

// ErrEmptyRequest is returned when a caller submits an empty request text.
var ErrEmptyRequest = errors.New("empty request")

// ErrEmptyModelResponse is returned when a model call succeeds without a message.
var ErrEmptyModelResponse = errors.New("model returned no message")

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// UpstreamModelError reports a failed call to a generative model.
type UpstreamModelError struct {
	Model string
	Stage string
	Err   error
}

func (e *UpstreamModelError) Error() string {
	return fmt.Sprintf("model %q failed during %s: %v", e.Model, e.Stage, e.Err)
}

func (e *UpstreamModelError) Unwrap() error {
	return e.Err
}

// TemplateBindingError reports placeholders a prompt template could not fill.
type TemplateBindingError struct {
	Template string
	Missing  []string
}

func (e *TemplateBindingError) Error() string {
	return fmt.Sprintf("template %q is missing values for: %s", e.Template, strings.Join(e.Missing, ", "))
}

// WrapModel maps a failed model call to the unified error type.
func WrapModel(model, stage string, err error) error {
	if err == nil {
		return nil
	}
	return New(&UpstreamModelError{Model: model, Stage: stage, Err: err}, http.StatusBadGateway, UpstreamModelMessage)
}

// NewTemplateBinding builds the error returned when placeholders are unresolved.
func NewTemplateBinding(template string, missing []string) error {
	return New(&TemplateBindingError{Template: template, Missing: missing}, http.StatusUnprocessableEntity, TemplateBindingMessage)
}

// EmptyRequest builds the error returned for an empty request text.
func EmptyRequest() error {
	return New(ErrEmptyRequest, http.StatusBadRequest, EmptyRequestMessage)
}

// StatusOf returns the HTTP status carried by err, defaulting to 500.
func StatusOf(err error) int {
	var app *AppError
	if errors.As(err, &app) && app.Status != 0 {
		return app.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the safe message carried by err.
func MessageOf(err error) string {
	var app *AppError
	if errors.As(err, &app) && app.Message != "" {
		return app.Message
	}
	return SystemErrorMessage
}

// IsUpstreamModel reports whether err was caused by a generative model call.
func IsUpstreamModel(err error) bool {
	var up *UpstreamModelError
	return errors.As(err, &up)
}

// IsTemplateBinding reports whether err was caused by an unresolved placeholder.
func IsTemplateBinding(err error) bool {
	var tb *TemplateBindingError
	return errors.As(err, &tb)
}
