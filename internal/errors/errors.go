package errors

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/julianstephens/growthtrack/internal/logger"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a request body or parameter fails validation
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotConfigured is returned when a required setting such as the webhook URL is missing
	ErrNotConfigured = errors.New("not configured")
	// ErrDeliveryFailed is returned when a notification could not be delivered
	ErrDeliveryFailed = errors.New("delivery failed")
)

// NotFound wraps ErrNotFound with a user-facing message
func NotFound(msg string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, msg)
}

// Invalid wraps ErrInvalidInput with a formatted message
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error to the status code returned by the API
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the message shown to API clients, with the sentinel prefix removed
func Detail(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrNotFound, ErrInvalidInput, ErrNotConfigured, ErrDeliveryFailed} {
		if errors.Is(err, sentinel) {
			return strings.TrimPrefix(msg, sentinel.Error()+": ")
		}
	}
	return msg
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
