package validation

import (
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julianstephens/growthtrack/internal/constants"
	apperrors "github.com/julianstephens/growthtrack/internal/errors"
)

var (
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Name checks a required display string is between 1 and MaxNameLength characters
func Name(field, value string) error {
	n := utf8.RuneCountInString(value)
	if strings.TrimSpace(value) == "" {
		return apperrors.Invalid("%s is required", field)
	}
	if n > constants.MaxNameLength {
		return apperrors.Invalid("%s must be at most %d characters", field, constants.MaxNameLength)
	}
	return nil
}

// Date checks value is a YYYY-MM-DD calendar date
func Date(field, value string) error {
	if _, err := time.Parse(constants.DateFormat, value); err != nil {
		return apperrors.Invalid("%s must be a date in YYYY-MM-DD format", field)
	}
	return nil
}

// OptionalDate is Date for a pointer field that may be unset
func OptionalDate(field string, value *string) error {
	if value == nil || *value == "" {
		return nil
	}
	return Date(field, *value)
}

// ClockTime checks value is a 24h HH:MM time between 00:00 and 23:59
func ClockTime(field, value string) error {
	if !clockPattern.MatchString(value) {
		return apperrors.Invalid("%s must be in HH:MM format", field)
	}
	return nil
}

// Color checks value is a #RRGGBB hex color
func Color(field, value string) error {
	if !colorPattern.MatchString(value) {
		return apperrors.Invalid("%s must be a hex color like #22c55e", field)
	}
	return nil
}

// Range checks min <= value <= max
func Range(field string, value, min, max int) error {
	if value < min || value > max {
		return apperrors.Invalid("%s must be between %d and %d", field, min, max)
	}
	return nil
}

// Min checks value >= min
func Min(field string, value, min int) error {
	if value < min {
		return apperrors.Invalid("%s must be at least %d", field, min)
	}
	return nil
}

// OneOf checks value is one of the allowed options
func OneOf(field, value string, allowed ...string) error {
	if !slices.Contains(allowed, value) {
		return apperrors.Invalid("%s must be one of %s", field, strings.Join(allowed, ", "))
	}
	return nil
}

// First returns the first non-nil error
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
