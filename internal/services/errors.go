package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrTransport     = errors.New("transport error")
	ErrParse         = errors.New("parse error")
	ErrNotFound      = errors.New("not found")
	ErrInvariant     = errors.New("invariant violation")
)

// Failure categories persisted with a finished run.
const (
	CategoryConfiguration = "configuration"
	CategoryTransport     = "transport"
	CategoryParse         = "parse"
	CategoryCanceled      = "canceled"
	CategoryInternal      = "internal"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a run error to the failure category recorded in run history.
// A nil error has no category.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CategoryCanceled
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return CategoryConfiguration
	case errors.Is(err, ErrParse):
		return CategoryParse
	case errors.Is(err, ErrTransport):
		return CategoryTransport
	default:
		return CategoryInternal
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
