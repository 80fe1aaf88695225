package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks an identifier the metadata provider knows nothing about.
	ErrNotFound = errors.New("not found")
	// ErrNoMatch marks a series that exists but has no filler database record above threshold.
	ErrNoMatch = errors.New("no match")
	// ErrMetadataUnavailable marks a failed metadata fetch (season lookups treat it as zero).
	ErrMetadataUnavailable = errors.New("metadata unavailable")
	// ErrCacheUnavailable marks a missing or unreadable identity cache.
	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrConfiguration    = errors.New("configuration error")
	ErrValidation       = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrMetadataUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short snake_case label for the marker carried by err. It is
// used as the event_type suffix in logs and as the reason in CLI explanations.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	case errors.Is(err, ErrMetadataUnavailable):
		return "metadata_unavailable"
	case errors.Is(err, ErrCacheUnavailable):
		return "cache_unavailable"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
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
