package listing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound  = errors.New("listing not found")
	ErrForbidden = errors.New("forbidden")

	// ErrNotAvailable: the listing is already past available (accepted, or
	// expired by someone else first). Terminal for this attempt, no retry.
	ErrNotAvailable = errors.New("listing not available")

	// ErrExpired: the accept attempt itself discovered the listing stale.
	ErrExpired = errors.New("listing expired")
)

// ValidationError carries per-field problems so the caller can fix and
// resubmit. Field keys match the JSON names of the create payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed: %s", strings.Join(keys, ", "))
}
