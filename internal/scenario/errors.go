package scenario

import (
	"errors"
	"fmt"
	"strings"
)

// AmbiguousSourceError reports a scenario item whose selector matches more
// than one source.
type AmbiguousSourceError struct {
	Selector Selector
	Matches  []string
}

func (e *AmbiguousSourceError) Error() string {
	return fmt.Sprintf("selector %s matches %d sources: %s",
		e.Selector, len(e.Matches), strings.Join(e.Matches, ", "))
}

// NoSourceError reports a scenario item whose selector matches nothing.
type NoSourceError struct {
	Selector Selector
}

func (e *NoSourceError) Error() string {
	return fmt.Sprintf("selector %s matches no source", e.Selector)
}

// GenerationError wraps a failure reported by the generation engine,
// preserving the underlying error unchanged.
type GenerationError struct {
	Kind     string
	SourceID string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s for source %s: %v", e.Kind, e.SourceID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ErrAllItemsFailed is returned by Run when not a single scenario item
// produced an artifact. Partial failure is a successful run with per-item
// errors in the report.
var ErrAllItemsFailed = errors.New("every scenario item failed")
