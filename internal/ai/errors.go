package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

var (
	// ErrEmptyDescription is returned for blank job descriptions.
	ErrEmptyDescription = errors.New("job description cannot be empty")
	// ErrExtractionIncomplete marks a model reply that lacks required keys.
	ErrExtractionIncomplete = errors.New("extraction incomplete")
	// ErrUpstreamFailure marks a failed or unusable call to the language model.
	ErrUpstreamFailure = errors.New("upstream failure")
)

// ExtractionIncompleteError names the keys missing from a model reply.
type ExtractionIncompleteError struct {
	Missing []string
	// Partial holds whatever keys the reply did contain.
	Partial features.Record
}

func (e *ExtractionIncompleteError) Error() string {
	return fmt.Sprintf("response missing required features: [%s]", strings.Join(e.Missing, ", "))
}

func (e *ExtractionIncompleteError) Is(target error) bool {
	return target == ErrExtractionIncomplete
}

// UpstreamError wraps a provider failure.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("language model call failed: %v", e.Err)
	}
	return fmt.Sprintf("%s call failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamFailure
}

func (e *UpstreamError) Unwrap() error { return e.Err }
