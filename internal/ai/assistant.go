package ai

import (
	"context"
	"strings"
	"time"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

// Extraction is the structured job record produced from a free-text description.
type Extraction struct {
	Record   features.Record `json:"features"`
	Provider string          `json:"provider,omitempty"`
	// Fallback is set when Record was built from defaults because extraction failed.
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

// Clone returns a copy whose record can be modified freely.
func (e *Extraction) Clone() *Extraction {
	if e == nil {
		return nil
	}
	out := *e
	out.Record = e.Record.Clone()
	return &out
}

// Extractor turns a job description into the 17-field record the model consumes.
type Extractor interface {
	Extract(ctx context.Context, description string) (*Extraction, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, description string) (*Extraction, error)

func (f ExtractorFunc) Extract(ctx context.Context, description string) (*Extraction, error) {
	return f(ctx, description)
}

// CheckDescription rejects blank descriptions before any provider is called.
func CheckDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrEmptyDescription
	}
	return description, nil
}

// WithTimeout bounds every extraction call by d. A non-positive d disables the limit.
func WithTimeout(next Extractor, d time.Duration) Extractor {
	if d <= 0 {
		return next
	}
	return ExtractorFunc(func(ctx context.Context, description string) (*Extraction, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next.Extract(ctx, description)
	})
}
