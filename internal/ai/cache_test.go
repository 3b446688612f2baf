package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

func TestCacheReusesNormalisedDescriptions(t *testing.T) {
	stub := &stubExtractor{result: &Extraction{Record: features.Defaults(), Provider: "stub"}}
	cache, err := WithCache(stub, 8)
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}

	first, err := cache.Extract(context.Background(), "Two toilets and a shower")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first.Record["toilet"] = 99

	second, err := cache.Extract(context.Background(), "  two   TOILETS and a shower ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stub.calls != 1 {
		t.Fatalf("expected one provider call, got %d", stub.calls)
	}
	if second.Record["toilet"] != 2 {
		t.Fatalf("cached record was mutated through a returned copy: %v", second.Record["toilet"])
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", cache.Len())
	}
}

func TestCacheSkipsErrorsAndFallbacks(t *testing.T) {
	stub := &stubExtractor{err: &UpstreamError{Err: errors.New("down")}}
	cache, err := WithCache(stub, 4)
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}

	if _, err := cache.Extract(context.Background(), "leak"); err == nil {
		t.Fatalf("expected error")
	}
	if cache.Len() != 0 {
		t.Fatalf("errors must not be cached")
	}

	stub.err = nil
	stub.result = &Extraction{Record: features.Defaults(), Fallback: true}
	if _, err := cache.Extract(context.Background(), "leak"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.Len() != 0 {
		t.Fatalf("fallback results must not be cached")
	}
}

func TestWithCacheRejectsInvalidSize(t *testing.T) {
	if _, err := WithCache(&stubExtractor{}, 0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}
