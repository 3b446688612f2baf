package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPreview(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "two toilets and a shower",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "leak",
			limit:  10,
			expect: "leak",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "replace boiler",
			limit:  7,
			expect: "replace...",
		},
		{
			name:   "counts runes not bytes",
			input:  "chauffe-eau électrique",
			limit:  12,
			expect: "chauffe-eau ...",
		},
		{
			name:   "flattens line breaks and fences",
			input:  "```json\n{\n  \"toilet\": 2\n}\n```",
			limit:  40,
			expect: "```json { \"toilet\": 2 } ```",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  spaced  ",
			limit:  5,
			expect: "space...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Preview(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestWaitFor(t *testing.T) {
	t.Parallel()

	var slept time.Duration
	if err := WaitFor(context.Background(), 3*time.Second, func(d time.Duration) { slept = d }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != 3*time.Second {
		t.Fatalf("expected 3s sleep, got %v", slept)
	}

	if err := WaitFor(context.Background(), 0, nil); err != nil {
		t.Fatalf("zero wait should return immediately, got %v", err)
	}
}

func TestWaitForCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := WaitFor(ctx, time.Hour, func(time.Duration) { called = true })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Fatalf("a cancelled context must not start waiting")
	}
}

func TestWaitForTimer(t *testing.T) {
	t.Parallel()

	if err := WaitFor(context.Background(), 5*time.Millisecond, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	started := time.Now()
	err := WaitFor(ctx, time.Hour, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 5*time.Second {
		t.Fatalf("cancellation should stop the wait, took %v", elapsed)
	}
}
