package money

import (
	"strings"
	"testing"
)

func TestConvert(t *testing.T) {
	got := Convert(450000, DefaultDZDToGBP)
	if Round(got, 2) != 2520 {
		t.Fatalf("expected 2520, got %v", got)
	}
}

func TestRound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     float64
		places int
		want   float64
	}{
		{in: 12.346, places: 2, want: 12.35},
		{in: 12.5, places: 0, want: 13},
		{in: 0.04, places: 1, want: 0},
	}

	for _, tt := range tests {
		if got := Round(tt.in, tt.places); got != tt.want {
			t.Fatalf("Round(%v, %d) = %v, want %v", tt.in, tt.places, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	got := Format("$", 1234.5)
	if !strings.HasPrefix(got, "$") || !strings.HasSuffix(got, ".50") {
		t.Fatalf("unexpected formatted amount: %q", got)
	}

	if got := FormatDays(12.46); got != "12.5 days" {
		t.Fatalf("unexpected days: %q", got)
	}

	if got := FormatCode(10, "DZD"); !strings.HasSuffix(got, " DZD") {
		t.Fatalf("unexpected code format: %q", got)
	}
}
