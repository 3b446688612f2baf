package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		pairs []string
		want  map[string]string
	}{
		{name: "none", pairs: nil, want: map[string]string{}},
		{name: "trims", pairs: []string{"  ai_provider ", "  gemini  "}, want: map[string]string{"ai_provider": "gemini"}},
		{name: "skips blank value", pairs: []string{"ai_model", "   ", "request_id", "abc"}, want: map[string]string{"request_id": "abc"}},
		{name: "skips blank key", pairs: []string{" ", "value"}, want: map[string]string{}},
		{name: "drops odd key", pairs: []string{"estimate_id", "42", "dangling"}, want: map[string]string{"estimate_id": "42"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fields := Fields(tt.pairs...)
			if len(fields) != len(tt.want) {
				t.Fatalf("expected %d fields, got %d: %+v", len(tt.want), len(fields), fields)
			}
			for _, f := range fields {
				if tt.want[f.Key] != f.String {
					t.Fatalf("unexpected field %s=%q", f.Key, f.String)
				}
			}
		})
	}
}

func TestWithNilLogger(t *testing.T) {
	enriched := With(nil, zap.String("foo", "bar"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	// logging through the fallback must not panic
	enriched.Info("dropped")
	WithProvider(nil, "gemini", "gemini-2.5-flash").Info("dropped")
}

func TestTaggingHelpers(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithProvider(base, "openai", "gpt-4").Info("extraction")
	WithRequest(base, " 7f1c ").Info("tagged")
	WithRequest(base, "").Info("untagged")
	WithEstimate(WithRequest(base, "7f1c"), "e-1").Info("recorded")

	entries := observed.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	provider := entries[0].ContextMap()
	if provider[FieldProvider] != "openai" || provider[FieldModel] != "gpt-4" {
		t.Fatalf("unexpected provider fields: %v", provider)
	}
	if got := entries[1].ContextMap()[FieldRequestID]; got != "7f1c" {
		t.Fatalf("expected request id 7f1c, got %v", got)
	}
	if _, ok := entries[2].ContextMap()[FieldRequestID]; ok {
		t.Fatalf("empty request id must not be logged")
	}
	recorded := entries[3].ContextMap()
	if recorded[FieldRequestID] != "7f1c" || recorded[FieldEstimateID] != "e-1" {
		t.Fatalf("unexpected estimate fields: %v", recorded)
	}
}
