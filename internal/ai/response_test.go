package ai

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

func defaultsJSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(features.Defaults())
	if err != nil {
		t.Fatalf("marshal defaults: %v", err)
	}
	return string(data)
}

func TestParseRecord(t *testing.T) {
	t.Parallel()

	full := defaultsJSON(t)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "plain", raw: full},
		{name: "fenced", raw: "```json\n" + full + "\n```"},
		{name: "bare fence", raw: "```\n" + full + "\n```"},
		{name: "prose around object", raw: "Here you go:\n" + full + "\nLet me know!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			record, err := ParseRecord(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(record) != 17 {
				t.Fatalf("expected 17 keys, got %d", len(record))
			}
			if n, ok := record["radiator"].(json.Number); !ok || n.String() != "5" {
				t.Fatalf("expected radiator to be json.Number 5, got %#v", record["radiator"])
			}
			if record["boilerSize"] != "medium" {
				t.Fatalf("unexpected boilerSize: %v", record["boilerSize"])
			}
		})
	}
}

func TestParseRecordMissingKeys(t *testing.T) {
	t.Parallel()

	r := features.Defaults()
	delete(r, "Bidet")
	delete(r, "sinkCategorie")
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	_, err = ParseRecord(string(data))
	if !errors.Is(err, ErrExtractionIncomplete) {
		t.Fatalf("expected ErrExtractionIncomplete, got %v", err)
	}

	var incomplete *ExtractionIncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected *ExtractionIncompleteError, got %T", err)
	}
	if strings.Join(incomplete.Missing, ",") != "Bidet,sinkCategorie" {
		t.Fatalf("unexpected missing keys: %v", incomplete.Missing)
	}
	if len(incomplete.Partial) != 15 {
		t.Fatalf("expected partial record with 15 keys, got %d", len(incomplete.Partial))
	}
	if !strings.Contains(err.Error(), "Bidet") {
		t.Fatalf("error should name the missing keys: %v", err)
	}
}

func TestParseRecordRejectsNonObjects(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "not json at all", "null", "[1, 2]"} {
		if _, err := ParseRecord(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestSystemPromptListsEveryField(t *testing.T) {
	t.Parallel()

	p := SystemPrompt()
	for _, f := range features.Catalog() {
		if !strings.Contains(p, f.Describe()) {
			t.Fatalf("prompt does not describe %s", f.Name)
		}
	}
	if !strings.Contains(p, "exactly 17 keys") {
		t.Fatalf("prompt should state the key count")
	}
	if strings.Contains(p, "{{") {
		t.Fatalf("prompt has unrendered template actions")
	}

	start := strings.Index(p, "Example output:\n")
	if start == -1 {
		t.Fatalf("prompt has no example output")
	}
	example, err := ParseRecord(p[start+len("Example output:\n"):strings.LastIndex(p, "}")+1])
	if err != nil {
		t.Fatalf("example output is not a valid record: %v", err)
	}
	if example["toileType"] != "Basic-Ceramic" {
		t.Fatalf("unexpected example toileType: %v", example["toileType"])
	}
}
