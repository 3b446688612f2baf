package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

// ParseRecord decodes a model reply into a record and checks that every
// required key is present. Numbers are kept as json.Number.
func ParseRecord(raw string) (features.Record, error) {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return nil, errors.New("empty response")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.UseNumber()

	var record features.Record
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("parse response as JSON: %w", err)
	}
	if record == nil {
		return nil, errors.New("response is not a JSON object")
	}

	if missing := features.MissingKeys(record); len(missing) > 0 {
		return nil, &ExtractionIncompleteError{Missing: missing, Partial: record}
	}
	return record, nil
}

// ExtractJSON strips markdown code fences and any prose around the outermost object.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start > 0 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}
