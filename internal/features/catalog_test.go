package features

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCatalogHasSeventeenFields(t *testing.T) {
	keys := RequiredKeys()
	if len(keys) != 17 {
		t.Fatalf("expected 17 required keys, got %d", len(keys))
	}

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			t.Fatalf("duplicate key %q", k)
		}
		seen[k] = true
	}
}

func TestDefaultsAreValid(t *testing.T) {
	defaults := Defaults()
	if missing := MissingKeys(defaults); len(missing) != 0 {
		t.Fatalf("defaults miss keys: %v", missing)
	}

	for _, f := range Catalog() {
		switch f.Kind {
		case KindCategory:
			v, _ := defaults[f.Name].(string)
			if !f.ValidValue(v) {
				t.Fatalf("default %q for %s is not a valid value", v, f.Name)
			}
		case KindCount:
			n, err := Int(defaults[f.Name])
			if err != nil {
				t.Fatalf("default for %s: %v", f.Name, err)
			}
			if n < f.Min || n > f.Max {
				t.Fatalf("default %d for %s outside [%d, %d]", n, f.Name, f.Min, f.Max)
			}
		}
	}

	if defaults["Bidet"] != 0 || defaults["radiator"] != 5 {
		t.Fatalf("unexpected count defaults: Bidet=%v radiator=%v", defaults["Bidet"], defaults["radiator"])
	}
}

func TestMissingKeysKeepsCatalogOrder(t *testing.T) {
	r := Defaults()
	delete(r, "sinkCategorie")
	delete(r, "boilerSize")
	delete(r, "Bidet")

	missing := MissingKeys(r)
	expected := []string{"boilerSize", "Bidet", "sinkCategorie"}
	if len(missing) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, missing)
	}
	for i := range expected {
		if missing[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, missing)
		}
	}
}

func TestNullCountsAsMissing(t *testing.T) {
	r := Defaults()
	r["toileType"] = nil

	missing := MissingKeys(r)
	if len(missing) != 1 || missing[0] != "toileType" {
		t.Fatalf("expected null toileType to be missing, got %v", missing)
	}
	if r.Has("toileType") {
		t.Fatalf("null value must not count as set")
	}

	merged := Record{"toileType": nil, "toilet": 1}.Merge(Defaults())
	if merged["toileType"] != "One-Piece" {
		t.Fatalf("expected null to be replaced by the default, got %v", merged["toileType"])
	}
}

func TestMergeDoesNotOverride(t *testing.T) {
	r := Record{"toilet": 3}
	merged := r.Merge(Defaults())

	if merged["toilet"] != 3 {
		t.Fatalf("expected explicit value to survive, got %v", merged["toilet"])
	}
	if merged["radiator"] != 5 {
		t.Fatalf("expected default radiator, got %v", merged["radiator"])
	}
	if _, ok := r["radiator"]; ok {
		t.Fatalf("merge must not mutate the receiver")
	}
}

func TestDecode(t *testing.T) {
	r := Defaults()
	r["toilet"] = json.Number("3")
	r["radiator"] = "7"
	r["Bidet"] = 1.0

	job, err := Decode(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.Toilet != 3 || job.Radiator != 7 || job.Bidet != 1 {
		t.Fatalf("unexpected counts: %+v", job)
	}
	if job.ToiletType != "One-Piece" || job.SinkCategory != "single" {
		t.Fatalf("unexpected categories: %+v", job)
	}
}

func TestInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   any
		want    int
		wantErr bool
	}{
		{name: "int", input: 4, want: 4},
		{name: "float rounds", input: 2.6, want: 3},
		{name: "json number", input: json.Number("5"), want: 5},
		{name: "numeric string", input: " 2 ", want: 2},
		{name: "word", input: "two", wantErr: true},
		{name: "nil", input: nil, wantErr: true},
		{name: "nan string", input: "NaN", wantErr: true},
		{name: "inf string", input: " Inf ", wantErr: true},
		{name: "negative inf string", input: "-Inf", wantErr: true},
		{name: "inf json number", input: json.Number("+Inf"), wantErr: true},
		{name: "nan float32", input: float32(math.NaN()), wantErr: true},
		{name: "slice", input: []int{1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Int(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
