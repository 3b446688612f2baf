package features

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Record is a single job as produced by extraction: field name to string or integer value.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether key is set to a non-null value. A JSON null counts as absent.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Merge returns a copy of r with every key from defaults that r does not set.
func (r Record) Merge(defaults Record) Record {
	out := r.Clone()
	for k, v := range defaults {
		if !out.Has(k) {
			out[k] = v
		}
	}
	return out
}

// Job is the typed view of a record used by code that reasons about fixtures.
type Job struct {
	BoilerSize      string `mapstructure:"boilerSize" json:"boilerSize"`
	Radiator        int    `mapstructure:"radiator" json:"radiator"`
	RadiatorType    string `mapstructure:"radiatorType" json:"radiatorType"`
	Toilet          int    `mapstructure:"toilet" json:"toilet"`
	ToiletType      string `mapstructure:"toileType" json:"toileType"`
	Washbasin       int    `mapstructure:"washbasin" json:"washbasin"`
	WashbasinType   string `mapstructure:"washbasinType" json:"washbasinType"`
	Bathtub         int    `mapstructure:"bathhub" json:"bathhub"`
	BathtubType     string `mapstructure:"bathhubType" json:"bathhubType"`
	ShowerCabin     int    `mapstructure:"showerCabin" json:"showerCabin"`
	ShowerCabinType string `mapstructure:"showerCabinType" json:"showerCabinType"`
	Bidet           int    `mapstructure:"Bidet" json:"Bidet"`
	BidetType       string `mapstructure:"BidetType" json:"BidetType"`
	WaterHeater     int    `mapstructure:"waterHeater" json:"waterHeater"`
	WaterHeaterType string `mapstructure:"waterHeaterType" json:"waterHeaterType"`
	SinkQuality     string `mapstructure:"sinkTypeQuality" json:"sinkTypeQuality"`
	SinkCategory    string `mapstructure:"sinkCategorie" json:"sinkCategorie"`
}

// Decode converts a record into a Job. Numeric strings and floats are accepted for counts.
func Decode(r Record) (*Job, error) {
	var job Job
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &job,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(map[string]any(r)); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}

	return &job, nil
}

// Int converts a record value into an integer. It accepts Go integer and float types,
// json.Number and numeric strings. Fractional values are rounded.
func Int(v any) (int, error) {
	f, err := Float(v)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}

// Float converts a record value into a float64.
func Float(v any) (float64, error) {
	switch val := v.(type) {
	case int:
		return float64(val), nil
	case int8:
		return float64(val), nil
	case int16:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint8:
		return float64(val), nil
	case uint16:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case float32:
		return finite(float64(val))
	case float64:
		return finite(val)
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", val.String())
		}
		return finite(f)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string is not a number")
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", val)
		}
		return finite(f)
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}

// finite rejects NaN and infinities, which ParseFloat accepts as "NaN" and "Inf".
func finite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %v is not a finite number", f)
	}
	return f, nil
}

// String converts a record value into its category string.
func String(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case fmt.Stringer:
		return strings.TrimSpace(val.String()), nil
	case nil:
		return "", fmt.Errorf("value is null")
	default:
		return fmt.Sprintf("%v", val), nil
	}
}
