package features

import (
	"fmt"
	"strings"
)

// Kind describes how a job field is represented in a record.
type Kind string

const (
	// KindCount is an integer fixture count constrained to [Min, Max].
	KindCount Kind = "count"
	// KindCategory is a string drawn from Values.
	KindCategory Kind = "category"
)

// Field documents one of the job fields the extraction step has to produce.
type Field struct {
	Name    string
	Kind    Kind
	Values  []string
	Min     int
	Max     int
	Default any
	Hint    string
}

// ValidValue reports whether v is allowed for a category field.
func (f Field) ValidValue(v string) bool {
	for _, candidate := range f.Values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Describe renders the field the way it is presented to the language model.
func (f Field) Describe() string {
	switch f.Kind {
	case KindCount:
		return fmt.Sprintf("%s (integer): valid range %d-%d, default %v", f.Name, f.Min, f.Max, f.Default)
	default:
		quoted := make([]string, 0, len(f.Values))
		for _, v := range f.Values {
			quoted = append(quoted, fmt.Sprintf("%q", v))
		}
		return fmt.Sprintf("%s (string): valid values %s, default %q", f.Name, strings.Join(quoted, ", "), f.Default)
	}
}

// catalog lists the 17 fields in the order the training data carried them.
var catalog = []Field{
	{Name: "boilerSize", Kind: KindCategory, Values: []string{"small", "medium", "big"}, Default: "medium", Hint: "boiler size"},
	{Name: "radiator", Kind: KindCount, Min: 0, Max: 16, Default: 5, Hint: "number of radiators"},
	{Name: "radiatorType", Kind: KindCategory, Values: []string{"COPA_Aluminium", "FONDITAL_ARDENTE_C2", "GLOBAL_ISEO_350", "Helyos_Evo", "Primavera_H500", "Samochauf_SAHD", "Sira_Alice_Royal"}, Default: "Primavera_H500", Hint: "radiator model or brand"},
	{Name: "toilet", Kind: KindCount, Min: 0, Max: 3, Default: 2, Hint: "number of toilets"},
	{Name: "toileType", Kind: KindCategory, Values: []string{"Basic-Ceramic", "One-Piece", "Wall-Hung"}, Default: "One-Piece", Hint: "toilet style"},
	{Name: "washbasin", Kind: KindCount, Min: 0, Max: 3, Default: 2, Hint: "number of washbasins"},
	{Name: "washbasinType", Kind: KindCategory, Values: []string{"Countertop", "Pedestal", "Wall-Mounted"}, Default: "Pedestal", Hint: "washbasin style"},
	{Name: "bathhub", Kind: KindCount, Min: 0, Max: 2, Default: 1, Hint: "number of bathtubs"},
	{Name: "bathhubType", Kind: KindCategory, Values: []string{"Standard", "Luxury"}, Default: "Standard", Hint: "bathtub quality"},
	{Name: "showerCabin", Kind: KindCount, Min: 0, Max: 2, Default: 1, Hint: "number of showers"},
	{Name: "showerCabinType", Kind: KindCategory, Values: []string{"Basic_Enclosure", "Luxury_Enclosure"}, Default: "Basic_Enclosure", Hint: "shower quality"},
	{Name: "Bidet", Kind: KindCount, Min: 0, Max: 2, Default: 0, Hint: "number of bidets"},
	{Name: "BidetType", Kind: KindCategory, Values: []string{"Bidet-Ceramic", "Bidet-Mixer-Tap", "Wall-Hung"}, Default: "Bidet-Mixer-Tap", Hint: "bidet type"},
	{Name: "waterHeater", Kind: KindCount, Min: 0, Max: 2, Default: 1, Hint: "number of water heaters"},
	{Name: "waterHeaterType", Kind: KindCategory, Values: []string{"Electric-30liters", "Electric-50liters", "GAS-6liters", "GAS-11liters"}, Default: "Electric-50liters", Hint: "water heater capacity and fuel"},
	{Name: "sinkTypeQuality", Kind: KindCategory, Values: []string{"poor", "high"}, Default: "high", Hint: "overall quality level"},
	{Name: "sinkCategorie", Kind: KindCategory, Values: []string{"single", "double"}, Default: "single", Hint: "kitchen sink basins"},
}

var byName = func() map[string]Field {
	m := make(map[string]Field, len(catalog))
	for _, f := range catalog {
		m[f.Name] = f
	}
	return m
}()

// Catalog returns a copy of all known fields in canonical order.
func Catalog() []Field {
	out := make([]Field, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the field with the given name.
func Lookup(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// RequiredKeys lists the keys every extracted record has to carry.
func RequiredKeys() []string {
	keys := make([]string, 0, len(catalog))
	for _, f := range catalog {
		keys = append(keys, f.Name)
	}
	return keys
}

// Defaults returns the documented default job, used when extraction fails.
func Defaults() Record {
	r := make(Record, len(catalog))
	for _, f := range catalog {
		r[f.Name] = f.Default
	}
	return r
}

// MissingKeys returns the required keys absent or null in r, in catalog order.
func MissingKeys(r Record) []string {
	var missing []string
	for _, f := range catalog {
		if !r.Has(f.Name) {
			missing = append(missing, f.Name)
		}
	}
	return missing
}
