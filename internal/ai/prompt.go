package ai

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"text/template"

	_ "embed"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

//go:embed prompt.md
var promptTemplate string

var (
	promptOnce sync.Once
	prompt     string
)

// SystemPrompt returns the extraction instructions shared by every provider.
func SystemPrompt() string {
	promptOnce.Do(func() {
		prompt = renderPrompt(promptTemplate)
	})
	return prompt
}

func renderPrompt(text string) string {
	tmpl, err := template.New("prompt").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(text)
	if err != nil {
		panic("extraction prompt template: " + err.Error())
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		Fields  []features.Field
		Example string
	}{
		Fields:  features.Catalog(),
		Example: exampleRecord(),
	})
	if err != nil {
		panic("extraction prompt template: " + err.Error())
	}
	return strings.TrimSpace(buf.String())
}

func exampleRecord() string {
	r := features.Defaults()
	r["toilet"] = 1
	r["toileType"] = "Basic-Ceramic"
	r["washbasin"] = 1
	r["bathhub"] = 0
	r["waterHeaterType"] = "Electric-30liters"
	r["sinkTypeQuality"] = "poor"

	// keep catalog order so the example reads like the key list above
	var b strings.Builder
	b.WriteString("{\n")
	for i, key := range features.RequiredKeys() {
		value, _ := json.Marshal(r[key])
		b.WriteString(`  "` + key + `": ` + string(value))
		if i < len(r)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}
