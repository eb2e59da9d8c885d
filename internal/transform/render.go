// Package transform post-processes the JSON the bridge produces: pick a
// value out with a gjson path, then render it as JSON, YAML or TOML.
package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by ForOutput.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// tomlRoot wraps values TOML cannot hold at the top level.
const tomlRoot = "notifications"

// Step is one stage of a Pipeline. A string result is final and passes
// through later steps untouched.
type Step func(in any) (any, error)

// Pipeline decodes JSON text and runs it through its steps.
type Pipeline struct {
	steps []Step
}

var encoders = map[string]Step{
	FormatJSON: toJSON,
	FormatYAML: toYAML,
	FormatTOML: toTOML,
}

// ForOutput builds the pipeline for a --format/--select pair. An empty
// format means JSON.
func ForOutput(format, selectPath string) (*Pipeline, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = FormatJSON
	}
	encode, ok := encoders[format]
	if !ok {
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
	p := &Pipeline{}
	if selectPath != "" {
		p.steps = append(p.steps, Select(selectPath))
	}
	p.steps = append(p.steps, encode)
	return p, nil
}

// Run decodes input and executes every step on it.
func (p *Pipeline) Run(input string) (string, error) {
	var current any
	if err := json.Unmarshal([]byte(input), &current); err != nil {
		return "", fmt.Errorf("json: %w", err)
	}
	for _, step := range p.steps {
		if _, done := current.(string); done {
			break
		}
		var err error
		if current, err = step(current); err != nil {
			return "", err
		}
	}
	switch out := current.(type) {
	case string:
		return out, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("pipeline did not produce a string output")
	}
}

// Select picks path out of the decoded document. Scalars come back as plain
// strings so a selected label or reply prints without quotes.
func Select(path string) Step {
	path = strings.Trim(path, `'"`)
	return func(in any) (any, error) {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		result := gjson.GetBytes(raw, path)
		if !result.Exists() {
			return nil, fmt.Errorf("select: path not found: %s", path)
		}
		if result.IsObject() || result.IsArray() {
			return result.Value(), nil
		}
		return result.String(), nil
	}
}

func toJSON(in any) (any, error) {
	out, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("to_json: %w", err)
	}
	return string(out), nil
}

func toYAML(in any) (any, error) {
	out, err := yaml.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("to_yaml: %w", err)
	}
	return string(out), nil
}

func toTOML(in any) (any, error) {
	if _, ok := in.(map[string]any); !ok {
		in = map[string]any{tomlRoot: in}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(in); err != nil {
		return nil, fmt.Errorf("to_toml: %w", err)
	}
	return buf.String(), nil
}
