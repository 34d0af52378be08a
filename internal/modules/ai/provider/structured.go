package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a named JSON schema document.
type Schema struct {
	Name string
	Doc  map[string]any
}

// Instructions renders the suffix appended to a prompt asking for JSON output.
func (s Schema) Instructions() (string, error) {
	b, err := json.MarshalIndent(s.Doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("schema %s: %w", s.Name, err)
	}
	return "\n\nReturn ONLY a JSON object that matches this schema:\n" + string(b), nil
}

// Validate returns the list of schema violations for doc.
func (s Schema) Validate(doc []byte) ([]string, error) {
	res, err := gojsonschema.Validate(gojsonschema.NewGoLoader(s.Doc), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.Name, err)
	}
	if res.Valid() {
		return nil, nil
	}
	out := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		out = append(out, e.String())
	}
	return out, nil
}

// StructuredResult is the outcome of GenerateStructured. Exactly one of Value
// and Err is set. Err is a *ParseFailure or a *GenerationError.
type StructuredResult struct {
	Raw   string
	Value json.RawMessage
	Err   error
}

func (r StructuredResult) Decode(v any) error {
	if r.Err != nil {
		return r.Err
	}
	if err := json.Unmarshal(r.Value, v); err != nil {
		return &ParseFailure{Raw: r.Raw, Err: err}
	}
	return nil
}

// GenerateStructured asks gen for a JSON object matching schema and repairs
// the common case of prose around the object. Parse failures are not retried.
func GenerateStructured(ctx context.Context, gen Generator, prompt, system string, schema Schema) StructuredResult {
	suffix, err := schema.Instructions()
	if err != nil {
		return StructuredResult{Err: err}
	}
	req := UserPrompt(system, prompt+suffix)
	req.JSON = true

	raw, err := gen.GenerateText(ctx, req)
	if err != nil {
		var ge *GenerationError
		if !errors.As(err, &ge) {
			err = &GenerationError{Provider: "unknown", Err: err}
		}
		return StructuredResult{Err: err}
	}

	doc, err := ParseJSONObject(raw)
	if err != nil {
		return StructuredResult{Raw: raw, Err: err}
	}
	violations, err := schema.Validate(doc)
	if err != nil {
		return StructuredResult{Raw: raw, Err: &ParseFailure{Raw: raw, Err: err}}
	}
	if len(violations) > 0 {
		return StructuredResult{Raw: raw, Err: &ParseFailure{Raw: raw, Violations: violations}}
	}
	return StructuredResult{Raw: raw, Value: doc}
}

// ParseJSONObject parses raw strictly and falls back to the substring between
// the first '{' and the last '}'.
func ParseJSONObject(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if doc, err := decodeObject(trimmed); err == nil {
		return doc, nil
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, &ParseFailure{Raw: raw, Err: errors.New("no JSON object found")}
	}
	doc, err := decodeObject(trimmed[start : end+1])
	if err != nil {
		return nil, &ParseFailure{Raw: raw, Err: err}
	}
	return doc, nil
}

func decodeObject(s string) (json.RawMessage, error) {
	var obj map[string]any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("expected a JSON object")
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
