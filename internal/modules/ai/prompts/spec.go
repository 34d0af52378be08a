package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Spec declares a prompt. System and User are Go templates over Input.
// Schema is nil for free-text prompts.
type Spec struct {
	Name       PromptName
	Version    int
	SchemaName string
	Schema     func() map[string]any
	System     string
	User       string
	Validators []Validator
}

// Template is a compiled Spec.
type Template struct {
	Name       PromptName
	Version    int
	SchemaName string
	Schema     func() map[string]any
	system     *template.Template
	user       *template.Template
	validate   []Validator
}

func MakeTemplate(s Spec) (Template, error) {
	if strings.TrimSpace(string(s.Name)) == "" {
		return Template{}, fmt.Errorf("missing prompt name")
	}
	if s.Version <= 0 {
		return Template{}, fmt.Errorf("invalid version for %s", s.Name)
	}
	if s.Schema != nil && strings.TrimSpace(s.SchemaName) == "" {
		return Template{}, fmt.Errorf("missing schema name for %s", s.Name)
	}
	if strings.TrimSpace(s.User) == "" {
		return Template{}, fmt.Errorf("missing user template for %s", s.Name)
	}
	sysT, err := template.New("system").Option("missingkey=error").Parse(s.System)
	if err != nil {
		return Template{}, fmt.Errorf("%s system template parse: %w", s.Name, err)
	}
	userT, err := template.New("user").Option("missingkey=error").Parse(s.User)
	if err != nil {
		return Template{}, fmt.Errorf("%s user template parse: %w", s.Name, err)
	}
	t := Template{
		Name:       s.Name,
		Version:    s.Version,
		SchemaName: s.SchemaName,
		Schema:     s.Schema,
		system:     sysT,
		user:       userT,
		validate:   s.Validators,
	}
	// Field typos only surface at execution time.
	if _, err := t.render(Input{}); err != nil {
		return Template{}, err
	}
	return t, nil
}

func (t Template) render(in Input) (Prompt, error) {
	var sys, user bytes.Buffer
	if err := t.system.Execute(&sys, in); err != nil {
		return Prompt{}, fmt.Errorf("%s system template: %w", t.Name, err)
	}
	if err := t.user.Execute(&user, in); err != nil {
		return Prompt{}, fmt.Errorf("%s user template: %w", t.Name, err)
	}
	p := Prompt{
		Name:       string(t.Name),
		Version:    t.Version,
		SchemaName: t.SchemaName,
		System:     strings.TrimSpace(sys.String()),
		User:       strings.TrimSpace(user.String()),
	}
	if t.Schema != nil {
		p.Schema = t.Schema()
	}
	return p, nil
}
