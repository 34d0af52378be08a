package prompts

import (
	"fmt"
	"sync"
)

// Registry maps prompt names to compiled templates. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[PromptName]Template
}

func NewRegistry() *Registry {
	return &Registry{templates: map[PromptName]Template{}}
}

func (r *Registry) Register(t Template) {
	r.mu.Lock()
	r.templates[t.Name] = t
	r.mu.Unlock()
}

// RegisterSpec compiles and registers s.
func (r *Registry) RegisterSpec(s Spec) error {
	t, err := MakeTemplate(s)
	if err != nil {
		return err
	}
	r.Register(t)
	return nil
}

func (r *Registry) Build(name PromptName, in Input) (Prompt, error) {
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", string(name))
	}
	for _, v := range t.validate {
		if v == nil {
			continue
		}
		if err := v(in); err != nil {
			return Prompt{}, &InputError{Prompt: name, Err: err}
		}
	}
	return t.render(in)
}

func (r *Registry) Version(name PromptName) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.templates[name].Version
}
