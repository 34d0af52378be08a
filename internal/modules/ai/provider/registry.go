package provider

import "sync"

// Task names a generation use so a deployment can route it to a specific provider.
type Task string

const (
	TaskChat   Task = "chat"
	TaskExpand Task = "expand"
	TaskQuiz   Task = "quiz"
	TaskCourse Task = "course"
	TaskCode   Task = "code"
)

// Registry resolves a Generator per task, falling back to the default.
type Registry struct {
	mu     sync.RWMutex
	def    Generator
	byTask map[Task]Generator
}

func NewRegistry(def Generator) *Registry {
	return &Registry{def: def, byTask: map[Task]Generator{}}
}

func (r *Registry) Set(task Task, g Generator) {
	if g == nil {
		return
	}
	r.mu.Lock()
	r.byTask[task] = g
	r.mu.Unlock()
}

func (r *Registry) For(task Task) Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.byTask[task]; ok {
		return g
	}
	return r.def
}
