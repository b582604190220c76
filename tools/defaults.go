package tools

// Deps are the collaborators of the built-in executors.
type Deps struct {
	Memory         MemoryStore
	MemoryDefaults MemoryDefaults
}

// NewDefaultRegistry registers the built-in tools in their stable order.
func NewDefaultRegistry(deps Deps) *Registry {
	r := NewRegistry()
	r.Register(recallMemoryDecl(), recallMemoryHandler(deps.Memory, deps.MemoryDefaults))
	r.Register(storeMemoryDecl(), storeMemoryHandler(deps.Memory, deps.MemoryDefaults))
	r.Register(checkQCDecl(), checkQCHandler())
	r.Register(getTemplateDecl(), getTemplateHandler())
	r.Register(calculateStatisticsDecl(), calculateStatisticsHandler())
	r.Register(askUserQuestionDecl(), askUserQuestionHandler())
	return r
}

// Without returns a registry holding every tool except the named ones.
func (r *Registry) Without(names ...string) *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := NewRegistry()
	for _, name := range r.order {
		if skip[name] {
			continue
		}
		e := r.tools[name]
		out.Register(e.decl, e.run)
	}
	return out
}
