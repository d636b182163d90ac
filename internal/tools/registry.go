package tools

import "sync"

// Registry is the set of tools available to a character's tool loop,
// grouped and keyed by name. Ported from the teacher's tool registry
// nearly unchanged -- name lookup and groups generalize cleanly to any
// tool-bearing domain. There is no tool aliasing.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Tool
	groups map[string][]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]*Tool),
		groups: make(map[string][]string),
	}
}

// Register adds or replaces a tool.
func (r *Registry) Register(tool *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = tool
	if tool.Group != "" {
		r.groups[tool.Group] = append(r.groups[tool.Group], tool.Name)
	}
}

// Get looks up a tool by name. Returns nil if unregistered.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// GetByGroup returns the tools registered under a group.
func (r *Registry) GetByGroup(group string) []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := r.groups[group]
	out := make([]*Tool, 0, len(names))
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			out = append(out, t)
		}
	}
	return out
}

// All returns every registered tool.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

// Info builds the listing used to describe a tool to the model.
func (t *Tool) Info() ToolInfo {
	info := ToolInfo{Name: t.Name, Description: t.Description}
	schema, ok := t.InputSchema.(map[string]any)
	if !ok {
		return info
	}
	required := map[string]bool{}
	if reqList, ok := schema["required"].([]string); ok {
		for _, r := range reqList {
			required[r] = true
		}
	}
	props, _ := schema["properties"].(map[string]any)
	for name, raw := range props {
		desc := ""
		if propMap, ok := raw.(map[string]any); ok {
			if d, ok := propMap["description"].(string); ok {
				desc = d
			}
		}
		info.Parameters = append(info.Parameters, ParamInfo{
			Name:        name,
			Description: desc,
			Required:    required[name],
		})
	}
	return info
}
