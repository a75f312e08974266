package tool

import (
	"context"
	"fmt"
	"sort"
)

// Registry is the catalog of tools available to the dispatch pipeline. It is
// populated once at startup and read-only afterwards, so it is shared across
// concurrent turns without locking.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: map[string]Tool{},
	}
}

// Register adds a tool to the catalog. Registering a name twice is a
// programming error and fails loudly instead of silently overwriting.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// ListAll returns every definition in stable name order, for presentation to
// the model.
func (r *Registry) ListAll() []Tool {
	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Invoke looks up a tool and runs its handler. Handler failures come back as
// errors, not panics; panic recovery is the orchestrator's job so that one
// tool cannot take down its siblings.
func (r *Registry) Invoke(ctx context.Context, env Env, name string, args map[string]any) (map[string]any, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return t.invoke(ctx, env, args)
}
