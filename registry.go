package toolsrv

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool is a registered descriptor/handler pair with its compiled input schema.
type Tool struct {
	desc    ToolDescriptor
	raw     Handler // unwrapped, used by Use() to re-apply middlewares from scratch
	handler Handler // wrapped with middlewares, used by the dispatcher
	schema  *compiledSchema
	opts    toolOptions
}

func (t *Tool) Name() string        { return t.desc.Name }
func (t *Tool) Description() string { return t.desc.Description }

// Descriptor returns a copy of the registered descriptor.
func (t *Tool) Descriptor() ToolDescriptor { return cloneDescriptor(t.desc) }

// InputSchema returns a shallow copy of the JSON Schema of the arguments (top-level keys only).
// Nested maps are shared; callers must not mutate them.
func (t *Tool) InputSchema() map[string]any { return maps.Clone(t.schema.schemaMap) }

// Schema returns the typed input schema.
func (t *Tool) Schema() *jsonschema.Schema { return t.schema.schema.CloneSchemas() }

// OutputSchema returns the JSON Schema of the success value, or nil if unknown.
func (t *Tool) OutputSchema() map[string]any { return maps.Clone(t.opts.outputSchema) }

func (t *Tool) Timeout() time.Duration { return t.opts.timeout }
func (t *Tool) Tags() []string         { return slices.Clone(t.opts.tags) }

// Registry maps tool names to tools. Registration happens once at startup; after Seal
// the registry is read-only and safe for concurrent lookups.
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]*Tool
	middlewares []Middleware
	sealed      bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. It fails with ErrDuplicateTool if the name is taken, with
// ErrInvalidDescriptor if the descriptor breaks its invariants, and with ErrSealed after Seal.
// Stored middlewares (see Use) are applied to the handler.
func (r *Registry) Register(desc ToolDescriptor, h Handler, opts ...ToolOption) error {
	if h == nil {
		return fmt.Errorf("%w: %s: nil handler", ErrInvalidDescriptor, desc.Name)
	}
	desc = cloneDescriptor(desc)
	cs, err := compileDescriptor(desc)
	if err != nil {
		return err
	}
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("%w: cannot register %s", ErrSealed, desc.Name)
	}
	if _, ok := r.tools[desc.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, desc.Name)
	}
	t := &Tool{desc: desc, raw: h, schema: cs, opts: o}
	t.handler = wrap(desc, h, r.middlewares)
	r.tools[desc.Name] = t
	return nil
}

// Seal ends the registration phase. Further Register and Use calls fail or are ignored.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Lookup returns the tool registered under name. The error is a ClientError wrapping
// ErrToolNotFound with the message "tool not found: <name>".
func (r *Registry) Lookup(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, &ClientError{Reason: "tool not found: " + name, Err: ErrToolNotFound}
	}
	return t, nil
}

// Tools returns all registered tools, sorted by name for deterministic order.
func (r *Registry) Tools() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := slices.Sorted(maps.Keys(r.tools))
	out := make([]*Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Use stores the given middlewares and reapplies them from scratch to all registered tools (onion
// order: first middleware is outermost). Tools registered later get them too. Calling Use again
// replaces the chain. Use is a no-op once the registry is sealed.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	r.middlewares = middlewares
	for _, t := range r.tools {
		t.handler = wrap(t.desc, t.raw, middlewares)
	}
}

func wrap(desc ToolDescriptor, h Handler, middlewares []Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](desc, h)
	}
	return h
}
