// Package hook defines the contract the proxy engine uses to invoke plugin
// code on intercepted traffic.
//
// A hook receives the message id and the raw wire bytes and returns either
// re-serialized bytes (see internal/httpmsg) or the untouched input. Errors
// are not recovered here; the engine owns retry and skip policy. Hooks may be
// called concurrently for independent messages, so plugin-owned resources
// must serialize their own access.
package hook

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// RequestHook rewrites intercepted requests.
type RequestHook interface {
	OnRequest(id uint64, raw []byte) ([]byte, error)
}

// ResponseHook rewrites intercepted responses.
type ResponseHook interface {
	OnResponse(id uint64, raw []byte) ([]byte, error)
}

// RequestFunc adapts a function to the RequestHook interface.
type RequestFunc func(id uint64, raw []byte) ([]byte, error)

func (f RequestFunc) OnRequest(id uint64, raw []byte) ([]byte, error) {
	return f(id, raw)
}

// ResponseFunc adapts a function to the ResponseHook interface.
type ResponseFunc func(id uint64, raw []byte) ([]byte, error)

func (f ResponseFunc) OnResponse(id uint64, raw []byte) ([]byte, error) {
	return f(id, raw)
}

// Funcs bundles optional hook functions into one plugin value.
type Funcs struct {
	Request  RequestFunc
	Response ResponseFunc
}

// Plugin is a registered plugin and the hooks it provides. A nil hook is
// pass-through.
type Plugin struct {
	Name     string
	Request  RequestHook
	Response ResponseHook
}

var (
	ErrNoHooks          = errors.New("plugin implements no hook")
	ErrDuplicatePlugin  = errors.New("plugin already registered")
	ErrPluginNotPresent = errors.New("plugin not registered")
)

// Registry holds plugins in registration order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	plugins map[string]Plugin
}

func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register records plugin under name. The plugin's capabilities are whichever
// of RequestHook and ResponseHook it implements.
func (r *Registry) Register(name string, plugin any) error {
	p := Plugin{Name: name}
	switch v := plugin.(type) {
	case Funcs:
		if v.Request != nil {
			p.Request = v.Request
		}
		if v.Response != nil {
			p.Response = v.Response
		}
	default:
		if h, ok := plugin.(RequestHook); ok && !isNilFunc(h) {
			p.Request = h
		}
		if h, ok := plugin.(ResponseHook); ok && !isNilFunc(h) {
			p.Response = h
		}
	}
	if p.Request == nil && p.Response == nil {
		return fmt.Errorf("register %q: %w", name, ErrNoHooks)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrDuplicatePlugin)
	}
	r.plugins[name] = p
	r.order = append(r.order, name)
	return nil
}

// isNilFunc catches nil adapters, which satisfy the hook interfaces but
// panic when called.
func isNilFunc(h any) bool {
	switch f := h.(type) {
	case RequestFunc:
		return f == nil
	case ResponseFunc:
		return f == nil
	}
	return false
}

// Lookup returns the plugin registered under name.
func (r *Registry) Lookup(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	if !ok {
		return Plugin{}, fmt.Errorf("%w: %q", ErrPluginNotPresent, name)
	}
	return p, nil
}

// Names returns registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	sort.Strings(out)
	return out
}

func (r *Registry) snapshot() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.plugins[name])
	}
	return out
}

// ApplyRequest runs every request hook in registration order.
func (r *Registry) ApplyRequest(id uint64, raw []byte) ([]byte, error) {
	for _, p := range r.snapshot() {
		if p.Request == nil {
			continue
		}
		out, err := p.Request.OnRequest(id, raw)
		if err != nil {
			return nil, fmt.Errorf("plugin %q request hook: %w", p.Name, err)
		}
		raw = out
	}
	return raw, nil
}

// ApplyResponse runs every response hook in registration order.
func (r *Registry) ApplyResponse(id uint64, raw []byte) ([]byte, error) {
	for _, p := range r.snapshot() {
		if p.Response == nil {
			continue
		}
		out, err := p.Response.OnResponse(id, raw)
		if err != nil {
			return nil, fmt.Errorf("plugin %q response hook: %w", p.Name, err)
		}
		raw = out
	}
	return raw, nil
}
