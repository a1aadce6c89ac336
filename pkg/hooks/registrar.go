package hooks

import (
	"github.com/rag2f/rag2f/pkg/config"
)

// Registrar is what a plugin sees while it activates.
type Registrar struct {
	registry *Registry
	owner    string
	cfg      *config.Resolved
	err      error
}

// HookOption customizes a single registration.
type HookOption func(*hookOptions)

type hookOptions struct {
	id       string
	priority int
}

// WithID sets the hook identifier instead of the handler's function name.
func WithID(id string) HookOption {
	return func(o *hookOptions) { o.id = id }
}

// WithPriority sets the registration priority. Higher runs earlier.
func WithPriority(priority int) HookOption {
	return func(o *hookOptions) { o.priority = priority }
}

// Hook registers h on behalf of the bound plugin.
func (r *Registrar) Hook(h Handler, opts ...HookOption) (Entry, error) {
	o := hookOptions{priority: DefaultPriority}
	for _, opt := range opts {
		opt(&o)
	}
	e, err := r.registry.Register(o.id, o.priority, r.owner, h)
	if err != nil && r.err == nil {
		r.err = err
	}
	return e, err
}

// Err returns the first registration error, even if the plugin ignored it.
func (r *Registrar) Err() error {
	return r.err
}

// PluginID returns the id of the plugin being activated.
func (r *Registrar) PluginID() string {
	return r.owner
}

// Config returns the plugin's configuration subtree (plugins.<id>). It is
// nil when the registrar was created without configuration.
func (r *Registrar) Config() *config.Resolved {
	if r.cfg == nil {
		return nil
	}
	return r.cfg.Scoped(r.owner)
}
