package hooks

import (
	"context"

	"github.com/rag2f/rag2f/pkg/config"
	"github.com/rs/zerolog"
)

// Context describes the running handler.
type Context struct {
	Hook     string
	Owner    string
	Caller   string
	Position int
	CallID   string
	Logger   zerolog.Logger

	cfg *config.Resolved
}

// Config returns the configuration snapshot taken when the dispatch started.
func (c *Context) Config() *config.Resolved {
	return c.cfg
}

// PluginConfig returns the owning plugin's subtree of the snapshot.
func (c *Context) PluginConfig() *config.Resolved {
	if c.cfg == nil {
		return nil
	}
	return c.cfg.Scoped(c.Owner)
}

type pluginIDKey struct{}

// WithPluginID returns a context carrying the id of the executing plugin.
func WithPluginID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, pluginIDKey{}, id)
}

// PluginIDFromContext returns the id of the plugin whose handler is running.
func PluginIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(pluginIDKey{}).(string)
	return id, ok && id != ""
}
