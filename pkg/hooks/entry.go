package hooks

import (
	"context"
)

// DefaultPriority is used when a registration does not set one.
const DefaultPriority = 1

// Handler transforms a payload. ctx carries the owning plugin's id (see
// PluginIDFromContext) and is cancelled with the dispatch.
type Handler func(ctx context.Context, payload any, hc *Context) (any, error)

// Entry is one registered handler.
type Entry struct {
	ID          string
	Priority    int
	Sequence    uint64
	Owner       string
	Handler     Handler
	HandlerName string
}

// before reports whether e runs before other in a pipeline.
func (e Entry) before(other Entry) bool {
	if e.Priority != other.Priority {
		return e.Priority > other.Priority
	}
	return e.Sequence < other.Sequence
}
