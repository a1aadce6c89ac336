package hooks

import (
	"sort"
	"sync"

	"github.com/rag2f/rag2f/pkg/config"
	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/rag2f/rag2f/pkg/logging"
	"github.com/rs/zerolog"
)

// Option customizes a Registry or Dispatcher.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger injects a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logging.Component(logger, "hooks") }
}

func applyOptions(opts []Option) options {
	o := options{logger: logging.GetLogger("hooks")}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type registrationKey struct {
	id      string
	owner   string
	handler uintptr
}

// Registry collects registrations during activation. It is safe for
// concurrent use but activation is expected to be sequential.
type Registry struct {
	mu       sync.Mutex
	sequence uint64
	entries  map[string][]Entry
	seen     map[registrationKey]struct{}
	frozen   bool
	logger   zerolog.Logger
}

// NewRegistry returns an empty, open Registry.
func NewRegistry(opts ...Option) *Registry {
	o := applyOptions(opts)
	return &Registry{
		entries: make(map[string][]Entry),
		seen:    make(map[registrationKey]struct{}),
		logger:  o.logger,
	}
}

// Register adds h to the pipeline id. An empty id defaults to the handler's
// declared function name; function literals must be given an id.
func (r *Registry) Register(id string, priority int, owner string, h Handler) (Entry, error) {
	if h == nil {
		return Entry{}, errors.New(errors.ErrInvalidInput, "hook handler is nil").
			WithDetail("hook", id).
			WithDetail("owner", owner)
	}

	name := qualifiedName(h)
	if id == "" {
		if id = declaredName(name); id == "" {
			return Entry{}, errors.Newf(errors.ErrInvalidInput, "hook id is required for function literal %s", name).
				WithDetail("owner", owner).
				WithDetail("handler", name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return Entry{}, errors.Newf(errors.ErrRegistryFrozen, "cannot register hook %q after activation", id).
			WithDetail("hook", id).
			WithDetail("owner", owner)
	}

	key := registrationKey{id: id, owner: owner, handler: handlerPointer(h)}
	if _, dup := r.seen[key]; dup {
		return Entry{}, errors.Newf(errors.ErrDuplicateHookRegistration, "handler %s is already registered for hook %q by %q", name, id, owner).
			WithDetail("hook", id).
			WithDetail("owner", owner).
			WithDetail("handler", name)
	}

	r.sequence++
	e := Entry{
		ID:          id,
		Priority:    priority,
		Sequence:    r.sequence,
		Owner:       owner,
		Handler:     h,
		HandlerName: name,
	}
	r.seen[key] = struct{}{}
	r.entries[id] = append(r.entries[id], e)

	r.logger.Trace().
		Str("hook", id).
		Str("owner", owner).
		Int("priority", priority).
		Uint64("sequence", e.Sequence).
		Str("handler", name).
		Msg("Registered hook")

	return e, nil
}

// For returns a Registrar bound to one plugin. cfg is the root configuration
// used during activation; the registrar exposes the plugin's scoped view.
func (r *Registry) For(owner string, cfg *config.Resolved) *Registrar {
	return &Registrar{registry: r, owner: owner, cfg: cfg}
}

// Freeze closes the registry and returns its sorted pipelines. Calling Freeze
// again returns an equivalent snapshot.
func (r *Registry) Freeze() *Pipelines {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frozen = true

	p := &Pipelines{byID: make(map[string][]Entry, len(r.entries))}
	total := 0
	for id, entries := range r.entries {
		sorted := make([]Entry, len(entries))
		copy(sorted, entries)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].before(sorted[j]) })
		p.byID[id] = sorted
		total += len(sorted)
	}

	r.logger.Debug().
		Int("hooks", len(p.byID)).
		Int("handlers", total).
		Msg("Hook registry frozen")

	return p
}

// Pipelines is the immutable result of Registry.Freeze.
type Pipelines struct {
	byID map[string][]Entry
}

// Get returns a copy of the ordered pipeline for id; empty when nothing is
// registered.
func (p *Pipelines) Get(id string) []Entry {
	entries := p.byID[id]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Len returns the number of handlers registered for id.
func (p *Pipelines) Len(id string) int {
	return len(p.byID[id])
}

// IDs returns every hook identifier with at least one handler, sorted.
func (p *Pipelines) IDs() []string {
	ids := make([]string, 0, len(p.byID))
	for id := range p.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
