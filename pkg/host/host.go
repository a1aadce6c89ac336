package host

import (
	"context"
	"strings"

	"github.com/rag2f/rag2f/pkg/config"
	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/rag2f/rag2f/pkg/hooks"
	"github.com/rag2f/rag2f/pkg/logging"
	"github.com/rag2f/rag2f/pkg/plugins"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DisabledPluginsKey lists plugin ids that are discovered but not activated.
const DisabledPluginsKey = "rag2f.disabled_plugins"

// Options configures Start. Every field is optional.
type Options struct {
	// Defaults is the host defaults layer; nil means config.HostDefaults().
	Defaults map[string]any
	// ConfigFile is the configuration document. A missing file is ignored.
	ConfigFile string
	// Document is used as the document layer when ConfigFile is empty.
	Document map[string]any
	// Environ is the environment layer; nil means the process environment.
	Environ map[string]string

	PluginDir    string
	InstalledDir string
	Fs           afero.Fs

	// EntryPoints are searched before InstalledDir.
	EntryPoints plugins.EntryPointSource
	// Loader resolves targets. Nil builds a chain from every entry-point
	// source that is also a Loader, followed by the shared-object loader.
	Loader plugins.Loader

	Logger *zerolog.Logger
}

// Inactive is a discovered plugin that was not activated.
type Inactive struct {
	Descriptor plugins.Descriptor
	Reason     string
	Err        error
}

// Host is a started rag2f instance. All read methods are safe for
// concurrent use.
type Host struct {
	opts       Options
	logger     zerolog.Logger
	defaults   map[string]any
	discovery  *plugins.Discovery
	active     []plugins.Descriptor
	inactive   []Inactive
	holder     *config.Holder
	dispatcher *hooks.Dispatcher
}

// Start discovers, configures and activates plugins.
func Start(ctx context.Context, opts Options) (*Host, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	h := &Host{opts: opts, logger: logging.GetLogger("host")}
	if opts.Logger != nil {
		h.logger = logging.Component(*opts.Logger, "host")
	}
	done := logging.LogOperationStart(h.logger, "startup")
	defer done()
	h.logger.Debug().
		Str("pluginDir", opts.PluginDir).
		Str("installedDir", opts.InstalledDir).
		Str("configFile", opts.ConfigFile).
		Msg("Starting host")

	// 1. Discovery
	source := h.entryPointSource()
	discovery, err := plugins.NewDiscoverer(plugins.DiscoverOptions{
		EntryPoints: source,
		Fs:          opts.Fs,
		PluginDir:   opts.PluginDir,
		Logger:      &h.logger,
	}).Discover()
	if err != nil {
		return nil, err
	}
	h.discovery = discovery

	// 2. Configuration
	h.defaults = mergeDefaults(discovery.Plugins, opts.Defaults)
	cfg, err := h.buildConfig()
	if err != nil {
		return nil, err
	}

	// 3. Activation
	loader := opts.Loader
	if loader == nil {
		loader = defaultLoader(source)
	}
	registry := hooks.NewRegistry(hooks.WithLogger(h.logger))
	if err := h.activate(registry, loader, cfg); err != nil {
		return nil, err
	}

	// 4. Freeze
	pipelines := registry.Freeze()
	h.holder = config.NewHolder(cfg)
	h.dispatcher = hooks.NewDispatcher(pipelines, h.holder, hooks.WithLogger(h.logger))

	h.logger.Info().
		Int("active", len(h.active)).
		Int("inactive", len(h.inactive)).
		Int("hooks", len(pipelines.IDs())).
		Msg("Host started")

	return h, nil
}

func (h *Host) entryPointSource() plugins.EntryPointSource {
	var sources plugins.MultiSource
	if h.opts.EntryPoints != nil {
		sources = append(sources, h.opts.EntryPoints)
	}
	if h.opts.InstalledDir != "" {
		sources = append(sources, plugins.NewInstalledIndex(h.opts.Fs, h.opts.InstalledDir))
	}
	return sources
}

func defaultLoader(src plugins.EntryPointSource) plugins.Loader {
	var chain plugins.ChainLoader
	var collect func(s plugins.EntryPointSource)
	collect = func(s plugins.EntryPointSource) {
		switch v := s.(type) {
		case plugins.MultiSource:
			for _, inner := range v {
				collect(inner)
			}
		case plugins.Loader:
			chain = append(chain, v)
		}
	}
	collect(src)
	return append(chain, plugins.NewSharedObjectLoader())
}

// mergeDefaults places each plugin's manifest defaults under plugins.<id>
// and lets the host defaults override them.
func mergeDefaults(descs []plugins.Descriptor, hostDefaults map[string]any) map[string]any {
	if hostDefaults == nil {
		hostDefaults = config.HostDefaults()
	}

	pluginDefaults := make(map[string]any)
	for _, d := range descs {
		if len(d.Defaults) > 0 {
			pluginDefaults[d.ID] = d.Defaults
		}
	}

	return config.MergeDefaults(
		map[string]any{config.PluginsKey: pluginDefaults},
		hostDefaults,
	)
}

func (h *Host) buildConfig() (*config.Resolved, error) {
	document := h.opts.Document
	if h.opts.ConfigFile != "" {
		doc, err := config.LoadFile(h.opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		document = doc
	}

	environ := h.opts.Environ
	if environ == nil {
		environ = config.Environ()
	}

	return config.Build(h.defaults, document, environ, config.WithLogger(h.logger))
}

func (h *Host) activate(registry *hooks.Registry, loader plugins.Loader, cfg *config.Resolved) error {
	disabled := make(map[string]bool)
	for _, id := range cfg.Strings(DisabledPluginsKey) {
		disabled[plugins.NormalizeID(id)] = true
	}

	activated := make(map[string]bool)
	for _, d := range h.discovery.Plugins {
		if disabled[d.ID] {
			h.skip(d, "disabled by "+DisabledPluginsKey, nil)
			continue
		}

		if missing := missingRequirements(d, activated); len(missing) > 0 {
			err := errors.Newf(errors.ErrPluginLoad, "plugin %q requires %s", d.ID, strings.Join(missing, ", ")).
				WithDetail("id", d.ID).
				WithDetail("missing", missing)
			h.skip(d, "missing requirements", err)
			continue
		}

		p, err := loader.Load(d)
		if err != nil {
			if !errors.IsErrorCode(err, errors.ErrPluginLoad) {
				err = errors.Wrapf(err, errors.ErrPluginLoad, "cannot load plugin %q", d.ID).
					WithDetail("id", d.ID).
					WithDetail("target", d.ImportTarget)
			}
			h.skip(d, "load failed", err)
			continue
		}

		reg := registry.For(d.ID, cfg)
		if err := activatePlugin(p, reg); err != nil {
			return errors.Wrapf(err, errors.ErrPluginActivation, "plugin %q failed to activate", d.ID).
				WithDetail("id", d.ID).
				WithDetail("source", string(d.Source))
		}
		if err := reg.Err(); err != nil {
			return errors.Wrapf(err, errors.ErrPluginActivation, "plugin %q registered an invalid hook", d.ID).
				WithDetail("id", d.ID).
				WithDetail("source", string(d.Source))
		}

		activated[d.ID] = true
		h.active = append(h.active, d)
		h.logger.Debug().
			Str("id", d.ID).
			Str("source", string(d.Source)).
			Str("target", d.ImportTarget).
			Msg("Plugin activated")
	}
	return nil
}

// activatePlugin turns a panic during Activate into an error.
func activatePlugin(p plugins.Plugin, reg *hooks.Registrar) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrInternal, "activate panicked: %v", r)
		}
	}()
	return p.Activate(reg)
}

func missingRequirements(d plugins.Descriptor, activated map[string]bool) []string {
	var missing []string
	for _, req := range d.Requires {
		if !activated[req] {
			missing = append(missing, req)
		}
	}
	return missing
}

func (h *Host) skip(d plugins.Descriptor, reason string, err error) {
	h.inactive = append(h.inactive, Inactive{Descriptor: d, Reason: reason, Err: err})
	var ev *zerolog.Event
	if err != nil {
		ev = h.logger.Warn().Err(err)
	} else {
		ev = h.logger.Info()
	}
	ev.Str("id", d.ID).Str("reason", reason).Msg("Plugin not activated")
}

// Dispatch runs the pipeline for hook id.
func (h *Host) Dispatch(ctx context.Context, id string, payload any, caller string) (any, error) {
	return h.dispatcher.Dispatch(ctx, id, payload, caller)
}

// Dispatcher returns the host's dispatcher, e.g. for hooks.DispatchAs.
func (h *Host) Dispatcher() *hooks.Dispatcher {
	return h.dispatcher
}

// Hooks returns the frozen pipelines.
func (h *Host) Hooks() *hooks.Pipelines {
	return h.dispatcher.Pipelines()
}

// Config returns the current configuration snapshot.
func (h *Host) Config() *config.Resolved {
	return h.holder.Current()
}

// PluginConfig returns the current configuration rooted at plugins.<id>.
func (h *Host) PluginConfig(id string) *config.Resolved {
	return h.holder.Current().Scoped(plugins.NormalizeID(id))
}

// Plugins returns the activated plugins in activation order.
func (h *Host) Plugins() []plugins.Descriptor {
	return append([]plugins.Descriptor(nil), h.active...)
}

// Inactive returns discovered plugins that were not activated.
func (h *Host) Inactive() []Inactive {
	return append([]Inactive(nil), h.inactive...)
}

// Discovery returns the discovery result Start used.
func (h *Host) Discovery() *plugins.Discovery {
	return h.discovery
}

// Reload rebuilds the configuration from the same layers and publishes it.
// Dispatches already running keep their snapshot. On error the current
// configuration stays in effect.
func (h *Host) Reload() error {
	cfg, err := h.buildConfig()
	if err != nil {
		return err
	}
	h.holder.Swap(cfg)
	h.logger.Debug().Msg("Configuration swapped")
	return nil
}

// Watch reloads the configuration whenever ConfigFile changes, until ctx is
// done.
func (h *Host) Watch(ctx context.Context) error {
	if h.opts.ConfigFile == "" {
		return errors.New(errors.ErrInvalidInput, "no configuration file to watch")
	}
	return config.Watch(ctx, h.opts.ConfigFile, h.Reload, h.logger)
}
