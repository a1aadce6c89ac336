package rag2f

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort        = "Plugin host for retrieval-augmented generation"
	MsgRootLong         = "rag2f discovers plugins, resolves their configuration from defaults, a\nconfiguration document and RAG2F__* environment variables, and runs\npriority-ordered hook pipelines."
	MsgPluginsShort     = "Inspect and create plugins"
	MsgPluginsListShort = "List discovered plugins"
	MsgPluginsInitShort = "Create a new filesystem plugin"
	MsgConfigShort      = "Inspect the resolved configuration"
	MsgConfigGetShort   = "Print the resolved value at a key path"
	MsgConfigEnvShort   = "Print the environment variable that overrides a key path"
	MsgHooksShort       = "Inspect hook pipelines"
	MsgHooksListShort   = "List hook pipelines in dispatch order"
	MsgDispatchShort    = "Run a hook pipeline and print its result"
	MsgVersionShort     = "Print version information"

	// Section headings
	MsgActivePlugins   = "Active plugins"
	MsgInactivePlugins = "Inactive plugins"
	MsgShadowedPlugins = "Shadowed plugins"
	MsgSkippedPlugins  = "Skipped candidates"
	MsgNoPlugins       = "No plugins found."
	MsgNoHooks         = "No hooks registered."
	MsgHookHeading     = "%s (%d)"

	// Status messages
	MsgPluginCreated = "Created plugin '%s' at %s\n"
	MsgDryRunNotice  = "DRY RUN - would write %s:\n"
	MsgValueSource   = "# %s from %s\n"
	MsgValueEnv      = "# override with %s\n"

	// Error messages
	MsgErrNoCommand   = "no command specified"
	MsgErrEncodeValue = "cannot encode value: %w"

	// Flag descriptions
	MsgFlagVerbose      = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagNoColor      = "Disable colored output"
	MsgFlagConfig       = "Configuration document (.json, .toml, .yaml)"
	MsgFlagPluginsDir   = "Directory scanned for filesystem plugins"
	MsgFlagInstalledDir = "Directory holding installed package metadata"
	MsgFlagPlugin       = "Resolve the path inside plugins.<id>"
	MsgFlagExplain      = "Show which layer set each value"
	MsgFlagName         = "Display name written to the manifest"
	MsgFlagDescription  = "Description written to the manifest"
	MsgFlagDryRun       = "Print the manifest without writing it"
	MsgFlagCaller       = "Caller name reported to hook handlers"
)
