package rag2f

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rag2f/rag2f/internal/builtin"
	"github.com/rag2f/rag2f/internal/version"
	"github.com/rag2f/rag2f/pkg/cobrax/topics"
	"github.com/rag2f/rag2f/pkg/host"
	"github.com/rag2f/rag2f/pkg/logging"
	"github.com/rag2f/rag2f/pkg/paths"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

//go:embed topics
var topicFiles embed.FS

// rootOptions holds the global flags.
type rootOptions struct {
	verbosity    int
	noColor      bool
	configFile   string
	pluginDir    string
	installedDir string
}

// startHost starts a host from the global flags with the compiled-in catalog.
func (o *rootOptions) startHost(ctx context.Context) (*host.Host, error) {
	return host.Start(ctx, host.Options{
		ConfigFile:   o.configFile,
		PluginDir:    o.pluginDir,
		InstalledDir: o.installedDir,
		EntryPoints:  builtin.Catalog(),
	})
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	defaults := paths.New()
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "rag2f",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				disableColor()
			}
			// Setup logging based on verbosity
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand: show help and fail
			_ = cmd.Help()
			return errors.New(MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.BoolVar(&opts.noColor, "no-color", false, MsgFlagNoColor)
	flags.StringVar(&opts.configFile, "config", defaults.ConfigFile(), MsgFlagConfig)
	flags.StringVar(&opts.pluginDir, "plugins-dir", defaults.PluginDir(), MsgFlagPluginsDir)
	flags.StringVar(&opts.installedDir, "installed-dir", defaults.InstalledDir(), MsgFlagInstalledDir)

	rootCmd.AddCommand(newPluginsCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newHooksCmd(opts))
	rootCmd.AddCommand(newDispatchCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	if err := initTopics(rootCmd); err != nil {
		log.Warn().Err(err).Msg("Help topics unavailable")
	}

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// initTopics serves the embedded topics through "rag2f help <topic>".
func initTopics(rootCmd *cobra.Command) error {
	fsys, err := fs.Sub(topicFiles, "topics")
	if err != nil {
		return err
	}
	return topics.InitializeWithOptions(rootCmd, fsys, topics.Options{
		Renderer: topics.NewGlamourRenderer(),
	})
}
