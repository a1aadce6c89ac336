package rag2f

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rag2f/rag2f/pkg/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: MsgConfigShort,
	}
	cmd.AddCommand(newConfigGetCmd(opts))
	cmd.AddCommand(newConfigEnvCmd())
	return cmd
}

func newConfigGetCmd(opts *rootOptions) *cobra.Command {
	var (
		pluginID string
		explain  bool
	)

	cmd := &cobra.Command{
		Use:   "get [path]",
		Short: MsgConfigGetShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			h, err := opts.startHost(cmd.Context())
			if err != nil {
				return err
			}
			cfg := h.Config()
			if pluginID != "" {
				cfg = h.PluginConfig(pluginID)
			}

			var value any = cfg.Raw()
			if path != "" {
				if value, err = cfg.Require(path); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if explain {
				explainSources(out, cfg, strings.ToLower(path))
			}
			return writeJSON(out, value)
		},
	}

	cmd.Flags().StringVarP(&pluginID, "plugin", "p", "", MsgFlagPlugin)
	cmd.Flags().BoolVar(&explain, "explain", false, MsgFlagExplain)
	return cmd
}

// explainSources prints the layer behind every leaf under path as comments.
func explainSources(w io.Writer, cfg *config.Resolved, path string) {
	sources := cfg.Sources()
	keys := make([]string, 0, len(sources))
	for k := range sources {
		if path == "" || k == path || hasPathPrefix(k, path) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, MsgValueSource, k, sources[k])
		abs := k
		if root := cfg.Path(); root != "" {
			abs = config.JoinPath(root, k)
		}
		_, _ = fmt.Fprintf(w, MsgValueEnv, config.DefaultEnvCodec.EncodePath(abs))
	}
}

func hasPathPrefix(key, prefix string) bool {
	return strings.HasPrefix(key, prefix+config.PathDelimiter)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf(MsgErrEncodeValue, err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newConfigEnvCmd() *cobra.Command {
	var pluginID string

	cmd := &cobra.Command{
		Use:   "env <path>",
		Short: MsgConfigEnvShort,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := args[0]
			if pluginID != "" {
				path = config.JoinPath(config.PluginsKey, pluginID, path)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), config.DefaultEnvCodec.EncodePath(path))
		},
	}

	cmd.Flags().StringVarP(&pluginID, "plugin", "p", "", MsgFlagPlugin)
	return cmd
}
