package rag2f

import (
	"fmt"
	"io"

	"github.com/rag2f/rag2f/pkg/host"
	"github.com/rag2f/rag2f/pkg/plugins"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newPluginsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: MsgPluginsShort,
	}
	cmd.AddCommand(newPluginsListCmd(opts))
	cmd.AddCommand(newPluginsInitCmd(opts))
	return cmd
}

func newPluginsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: MsgPluginsListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := opts.startHost(cmd.Context())
			if err != nil {
				return err
			}
			printPlugins(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func printPlugins(w io.Writer, h *host.Host) {
	d := h.Discovery()
	active := h.Plugins()
	inactive := h.Inactive()
	if len(active)+len(inactive)+len(d.Shadowed)+len(d.Skipped) == 0 {
		_, _ = fmt.Fprintln(w, MsgNoPlugins)
		return
	}

	if len(active) > 0 {
		_, _ = fmt.Fprintln(w, heading(MsgActivePlugins))
		for _, p := range active {
			_, _ = fmt.Fprintf(w, "  %s %s %s\n", idStyle.Render(p.ID), p.Version,
				mutedStyle.Render(fmt.Sprintf("(%s: %s)", p.Source, describeLocation(p))))
		}
	}
	if len(inactive) > 0 {
		_, _ = fmt.Fprintln(w, heading(MsgInactivePlugins))
		for _, p := range inactive {
			_, _ = fmt.Fprintf(w, "  %s %s\n", idStyle.Render(p.Descriptor.ID), warnStyle.Render(p.Reason))
		}
	}
	if len(d.Shadowed) > 0 {
		_, _ = fmt.Fprintln(w, heading(MsgShadowedPlugins))
		for _, s := range d.Shadowed {
			_, _ = fmt.Fprintf(w, "  %s %s %s\n", idStyle.Render(s.Descriptor.ID),
				mutedStyle.Render(describeLocation(s.Descriptor)), warnStyle.Render(s.Reason))
		}
	}
	if len(d.Skipped) > 0 {
		_, _ = fmt.Fprintln(w, heading(MsgSkippedPlugins))
		for _, s := range d.Skipped {
			name := s.ID
			if name == "" {
				name = s.Path
			}
			_, _ = fmt.Fprintf(w, "  %s %s\n", idStyle.Render(name), warnStyle.Render(s.Reason))
		}
	}
}

func describeLocation(d plugins.Descriptor) string {
	if d.ManifestPath != "" {
		return d.ManifestPath
	}
	return d.ImportTarget
}

func newPluginsInitCmd(opts *rootOptions) *cobra.Command {
	var scaffold plugins.ScaffoldOptions

	cmd := &cobra.Command{
		Use:   "init <id>",
		Short: MsgPluginsInitShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scaffold.ID = args[0]
			res, err := plugins.Scaffold(afero.NewOsFs(), opts.pluginDir, scaffold)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.DryRun {
				_, _ = fmt.Fprintf(out, MsgDryRunNotice, res.ManifestPath)
				_, _ = fmt.Fprintln(out, string(res.Manifest))
				return nil
			}
			_, _ = fmt.Fprintf(out, MsgPluginCreated, res.ID, res.ManifestPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&scaffold.Name, "name", "", MsgFlagName)
	cmd.Flags().StringVar(&scaffold.Description, "description", "", MsgFlagDescription)
	cmd.Flags().BoolVarP(&scaffold.DryRun, "dry-run", "n", false, MsgFlagDryRun)
	return cmd
}
