package rag2f

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newHooksCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: MsgHooksShort,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: MsgHooksListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := opts.startHost(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			pipelines := h.Hooks()
			ids := pipelines.IDs()
			if len(ids) == 0 {
				_, _ = fmt.Fprintln(out, MsgNoHooks)
				return nil
			}
			for _, id := range ids {
				var rows [][]string
				for i, e := range pipelines.Get(id) {
					rows = append(rows, []string{
						strconv.Itoa(i + 1), e.Owner, strconv.Itoa(e.Priority), e.HandlerName,
					})
				}
				table, err := renderTable([]string{"#", "Plugin", "Priority", "Handler"}, rows)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, heading(fmt.Sprintf(MsgHookHeading, id, pipelines.Len(id))))
				_, _ = fmt.Fprintln(out, table)
			}
			return nil
		},
	})
	return cmd
}
