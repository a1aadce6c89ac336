package rag2f

import (
	"github.com/rag2f/rag2f/pkg/config"
	"github.com/spf13/cobra"
)

func newDispatchCmd(opts *rootOptions) *cobra.Command {
	var caller string

	cmd := &cobra.Command{
		Use:   "dispatch <hook> [payload]",
		Short: MsgDispatchShort,
		Long: MsgDispatchShort + ".\n\nThe payload is parsed like an environment value: true/false, integers,\n" +
			"floats and JSON documents are typed, anything else is passed as a string.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload any
			if len(args) == 2 {
				payload = config.ParseValue(args[1])
			}

			h, err := opts.startHost(cmd.Context())
			if err != nil {
				return err
			}
			result, err := h.Dispatch(cmd.Context(), args[0], payload, caller)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&caller, "caller", "cli", MsgFlagCaller)
	return cmd
}
