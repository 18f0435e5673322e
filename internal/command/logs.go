package command

import (
	"github.com/spf13/cobra"

	"github.com/appear/aiq/internal/services"
)

// NewLogsCmd creates the logs command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs <ip>",
		Short: "Print the log of a device running the AIQ client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			params := services.LogsParams{IP: args[0]}
			params.Follow, _ = cmd.Flags().GetBool("follow")
			params.Range, _ = cmd.Flags().GetInt64("range")

			if err := ctx.Services.ShowLogs(cmd.Context(), params); err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("follow", "f", false, "keep polling for new log lines")
	cmd.Flags().Int64("range", 0, "byte offset to start from")

	return withHelp(cmd, helpSections{
		Note: "The device must be reachable on port 8000 of the given address.",
	})
}
