package command

import (
	"github.com/spf13/cobra"
)

// NewUpdateCmd creates the update command.
func NewUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Upload a new version of a registered application",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			result, err := ctx.Services.UpdateApp(cmd.Context(), id, readSendParams(cmd))
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return writeJSON(cmd, result)
			}
			ctx.Printer.Info("Application [%s] with ID [%s] was updated.", result.Name, result.ID)
			return nil
		},
	}

	addSendFlags(cmd)
	return withHelp(cmd, helpSections{
		Long: "Package the application folder and replace the registered version. " +
			"Without an id the one recorded in manifest.json by publish is used.",
		Note: sendNote,
	})
}
