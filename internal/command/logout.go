package command

import (
	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if err := ctx.Services.Logout(cmd.Context()); err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return writeJSON(cmd, map[string]bool{"loggedOut": true})
			}
			ctx.Printer.Info("Logged out.")
			return nil
		},
	}

	return withHelp(cmd, helpSections{
		Note: "The local session is removed even when the platform rejects the request.",
	})
}
