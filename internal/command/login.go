package command

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/appear/aiq/internal/services"
	"github.com/appear/aiq/internal/ui"
)

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to an AIQ organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			params := services.LoginParams{}
			params.OrgName, _ = cmd.Flags().GetString("org")
			params.Username, _ = cmd.Flags().GetString("username")
			params.Password, _ = cmd.Flags().GetString("password")
			params.ServerURL, _ = cmd.Flags().GetString("server")
			if params.ServerURL == "" {
				params.ServerURL = ctx.Settings.ServerURL
			}

			if ui.IsTerminal(cmd.InOrStdin()) {
				if err := promptCredentials(cmd, ctx.Prompter, &params); err != nil {
					return writeCommandError(cmd, err)
				}
			}

			config, err := ctx.Services.Login(cmd.Context(), params)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return writeJSON(cmd, maskedSession(config))
			}
			ctx.Printer.Info("Logged in to organization [%s] as [%s].", config.OrgName, config.Username)
			return nil
		},
	}

	cmd.Flags().StringP("org", "o", "", "organization name")
	cmd.Flags().StringP("username", "u", "", "username")
	cmd.Flags().StringP("password", "p", "", "password (prompted when omitted on a terminal)")
	cmd.Flags().String("server", "", "organization discovery URL")

	return withHelp(cmd, helpSections{
		Long: "Authenticate against the AIQ platform and store the session for later commands.",
		Note: "Missing values are asked for interactively when running in a terminal.",
	})
}

func promptCredentials(cmd *cobra.Command, prompter ui.Prompter, params *services.LoginParams) error {
	var err error
	if strings.TrimSpace(params.OrgName) == "" {
		if params.OrgName, err = prompter.Prompt(cmd.Context(), "Organization:", ""); err != nil {
			return err
		}
	}
	if strings.TrimSpace(params.Username) == "" {
		if params.Username, err = prompter.Prompt(cmd.Context(), "Username:", ""); err != nil {
			return err
		}
	}
	if params.Password == "" {
		if params.Password, err = prompter.Password(cmd.Context(), "Password:"); err != nil {
			return err
		}
	}
	return nil
}
