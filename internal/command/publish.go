package command

import (
	"github.com/spf13/cobra"

	"github.com/appear/aiq/internal/services"
)

func addSendFlags(cmd *cobra.Command) {
	cmd.Flags().String("path", "", "application folder (default: current directory)")
	cmd.Flags().String("name", "", "application name (default: name from manifest.json)")
	cmd.Flags().String("api-level", "", "minimum JS API level")
	cmd.Flags().String("mock", "", `run the application in mock mode ("true" or "false")`)
	cmd.Flags().Bool("global", false, "publish for every user instead of the current one")
}

func readSendParams(cmd *cobra.Command) services.SendParams {
	params := services.SendParams{}
	params.Path, _ = cmd.Flags().GetString("path")
	params.Name, _ = cmd.Flags().GetString("name")
	params.APILevel, _ = cmd.Flags().GetString("api-level")
	params.Mock, _ = cmd.Flags().GetString("mock")
	params.Global, _ = cmd.Flags().GetBool("global")
	return params
}

const sendNote = "Values given on the command line are saved to manifest.json. " +
	"The file is restored when the upload fails."

// NewPublishCmd creates the publish command.
func NewPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "publish",
		Aliases: []string{"register"},
		Short:   "Register the application on the platform",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			result, err := ctx.Services.RegisterApp(cmd.Context(), readSendParams(cmd))
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return writeJSON(cmd, result)
			}
			ctx.Printer.Info("Application [%s] was published with ID [%s].", result.Name, result.ID)
			return nil
		},
	}

	addSendFlags(cmd)
	return withHelp(cmd, helpSections{
		Long: "Package the application folder and register it as a new application.",
		Note: sendNote,
	})
}
