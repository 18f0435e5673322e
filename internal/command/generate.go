package command

import (
	"github.com/spf13/cobra"

	"github.com/appear/aiq/internal/services"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <name>",
		Short: "Create a new application from the skeleton",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			params := services.GenerateParams{}
			params.Path, _ = cmd.Flags().GetString("path")
			params.APILevel, _ = cmd.Flags().GetString("api-level")

			result, err := ctx.Services.GenerateApp(cmd.Context(), args[0], params)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return writeJSON(cmd, result)
			}
			ctx.Printer.Info("Application [%s] was generated in [%s].\nMinimum JS API level is %d.", result.Name, result.Path, result.APILevel)
			return nil
		},
	}

	cmd.Flags().String("path", "", "workspace folder (default: current directory)")
	cmd.Flags().String("api-level", "", "minimum JS API level (default: level of the downloaded JS API)")

	return withHelp(cmd, helpSections{
		Long: "Generate an HTML5 application skeleton together with the latest AIQ JS API.",
	})
}
