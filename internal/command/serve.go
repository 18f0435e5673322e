package command

import (
	"github.com/spf13/cobra"

	"github.com/appear/aiq/internal/services"
)

const defaultServePort = 8080

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview the application in a local web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			params := services.ServeParams{}
			params.Port, _ = cmd.Flags().GetInt("port")
			params.Host, _ = cmd.Flags().GetString("host")
			params.Root, _ = cmd.Flags().GetString("path")
			params.Watch, _ = cmd.Flags().GetBool("watch")

			if err := ctx.Services.Serve(cmd.Context(), params); err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().IntP("port", "p", defaultServePort, "port to listen on")
	cmd.Flags().String("host", "", "interface to bind (default: all interfaces)")
	cmd.Flags().String("path", "", "application folder (default: current directory)")
	cmd.Flags().BoolP("watch", "w", false, "report file changes while serving")

	return withHelp(cmd, helpSections{
		Note: "Press Ctrl+C to stop the server.",
	})
}
