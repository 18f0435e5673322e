package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewLsCmd creates the ls command.
func NewLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List registered applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			apps, err := ctx.Services.AppsList(cmd.Context())
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return writeJSON(cmd, apps)
			}
			if len(apps) == 0 {
				ctx.Printer.Info("No applications registered.")
				return nil
			}

			lines := make([]string, 0, len(apps))
			for _, app := range apps {
				line := fmt.Sprintf("[%s] %s", app.ID, app.Name)
				if app.Solution.Name != "" {
					line += fmt.Sprintf(" (solution: %s)", app.Solution.Name)
				}
				lines = append(lines, line)
			}
			ctx.Printer.Info("Applications (%d):\n%s", len(apps), strings.Join(lines, "\n"))
			return nil
		},
	}

	return cmd
}
