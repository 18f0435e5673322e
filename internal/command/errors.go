package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/appear/aiq/internal/services"
	"github.com/appear/aiq/internal/ui"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	printer := newPrinter(cmd, cmd.ErrOrStderr())
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", printer.Styled(ui.LevelError, "Error:"), err.Error())

	if isSessionError(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), printer.Help("Hint: start a new session with: aiq login"))
	}

	return err
}

// isSessionError reports whether err asks the user to log in again.
func isSessionError(err error) bool {
	return services.IsKind(err, services.KindAuth)
}
