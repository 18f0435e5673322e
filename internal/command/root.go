package command

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

const AppName = "aiq"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:               AppName,
		Short:             "AIQ - command-line tool for HTML5 applications",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	withHelp(cmd, helpSections{
		Long: "Generate, preview and publish HTML5 applications on the AIQ platform.",
		Note: "The session is kept in ~/.aiq/config.json unless --config or AIQ_CONFIG say otherwise.",
	})

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetHelpTemplate(helpTemplate)
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("config", "", "path to the session config file")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	cmd.AddCommand(
		NewLoginCmd(),
		NewLogoutCmd(),
		NewInfoCmd(),
		NewGenerateCmd(),
		NewPublishCmd(),
		NewUpdateCmd(),
		NewRmCmd(),
		NewLsCmd(),
		NewLogsCmd(),
		NewServeCmd(),
	)

	return cmd
}

// Execute runs the root command. Cancelling ctx aborts the running operation.
func Execute(ctx context.Context) error {
	return NewRootCmd(Version).ExecuteContext(ctx)
}
