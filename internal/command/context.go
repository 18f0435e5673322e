package command

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/appear/aiq/internal/core"
	"github.com/appear/aiq/internal/logging"
	"github.com/appear/aiq/internal/rest"
	"github.com/appear/aiq/internal/services"
	"github.com/appear/aiq/internal/ui"
)

// CommandContext provides shared command resources.
type CommandContext struct {
	Services *services.Services
	Printer  *ui.Printer
	Prompter ui.Prompter
	Settings *core.Settings
	JSONMode bool
}

// GetContext resolves settings, the session and the output formatter for a
// command.
func GetContext(cmd *cobra.Command) (*CommandContext, error) {
	jsonMode, _ := cmd.Flags().GetBool("json")

	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	printer := newPrinter(cmd, cmd.OutOrStdout())
	prompter := ui.NewLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout(), printer)
	logger := slog.Default()

	svc, err := services.New(services.Options{
		ConfigPath: settings.ConfigPath,
		ServerURL:  settings.ServerURL,
		JSAPIURL:   settings.JSAPIURL,
		Rest: rest.NewClient(
			rest.WithTimeout(settings.HTTPTimeout),
			rest.WithLogger(logger),
		),
		HTTPClient: &http.Client{Timeout: settings.HTTPTimeout},
		Printer:    printer,
		Prompter:   prompter,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Services: svc,
		Printer:  printer,
		Prompter: prompter,
		Settings: settings,
		JSONMode: jsonMode,
	}, nil
}

func loadSettings(cmd *cobra.Command) (*core.Settings, error) {
	settings, err := core.LoadSettings()
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		settings.ConfigPath = path
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		settings.LogLevel = level
	}
	return settings, nil
}

func newPrinter(cmd *cobra.Command, w io.Writer) *ui.Printer {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		return ui.NewPrinter(w, ui.WithColor(false))
	}
	return ui.NewPrinter(w)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	logging.Init(cmd.ErrOrStderr(), settings.LogLevel, settings.LogFormat)
	return nil
}

func writeJSON(cmd *cobra.Command, value any) error {
	return json.NewEncoder(cmd.OutOrStdout()).Encode(value)
}
