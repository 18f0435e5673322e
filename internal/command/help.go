package command

import (
	"strings"

	"github.com/spf13/cobra"
)

const noteAnnotation = "aiq.note"

// helpSections are the extra blocks rendered around cobra's usage text.
type helpSections struct {
	Long string
	Note string
}

func init() {
	cobra.AddTemplateFunc("helpNote", func(cmd *cobra.Command) string {
		return cmd.Annotations[noteAnnotation]
	})
}

// withHelp attaches the long description and the trailing note to cmd.
func withHelp(cmd *cobra.Command, sections helpSections) *cobra.Command {
	if sections.Long != "" {
		cmd.Long = strings.TrimSpace(sections.Long)
	}
	if sections.Note != "" {
		if cmd.Annotations == nil {
			cmd.Annotations = map[string]string{}
		}
		cmd.Annotations[noteAnnotation] = strings.TrimSpace(sections.Note)
	}
	return cmd
}

// helpTemplate is set on the root and inherited by every subcommand.
const helpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}{{if or .Runnable .HasSubCommands}}{{.UsageString}}{{end}}{{with helpNote .}}
Note:
  {{.}}
{{end}}`
