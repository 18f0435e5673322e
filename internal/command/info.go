package command

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/appear/aiq/internal/core"
)

type sessionInfo struct {
	LoggedIn    bool    `json:"loggedIn"`
	ServerURL   string  `json:"serverUrl,omitempty"`
	OrgName     string  `json:"orgName,omitempty"`
	BaseURL     string  `json:"baseURL,omitempty"`
	Username    string  `json:"username,omitempty"`
	UserID      core.ID `json:"userId,omitzero"`
	AccessToken string  `json:"accessToken,omitempty"`
	ExpiresIn   int64   `json:"expiresIn,omitempty"`
}

func maskedSession(config *core.Config) sessionInfo {
	if config == nil {
		return sessionInfo{}
	}
	return sessionInfo{
		LoggedIn:    true,
		ServerURL:   config.ServerURL,
		OrgName:     config.OrgName,
		BaseURL:     config.BaseURL,
		Username:    config.Username,
		UserID:      config.UserID,
		AccessToken: maskToken(config.AccessToken),
		ExpiresIn:   config.ExpiresIn,
	}
}

func maskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}

// NewInfoCmd creates the info command.
func NewInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			info := maskedSession(ctx.Services.Info())
			if ctx.JSONMode {
				return writeJSON(cmd, info)
			}
			if !info.LoggedIn {
				ctx.Printer.Info("Not logged in. See 'aiq login -h'.")
				return nil
			}

			lines := []string{
				"Organization: " + info.OrgName,
				"Username:     " + info.Username,
				"User ID:      " + info.UserID.String(),
				"Server:       " + info.ServerURL,
				"Base URL:     " + info.BaseURL,
				"Token:        " + info.AccessToken,
			}
			ctx.Printer.Info("%s", strings.Join(lines, "\n"))
			return nil
		},
	}

	return cmd
}
