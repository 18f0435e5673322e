package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/appear/aiq/internal/core"
	"github.com/appear/aiq/internal/rest"
)

// LoginParams are the credentials for Login. ServerURL overrides the
// discovery endpoint.
type LoginParams struct {
	ServerURL string
	OrgName   string
	Username  string
	Password  string
}

type discoveryResponse struct {
	Links *struct {
		Token string `json:"token"`
	} `json:"links"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        struct {
		ID       core.ID `json:"_id"`
		Username string  `json:"username"`
	} `json:"user"`
}

// Login resolves the organisation's token endpoint, exchanges the credentials
// for an access token and persists the session.
func (s *Services) Login(ctx context.Context, params LoginParams) (*core.Config, error) {
	if strings.TrimSpace(params.OrgName) == "" {
		return nil, validationError(MsgOrgRequired)
	}
	if strings.TrimSpace(params.Username) == "" {
		return nil, validationError(MsgUsernameRequired)
	}
	if params.Password == "" {
		return nil, validationError(MsgPasswordRequired)
	}

	rawURL := params.ServerURL
	if strings.TrimSpace(rawURL) == "" {
		rawURL = s.serverURL
	}
	serverURL, err := rest.NormalizeBaseURL(rawURL)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: MsgBadServerURL, Err: err}
	}

	baseURL, err := s.discover(ctx, serverURL, params.OrgName)
	if err != nil {
		return nil, err
	}

	var token tokenResponse
	err = s.rest.Post(ctx, baseURL+"/token", rest.Options{
		Data: map[string]string{
			"username":   params.Username,
			"password":   params.Password,
			"grant_type": "password",
			"scope":      "admin",
		},
	}, &token)
	if err != nil {
		return nil, remoteError(err, map[string]string{codeNotFound: MsgOrgNotFound})
	}
	if token.AccessToken == "" {
		return nil, &Error{Kind: KindRemote, Message: MsgNoAccessToken}
	}

	config := core.Config{
		ServerURL:   serverURL,
		OrgName:     params.OrgName,
		BaseURL:     baseURL,
		AccessToken: token.AccessToken,
		UserID:      token.User.ID,
		Username:    token.User.Username,
		ExpiresIn:   token.ExpiresIn,
	}
	if err := core.SaveConfig(s.configPath, config); err != nil {
		return nil, ioError("Could not save the session config.", err)
	}
	s.config = &config
	s.logger.Debug("session stored", "path", s.configPath, "org", params.OrgName)
	return &config, nil
}

func (s *Services) discover(ctx context.Context, serverURL, orgName string) (string, error) {
	var discovery discoveryResponse
	err := s.rest.Get(ctx, serverURL, rest.Options{
		Query: url.Values{"orgName": []string{orgName}},
	}, &discovery)
	if err != nil {
		if errors.Is(err, rest.ErrAborted) {
			return "", remoteError(err, nil)
		}
		if rest.CodeOf(err) == codeNotFound {
			return "", &Error{Kind: KindRemote, Code: codeNotFound, Message: MsgOrgNotFound, Err: err}
		}
		return "", &Error{Kind: KindRemote, Code: rest.CodeOf(err), Message: MsgCannotConnect, Err: err}
	}
	if discovery.Links == nil || discovery.Links.Token == "" {
		return "", &Error{Kind: KindRemote, Message: MsgCannotConnect}
	}

	link := discovery.Links.Token
	idx := strings.LastIndex(link, "/")
	if idx < 0 {
		return "", &Error{Kind: KindRemote, Message: MsgCannotConnect}
	}
	return link[:idx], nil
}

// Logout revokes the access token. The local session is cleared whatever the
// server answers.
func (s *Services) Logout(ctx context.Context) error {
	if err := s.requireAuth(); err != nil {
		return err
	}

	remoteErr := s.rest.PostJSON(ctx, s.getURL("logout"), struct{}{}, s.authOptions(), nil)
	clearErr := core.ClearConfig(s.configPath)
	s.config = &core.Config{}

	if remoteErr != nil {
		if clearErr != nil {
			s.logger.Warn("failed to clear session config", "path", s.configPath, "error", clearErr)
		}
		return remoteError(remoteErr, nil)
	}
	if clearErr != nil {
		return ioError("Could not clear the session config.", clearErr)
	}
	return nil
}

// Info returns the current session, or nil when not logged in.
func (s *Services) Info() *core.Config {
	if !s.config.Authorized() {
		return nil
	}
	config := *s.config
	return &config
}
