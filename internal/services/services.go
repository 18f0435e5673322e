// Package services implements the aiq operations on top of the config and
// manifest stores, the REST client and the packager.
package services

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/appear/aiq/internal/core"
	"github.com/appear/aiq/internal/packager"
	"github.com/appear/aiq/internal/rest"
	"github.com/appear/aiq/internal/ui"
)

var apiPrefixes = map[string]string{
	"logout":    "/admin/logout",
	"solutions": "/admin/solutions",
	"app":       "/admin/applications",
}

// Options wires a Services instance. Zero values fall back to defaults.
type Options struct {
	ConfigPath     string
	Cwd            string
	ServerURL      string
	JSAPIURL       string
	Rest           *rest.Client
	HTTPClient     *http.Client
	Printer        *ui.Printer
	Prompter       ui.Prompter
	Clock          clockwork.Clock
	Logger         *slog.Logger
	MaxArchiveSize int64
	TempDir        string
}

// Services runs one aiq operation against the session stored at ConfigPath.
type Services struct {
	configPath     string
	cwd            string
	serverURL      string
	jsAPIURL       string
	rest           *rest.Client
	httpClient     *http.Client
	printer        *ui.Printer
	prompter       ui.Prompter
	clock          clockwork.Clock
	logger         *slog.Logger
	maxArchiveSize int64
	tempDir        string

	config *core.Config
}

// New loads the session config and returns a Services.
func New(opts Options) (*Services, error) {
	s := &Services{
		configPath:     opts.ConfigPath,
		cwd:            opts.Cwd,
		serverURL:      opts.ServerURL,
		jsAPIURL:       opts.JSAPIURL,
		rest:           opts.Rest,
		httpClient:     opts.HTTPClient,
		printer:        opts.Printer,
		prompter:       opts.Prompter,
		clock:          opts.Clock,
		logger:         opts.Logger,
		maxArchiveSize: opts.MaxArchiveSize,
		tempDir:        opts.TempDir,
	}

	if s.configPath == "" {
		path, err := core.DefaultConfigPath()
		if err != nil {
			return nil, ioError("Could not resolve the config path.", err)
		}
		s.configPath = path
	}
	if s.cwd == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, ioError("Could not resolve the working directory.", err)
		}
		s.cwd = cwd
	}
	if s.serverURL == "" {
		s.serverURL = core.DefaultServerURL
	}
	if s.jsAPIURL == "" {
		s.jsAPIURL = core.DefaultJSAPIURL
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.rest == nil {
		s.rest = rest.NewClient(rest.WithLogger(s.logger))
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if s.printer == nil {
		s.printer = ui.NewPrinter(os.Stdout)
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.maxArchiveSize == 0 {
		s.maxArchiveSize = packager.DefaultMaxSize
	}
	if s.tempDir == "" {
		s.tempDir = os.TempDir()
	}

	config, err := core.LoadConfig(s.configPath)
	if err != nil {
		return nil, ioError("Could not read the session config.", err)
	}
	s.config = config
	return s, nil
}

// ConfigPath returns the session file location.
func (s *Services) ConfigPath() string {
	return s.configPath
}

func (s *Services) getURL(kind string, parts ...string) string {
	endpoint := strings.TrimRight(s.config.BaseURL, "/") + apiPrefixes[kind]
	if len(parts) > 0 {
		endpoint += "/" + strings.Join(parts, "/")
	}
	return endpoint
}

func (s *Services) authOptions() rest.Options {
	return rest.Options{AccessToken: s.config.AccessToken}
}

func (s *Services) requireAuth() error {
	if !s.config.Authorized() {
		return authError(MsgNotAuthorized)
	}
	return nil
}
