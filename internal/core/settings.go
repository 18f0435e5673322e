package core

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	// DefaultServerURL is the organisation discovery endpoint.
	DefaultServerURL = "https://api.appeariq.com/api"
	// DefaultJSAPIURL points at the latest released JS API bundle.
	DefaultJSAPIURL = "https://repo.appeariq.com/nexus/service/local/artifact/maven/content?r=releases&g=com.appearnetworks.aiq&v=LATEST&a=html5-boilerplate&p=zip"
)

// Settings are read from the environment. Command line flags take precedence.
type Settings struct {
	ConfigPath  string        `env:"AIQ_CONFIG"`
	ServerURL   string        `env:"AIQ_SERVER_URL" default:"https://api.appeariq.com/api"`
	JSAPIURL    string        `env:"AIQ_JSAPI_URL" default:"https://repo.appeariq.com/nexus/service/local/artifact/maven/content?r=releases&g=com.appearnetworks.aiq&v=LATEST&a=html5-boilerplate&p=zip"`
	LogLevel    string        `env:"AIQ_LOG_LEVEL" default:"warn"`
	LogFormat   string        `env:"AIQ_LOG_FORMAT" default:"text"`
	HTTPTimeout time.Duration `env:"AIQ_HTTP_TIMEOUT" default:"30s"`
}

// LoadSettings loads an optional .env file from the working directory and then
// the AIQ_* environment variables.
func LoadSettings() (*Settings, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	var settings Settings
	if err := env.Load(&settings, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if settings.ConfigPath == "" {
		path, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		settings.ConfigPath = path
	}
	if settings.HTTPTimeout <= 0 {
		settings.HTTPTimeout = 30 * time.Second
	}
	return &settings, nil
}
