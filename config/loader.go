// Package config loads the client configuration surface: an optional YAML
// file overridden by GENAI_-prefixed environment variables, plus the
// environment-supplied service-catalog blob.
//
// Precedence: defaults, then YAML file, then environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// envPrefix is prepended to every environment override key.
const envPrefix = "GENAI_"

// catalogEnvVar carries the service-catalog blob in managed environments.
const catalogEnvVar = "VCAP_SERVICES"

// Settings is the full configuration surface of the client. Secret
// persistence and retrieval is out of scope; APIKey arrives here already
// resolved by the caller's secret backend or the environment.
type Settings struct {
	// Endpoint plus APIKey form the explicit credential source, which
	// takes priority over the service catalog.
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`

	// ConfigURL overrides the discovery config endpoint.
	ConfigURL string `yaml:"config_url"`

	// Model pins the model, skipping discovery entirely.
	Model string `yaml:"model"`

	// BindingName selects a service-catalog binding by exact name.
	BindingName string `yaml:"binding_name"`

	// AllowHTTP permits plain-transport endpoints. Local testing only.
	AllowHTTP bool `yaml:"allow_http"`

	// Timeout bounds each discovery round trip.
	Timeout time.Duration `yaml:"timeout"`

	// CatalogJSON is the raw service-catalog blob. Populated from the
	// environment, never from the YAML file.
	CatalogJSON string `yaml:"-"`
}

// Defaults returns settings with defaults applied.
func Defaults() *Settings {
	return &Settings{
		Timeout: 30 * time.Second,
	}
}

// Load reads settings from an optional YAML file and the environment.
// An empty path skips the file; a missing file at an explicit path is an
// error.
func Load(path string) (*Settings, error) {
	s := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	s.applyEnv()
	return s, nil
}

// applyEnv layers GENAI_-prefixed environment variables and the
// service-catalog blob over the current settings.
func (s *Settings) applyEnv() {
	setString(&s.Endpoint, "ENDPOINT")
	setString(&s.APIKey, "API_KEY")
	setString(&s.ConfigURL, "CONFIG_URL")
	setString(&s.Model, "MODEL")
	setString(&s.BindingName, "BINDING_NAME")

	if v, ok := os.LookupEnv(envPrefix + "ALLOW_HTTP"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.AllowHTTP = b
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			s.Timeout = d
		}
	}
	if v, ok := os.LookupEnv(catalogEnvVar); ok {
		s.CatalogJSON = v
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		*dst = v
	}
}
