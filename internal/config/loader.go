package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "gateway.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "GATEWAY_PORT")
	setString(&cfg.Server.CORSOrigin, "GATEWAY_CORS_ORIGIN")
	setString(&cfg.Jobber.GraphQLURL, "JOBBER_GRAPHQL_URL")
	setString(&cfg.Jobber.TokenURL, "JOBBER_TOKEN_URL")
	setString(&cfg.Jobber.APIVersion, "JOBBER_GRAPHQL_VERSION")
	setString(&cfg.Jobber.ClientID, "JOBBER_CLIENT_ID")
	setString(&cfg.Jobber.ClientSecret, "JOBBER_CLIENT_SECRET")
	setString(&cfg.Jobber.AccessToken, "JOBBER_ACCESS_TOKEN")
	setString(&cfg.Jobber.RefreshToken, "JOBBER_REFRESH_TOKEN")
	setDuration(&cfg.Jobber.Timeout, "JOBBER_TIMEOUT")
	setString(&cfg.Webhook.Token, "GATEWAY_WEBHOOK_TOKEN")
	setString(&cfg.Webhook.Header, "GATEWAY_WEBHOOK_HEADER")
	setString(&cfg.Logging.Level, "GATEWAY_LOG_LEVEL")
	setString(&cfg.Logging.Service, "GATEWAY_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "GATEWAY_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "GATEWAY_BREAKER_TIMEOUT")
	setBool(&cfg.Telemetry.Enabled, "GATEWAY_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "GATEWAY_OTEL_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Jobber.GraphQLURL == "" {
		return errors.New("jobber.graphql_url is required")
	}
	if cfg.Jobber.TokenURL == "" {
		return errors.New("jobber.token_url is required")
	}
	if cfg.Jobber.ClientID == "" {
		return errors.New("jobber.client_id is required")
	}
	if cfg.Jobber.ClientSecret == "" {
		return errors.New("jobber.client_secret is required")
	}
	if cfg.Jobber.Timeout <= 0 {
		return errors.New("jobber.timeout must be > 0")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
