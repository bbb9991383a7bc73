// Package config provides hierarchical configuration loading for the gateway.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the webhook gateway.
type Config struct {
	Server    Server    `yaml:"server"`
	Jobber    Jobber    `yaml:"jobber"`
	Webhook   Webhook   `yaml:"webhook"`
	Logging   Logging   `yaml:"logging"`
	Breaker   Breaker   `yaml:"breaker"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Jobber holds Jobber API endpoints and OAuth2 credentials.
// The client id/secret and the initial token pair come from the execution
// environment; the gateway never persists tokens itself.
type Jobber struct {
	GraphQLURL   string        `yaml:"graphql_url"`
	TokenURL     string        `yaml:"token_url"`
	APIVersion   string        `yaml:"api_version"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	AccessToken  string        `yaml:"access_token"`
	RefreshToken string        `yaml:"refresh_token"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Webhook holds inbound webhook authentication configuration.
// An empty Token disables the check (local development).
type Webhook struct {
	Token  string `yaml:"token"`
	Header string `yaml:"header"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Breaker holds circuit breaker configuration for outbound CRM calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Telemetry holds OpenTelemetry export configuration.
type Telemetry struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Defaults returns a Config with sensible default values. Credentials have
// no defaults and must be supplied via YAML or environment.
func Defaults() Config {
	return Config{
		Server: Server{
			Port: "8080",
		},
		Jobber: Jobber{
			GraphQLURL: "https://api.getjobber.com/api/graphql",
			TokenURL:   "https://api.getjobber.com/api/oauth/token",
			APIVersion: "2024-09-12",
			Timeout:    10 * time.Second,
		},
		Webhook: Webhook{
			Header: "X-Webhook-Token",
		},
		Logging: Logging{
			Level:   "info",
			Service: "jobber-gateway",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Telemetry: Telemetry{
			Endpoint: "localhost:4317",
		},
	}
}
