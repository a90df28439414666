// Package config handles loading and validation of agent configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"ucp-agent/internal/catalog"
	"ucp-agent/internal/model"
	"ucp-agent/internal/transport"
)

// Config holds all agent configuration.
// Environment determines whether merchant settings load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings (tool server only)
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	AgentID    string

	// Merchant connection settings (loaded from secrets in production)
	Merchant MerchantConfig

	// Product catalog the shopping tools search over.
	Catalog []catalog.Product

	// Capabilities this agent declares during discovery.
	AgentCapabilities []model.AgentCapability
}

// MerchantConfig describes how to reach one merchant.
// In production this is loaded from Secret Manager as JSON.
type MerchantConfig struct {
	MerchantURL    string `json:"merchant_url"`
	AgentName      string `json:"agent_name,omitempty"`
	Currency       string `json:"currency,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	BrowserTLS     bool   `json:"browser_tls,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		AgentID:     os.Getenv("AGENT_ID"),
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.AgentID == "" {
			return nil, fmt.Errorf("AGENT_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading merchant config: %w", err)
	}

	if catalogPath := os.Getenv("CATALOG_FILE"); catalogPath != "" {
		if err := cfg.loadCatalog(catalogPath); err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string                  `json:"port"`
		Environment string                  `json:"environment"`
		LogLevel    string                  `json:"log_level"`
		Merchant    MerchantConfig          `json:"merchant"`
		Catalog     []catalog.Product       `json:"catalog"`
		Caps        []model.AgentCapability `json:"agent_capabilities"`
	}
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:              withDefault(fileConfig.Port, "8080"),
		Environment:       withDefault(fileConfig.Environment, "development"),
		LogLevel:          withDefault(fileConfig.LogLevel, "info"),
		Merchant:          fileConfig.Merchant,
		Catalog:           fileConfig.Catalog,
		AgentCapabilities: fileConfig.Caps,
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromSecretManager fetches merchant config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{agent_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.AgentID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Merchant); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadFromEnv reads merchant config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Merchant = MerchantConfig{
		MerchantURL:  os.Getenv("MERCHANT_URL"),
		AgentName:    os.Getenv("AGENT_NAME"),
		Currency:     os.Getenv("CURRENCY"),
		PrimaryColor: os.Getenv("PRIMARY_COLOR"),
	}
	if timeout := os.Getenv("MERCHANT_TIMEOUT_SECONDS"); timeout != "" {
		seconds, err := strconv.Atoi(timeout)
		if err != nil {
			return fmt.Errorf("parsing MERCHANT_TIMEOUT_SECONDS: %w", err)
		}
		c.Merchant.TimeoutSeconds = seconds
	}
	if browserTLS := os.Getenv("BROWSER_TLS"); browserTLS != "" {
		enabled, err := strconv.ParseBool(browserTLS)
		if err != nil {
			return fmt.Errorf("parsing BROWSER_TLS: %w", err)
		}
		c.Merchant.BrowserTLS = enabled
	}
	return nil
}

// loadCatalog reads the product catalog from a JSON file.
func (c *Config) loadCatalog(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading catalog file: %w", err)
	}
	if err := json.Unmarshal(data, &c.Catalog); err != nil {
		return fmt.Errorf("parsing catalog file: %w", err)
	}
	return nil
}

// applyDefaults fills in settings safe to assume.
func (c *Config) applyDefaults() {
	if c.Merchant.AgentName == "" {
		c.Merchant.AgentName = transport.DefaultAgentName
	}
	if len(c.AgentCapabilities) == 0 {
		c.AgentCapabilities = DefaultAgentCapabilities()
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Merchant.MerchantURL == "" {
		return fmt.Errorf("merchant_url is required")
	}
	u, err := url.Parse(c.Merchant.MerchantURL)
	if err != nil {
		return fmt.Errorf("invalid merchant_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("merchant_url must be an http(s) URL, got %q", c.Merchant.MerchantURL)
	}
	if c.Merchant.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	return nil
}

// TransportConfig builds the HTTP client configuration for this merchant.
func (c *Config) TransportConfig() transport.Config {
	timeout := time.Duration(c.Merchant.TimeoutSeconds) * time.Second
	return transport.Config{
		MerchantURL: c.Merchant.MerchantURL,
		AgentName:   c.Merchant.AgentName,
		Timeout:     timeout,
		BrowserTLS:  c.Merchant.BrowserTLS,
	}
}

// DefaultAgentCapabilities returns the UCP capabilities this agent
// implements.
func DefaultAgentCapabilities() []model.AgentCapability {
	return []model.AgentCapability{
		{Name: "dev.ucp.shopping.checkout", Version: transport.ProtocolVersion},
		{Name: "dev.ucp.shopping.fulfillment", Version: transport.ProtocolVersion},
	}
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
