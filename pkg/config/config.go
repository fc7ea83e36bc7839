package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for fleetlens-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8086"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Document store (MongoDB) configuration
	Mongo MongoConfig `yaml:"mongo"`

	// Relational store (PostgreSQL) configuration
	Database DatabaseConfig `yaml:"database"`

	// Tool server configuration
	MCP MCPConfig `yaml:"mcp"`

	// Oracle (LLM endpoint) configuration
	LLM LLMConfig `yaml:"llm"`

	// Chat session configuration
	Chat ChatConfig `yaml:"chat"`
}

// MongoConfig holds document store connection configuration.
type MongoConfig struct {
	// URI is the full connection string. Secret because it carries credentials.
	URI      string `yaml:"-" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"fleet"`
	// ConnectTimeoutSeconds bounds the startup connectivity check.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds" env:"MONGO_CONNECT_TIMEOUT_SECONDS" env-default:"10"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"fleetlens"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"fleet"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`

	// Schema is the single namespace the relational tools are scoped to.
	// Tables outside it are not reachable through the tool catalog.
	Schema string `yaml:"schema" env:"PGSCHEMA" env-default:"common_data"`
}

// MCPConfig holds tool transport server configuration.
type MCPConfig struct {
	// AccessKey authenticates tool transport connections. Secret - env only.
	AccessKey string `yaml:"-" env:"MCP_ACCESS_KEY"`
	// ServerName is reported to clients during the MCP handshake.
	ServerName string `yaml:"server_name" env:"MCP_SERVER_NAME" env-default:"fleetlens-tools"`
}

// LLMConfig holds oracle endpoint configuration.
type LLMConfig struct {
	// Provider selects the oracle implementation: "openai" or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o"`
	APIKey   string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	// MaxToolIterations bounds oracle round-trips within one user turn.
	MaxToolIterations int `yaml:"max_tool_iterations" env:"LLM_MAX_TOOL_ITERATIONS" env-default:"15"`
}

// ChatConfig holds session history limits.
type ChatConfig struct {
	// HistoryCeiling triggers count-based trimming once exceeded.
	HistoryCeiling int `yaml:"history_ceiling" env:"CHAT_HISTORY_CEILING" env-default:"25"`
	// HistoryKeepRecent is how many trailing messages survive a trim.
	HistoryKeepRecent int `yaml:"history_keep_recent" env:"CHAT_HISTORY_KEEP_RECENT" env-default:"20"`
	// TokenBudget bounds the approximate token count sent to the oracle.
	TokenBudget int `yaml:"token_budget" env:"CHAT_TOKEN_BUDGET" env-default:"12000"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Environment variables override YAML values. Secrets (PGPASSWORD, MONGO_URI,
// MCP_ACCESS_KEY, LLM_API_KEY) must come from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	// Load config from YAML file with environment variable overrides
	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate rejects configurations the server cannot start with.
func (c *Config) validate() error {
	if c.LLM.MaxToolIterations < 1 {
		return fmt.Errorf("llm.max_tool_iterations must be at least 1, got %d", c.LLM.MaxToolIterations)
	}
	if c.Chat.HistoryKeepRecent < 2 {
		return fmt.Errorf("chat.history_keep_recent must be at least 2, got %d", c.Chat.HistoryKeepRecent)
	}
	if c.Chat.HistoryCeiling <= c.Chat.HistoryKeepRecent {
		return fmt.Errorf("chat.history_ceiling (%d) must exceed chat.history_keep_recent (%d)",
			c.Chat.HistoryCeiling, c.Chat.HistoryKeepRecent)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be openai or anthropic, got %q", c.LLM.Provider)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
// The host is rewritten when running inside Docker so that "localhost"
// reaches services on the host machine.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
