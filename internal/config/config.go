// Package config provides configuration loading and defaults for the
// optisigns-mcp server.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnvOverrides.
const (
	EnvAPIToken   = "OPTISIGNS_API_TOKEN"
	EnvEndpoint   = "OPTISIGNS_ENDPOINT"
	EnvTeamID     = "OPTISIGNS_TEAM_ID"
	EnvUploadURL  = "OPTISIGNS_UPLOAD_URL"
	EnvTimeout    = "OPTISIGNS_TIMEOUT"
	EnvAuthToken  = "OPTISIGNS_MCP_AUTH_TOKEN"
	EnvPort       = "OPTISIGNS_MCP_PORT"
	EnvConfigPath = "OPTISIGNS_MCP_CONFIG_PATH"
)

// ResourceFilter holds allowlist and denylist glob patterns.
type ResourceFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// SafetyConfig limits which devices the mutating device tools may touch.
type SafetyConfig struct {
	Devices ResourceFilter `yaml:"devices"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// ServerConfig holds network and authentication settings of the MCP
// endpoint.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// OptiSignsConfig holds connection details for the OptiSigns API.
type OptiSignsConfig struct {
	// Endpoint is the GraphQL URL. Empty means the library default.
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
	// TeamID is used by tools whose caller does not name a team.
	TeamID    string `yaml:"team_id"`
	UploadURL string `yaml:"upload_url"`
	// Timeout is the HTTP request timeout in seconds; 0 disables it.
	Timeout int `yaml:"timeout"`
}

// Config is the top-level configuration structure for the optisigns-mcp
// server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	OptiSigns OptiSignsConfig `yaml:"optisigns"`
	Safety    SafetyConfig    `yaml:"safety"`
	Audit     AuditConfig     `yaml:"audit"`
}

// LoadConfig reads a YAML configuration file from path. Keys missing from the
// file keep their DefaultConfig values. On error, nil is returned.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a new Config populated with default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		OptiSigns: OptiSignsConfig{
			Timeout: 30,
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "/config/audit.log",
		},
	}
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// named) into the process environment. Variables already set win. Missing
// files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnvOverrides updates cfg in place with values from environment
// variables. Empty variables are ignored. An unparsable OPTISIGNS_TIMEOUT or
// OPTISIGNS_MCP_PORT is reported and leaves the field unchanged.
func ApplyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvAuthToken); v != "" {
		cfg.Server.AuthToken = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		cfg.OptiSigns.Token = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.OptiSigns.Endpoint = v
	}
	if v := os.Getenv(EnvTeamID); v != "" {
		cfg.OptiSigns.TeamID = v
	}
	if v := os.Getenv(EnvUploadURL); v != "" {
		cfg.OptiSigns.UploadURL = v
	}

	var errs []error
	if v := os.Getenv(EnvTimeout); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvTimeout, err))
		} else {
			cfg.OptiSigns.Timeout = n
		}
	}
	if v := os.Getenv(EnvPort); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvPort, err))
		} else {
			cfg.Server.Port = n
		}
	}
	return errors.Join(errs...)
}

// Validate reports every problem that would stop the server from starting.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.OptiSigns.Token) == "" {
		errs = append(errs, fmt.Errorf("optisigns.token is required (or set %s)", EnvAPIToken))
	}
	if c.OptiSigns.Timeout < 0 {
		errs = append(errs, fmt.Errorf("optisigns.timeout must not be negative, got %d", c.OptiSigns.Timeout))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Audit.Enabled && c.Audit.LogPath == "" {
		errs = append(errs, fmt.Errorf("audit.log_path is required when audit is enabled"))
	}
	return errors.Join(errs...)
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
