package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration for the ops-console client.
type Config struct {
	API   APIConfig   `yaml:"api"`
	Auth  AuthConfig  `yaml:"auth"`
	Audit AuditConfig `yaml:"audit"`
}

// APIConfig selects the backend origins and request behaviour.
type APIConfig struct {
	TenantBaseURL   string        `yaml:"tenant_base_url"`
	PlatformBaseURL string        `yaml:"platform_base_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// AuthConfig controls credential persistence and refresh behaviour.
type AuthConfig struct {
	// LoginHost is the host pattern for login locations surfaced when a
	// session terminates (https://<subdomain>.<login_host>/login).
	LoginHost      string        `yaml:"login_host"`
	CredentialsDir string        `yaml:"credentials_dir"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`
}

// AuditConfig controls the local request audit trail.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// StateDir returns the directory holding local state, honoring
// OPSCONSOLE_STATE_DIR for tests and portable installs.
func StateDir() string {
	if dir := os.Getenv("OPSCONSOLE_STATE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultStateDirName
	}
	return filepath.Join(home, DefaultStateDirName)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(StateDir(), DefaultConfigFileName)
}

// Default returns a config populated with production defaults.
func Default() *Config {
	state := StateDir()
	return &Config{
		API: APIConfig{
			TenantBaseURL:   DefaultTenantBaseURL,
			PlatformBaseURL: DefaultPlatformBaseURL,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Auth: AuthConfig{
			LoginHost:      DefaultLoginHost,
			CredentialsDir: state,
			RefreshTimeout: DefaultRefreshTimeout,
		},
		Audit: AuditConfig{
			Enabled: true,
			DBPath:  filepath.Join(state, DefaultAuditDBFileName),
		},
	}
}

// Load reads configuration in precedence order: defaults, then the yaml file
// at path (if present), then environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// No config file is fine; defaults plus env cover first runs.
		default:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPSCONSOLE_API_URL"); v != "" {
		c.API.TenantBaseURL = v
	}
	if v := os.Getenv("OPSCONSOLE_PLATFORM_API_URL"); v != "" {
		c.API.PlatformBaseURL = v
	}
	if v := os.Getenv("OPSCONSOLE_LOGIN_HOST"); v != "" {
		c.Auth.LoginHost = v
	}
	if v := os.Getenv("OPSCONSOLE_CREDENTIALS_DIR"); v != "" {
		c.Auth.CredentialsDir = v
	}
	if v := os.Getenv("OPSCONSOLE_AUDIT_DB"); v != "" {
		c.Audit.DBPath = v
	}
	if v := os.Getenv("OPSCONSOLE_AUDIT_DISABLED"); v == "1" || v == "true" {
		c.Audit.Enabled = false
	}
}

// Validate checks the configuration for values that would break at runtime.
func (c *Config) Validate() error {
	if c.API.TenantBaseURL == "" {
		return fmt.Errorf("api.tenant_base_url must not be empty")
	}
	if c.API.PlatformBaseURL == "" {
		return fmt.Errorf("api.platform_base_url must not be empty")
	}
	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("api.request_timeout must be > 0, got %s", c.API.RequestTimeout)
	}
	if c.Auth.RefreshTimeout <= 0 {
		return fmt.Errorf("auth.refresh_timeout must be > 0, got %s", c.Auth.RefreshTimeout)
	}
	if c.Auth.LoginHost == "" {
		return fmt.Errorf("auth.login_host must not be empty")
	}
	return nil
}
