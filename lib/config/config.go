// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/mxchat/lib/secret"
)

// EnvironmentVariable names the variable [Load] reads the config path from.
const EnvironmentVariable = "MXCHAT_CONFIG"

// Default timing for the sync loop. The interval is the pause between
// sync calls; a zero long-poll timeout asks the homeserver to answer
// immediately.
const (
	DefaultSyncInterval = time.Second
	DefaultSyncTimeout  = time.Duration(0)
)

// Config is the complete client configuration.
type Config struct {
	// Account identifies the homeserver and the credentials to log in with.
	Account AccountConfig `yaml:"account"`

	// Sync tunes the sync loop timing.
	Sync SyncConfig `yaml:"sync"`

	// Log configures the command logger.
	Log LogConfig `yaml:"log"`
}

// AccountConfig holds the login parameters. URL and Username are
// required, plus at least one of the four credential sources. Inline
// values take precedence over files; a token takes precedence over a
// password.
type AccountConfig struct {
	// URL is the homeserver base URL. Only https:// is accepted.
	URL string `yaml:"url"`

	// Username is the account's localpart or full user ID.
	Username string `yaml:"username"`

	// The _file variants name a file whose first line is the secret.
	// The file must not be readable by group or others.
	Password     string `yaml:"password,omitempty"`
	PasswordFile string `yaml:"password_file,omitempty"`
	Token        string `yaml:"token,omitempty"`
	TokenFile    string `yaml:"token_file,omitempty"`

	// DeviceName is sent as the initial device display name on
	// password login.
	DeviceName string `yaml:"device_name,omitempty"`
}

// SyncConfig tunes the sync loop.
type SyncConfig struct {
	// Interval is the pause after each sync call, successful or not.
	Interval time.Duration `yaml:"interval"`

	// Timeout is the long-poll hold passed to the homeserver.
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the configuration defaults applied before the file
// is decoded. The account section has no defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			DeviceName: "mxchat",
		},
		Sync: SyncConfig{
			Interval: DefaultSyncInterval,
			Timeout:  DefaultSyncTimeout,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by MXCHAT_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path and validates it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration bytes over [Default], expands variables,
// and validates the result. extension selects the format: ".json" and
// ".jsonc" are treated as JSON with comments, anything else as YAML.
func Parse(data []byte, extension string) (*Config, error) {
	cfg := Default()

	switch strings.ToLower(extension) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML, so one decoder serves both once
		// the comments are gone.
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Account.PasswordFile = expandVars(c.Account.PasswordFile, vars)
	c.Account.TokenFile = expandVars(c.Account.TokenFile, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var httpsURLPattern = regexp.MustCompile(`^https://`)

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Account.URL == "" {
		errs = append(errs, fmt.Errorf("account.url is required"))
	} else if !httpsURLPattern.MatchString(c.Account.URL) {
		errs = append(errs, fmt.Errorf("account.url must start with https://, got %q", c.Account.URL))
	}

	if c.Account.Username == "" {
		errs = append(errs, fmt.Errorf("account.username is required"))
	}

	if !c.Account.HasCredentials() {
		errs = append(errs, fmt.Errorf("one of account.token, account.token_file, account.password, account.password_file is required"))
	}

	if c.Sync.Interval <= 0 {
		errs = append(errs, fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval))
	}
	if c.Sync.Timeout < 0 {
		errs = append(errs, fmt.Errorf("sync.timeout must not be negative, got %s", c.Sync.Timeout))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// HasCredentials reports whether any credential source is configured.
func (a AccountConfig) HasCredentials() bool {
	return a.Token != "" || a.TokenFile != "" || a.Password != "" || a.PasswordFile != ""
}

// Credentials holds the configured secrets. At least one of Token and
// Password is non-nil. With both, the token is used first and the
// password is the fallback once the homeserver rejects the token.
type Credentials struct {
	Token    *secret.Buffer
	Password *secret.Buffer
}

// Close releases the protected memory.
func (c Credentials) Close() {
	if c.Token != nil {
		c.Token.Close()
	}
	if c.Password != nil {
		c.Password.Close()
	}
}

// LoadCredentials moves the configured token and password into
// protected memory. An inline value wins over its _file variant.
func (a AccountConfig) LoadCredentials() (Credentials, error) {
	var credentials Credentials
	var err error

	credentials.Token, err = loadSecret("token", a.Token, a.TokenFile)
	if err != nil {
		return Credentials{}, err
	}
	credentials.Password, err = loadSecret("password", a.Password, a.PasswordFile)
	if err != nil {
		credentials.Close()
		return Credentials{}, err
	}

	if credentials.Token == nil && credentials.Password == nil {
		return Credentials{}, fmt.Errorf("config: no credentials configured")
	}
	return credentials, nil
}

// loadSecret returns nil when neither value nor path is set.
func loadSecret(field, value, path string) (*secret.Buffer, error) {
	switch {
	case value != "":
		buffer, err := secret.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("config: account.%s: %w", field, err)
		}
		return buffer, nil
	case path != "":
		buffer, err := secret.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: account.%s_file: %w", field, err)
		}
		return buffer, nil
	}
	return nil, nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", l.Level)
}
