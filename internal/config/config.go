// Package config loads ~/.portfolio/config.yaml and applies .env and
// PORTFOLIO_* overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"portfolio-cli/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWebAddr     = "127.0.0.1:3335"
	DefaultMockAPIAddr = "127.0.0.1:3336"
	DefaultRedisAddr   = "127.0.0.1:6379"
)

type Config struct {
	Mode    string        `yaml:"mode"`
	Local   LocalConfig   `yaml:"local"`
	Remote  RemoteConfig  `yaml:"remote"`
	Web     WebConfig     `yaml:"web"`
	MockAPI MockAPIConfig `yaml:"mock_api"`
	Log     LogConfig     `yaml:"log"`
}

type LocalConfig struct {
	// Driver is sqlite, redis or memory.
	Driver    string `yaml:"driver"`
	Path      string `yaml:"path,omitempty"`
	Key       string `yaml:"key,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty"`
}

type RemoteConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

type MockAPIConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json|console
}

// Dir is the config/data directory. PORTFOLIO_CONFIG_DIR keeps tests away
// from ~/.portfolio.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("PORTFOLIO_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".portfolio"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func Default(dir string) *Config {
	return &Config{
		Mode: string(store.ModeLocal),
		Local: LocalConfig{
			Driver:    store.DriverSQLite,
			Path:      filepath.Join(dir, "portfolio.sqlite"),
			Key:       store.DefaultProjectsKey,
			RedisAddr: DefaultRedisAddr,
		},
		Remote: RemoteConfig{
			BaseURL: store.DefaultRemoteURL,
			Timeout: store.DefaultRemoteTimeout.String(),
		},
		Web:     WebConfig{Addr: DefaultWebAddr},
		MockAPI: MockAPIConfig{Addr: DefaultMockAPIAddr},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are skipped; variables already set are not overwritten.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the YAML file at path over the defaults, then applies env
// overrides. A missing file is not an error. An empty path means Path().
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile is Load without env overrides or validation; use it to edit and
// Save the file without baking the environment into it.
func LoadFile(path string) (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		path = filepath.Join(dir, "config.yaml")
	}
	cfg := Default(dir)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Mode, "PORTFOLIO_MODE")
	set(&c.Local.Driver, "PORTFOLIO_LOCAL_DRIVER")
	set(&c.Local.Path, "PORTFOLIO_LOCAL_PATH")
	set(&c.Local.Key, "PORTFOLIO_LOCAL_KEY")
	set(&c.Local.RedisAddr, "PORTFOLIO_REDIS_ADDR")
	set(&c.Remote.BaseURL, "PORTFOLIO_REMOTE_URL")
	set(&c.Remote.Timeout, "PORTFOLIO_REMOTE_TIMEOUT")
	set(&c.Web.Addr, "PORTFOLIO_WEB_ADDR")
	set(&c.MockAPI.Addr, "PORTFOLIO_MOCK_API_ADDR")
	set(&c.Log.Level, "PORTFOLIO_LOG_LEVEL")
	set(&c.Log.Format, "PORTFOLIO_LOG_FORMAT")
}

func (c *Config) Validate() error {
	if _, err := store.ParseMode(c.Mode); err != nil {
		return err
	}
	switch c.Local.Driver {
	case store.DriverSQLite:
		if strings.TrimSpace(c.Local.Path) == "" {
			return errors.New("local.path is required for the sqlite driver")
		}
	case store.DriverRedis, store.DriverMemory:
	default:
		return fmt.Errorf("unknown local.driver %q (want sqlite|redis|memory)", c.Local.Driver)
	}
	if _, err := time.ParseDuration(c.Remote.Timeout); err != nil {
		return fmt.Errorf("invalid remote.timeout %q: %w", c.Remote.Timeout, err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log.format %q (want json|console)", c.Log.Format)
	}
	return nil
}

// StorageMode is the configured mode; Validate has already checked it.
func (c *Config) StorageMode() store.Mode {
	m, _ := store.ParseMode(c.Mode)
	return m
}

func (c *Config) RemoteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil || d <= 0 {
		return store.DefaultRemoteTimeout
	}
	return d
}

func (c *Config) StoreOptions(log *zap.Logger) store.Options {
	return store.Options{
		Local: store.LocalOptions{
			Driver:    c.Local.Driver,
			Path:      c.Local.Path,
			Key:       c.Local.Key,
			RedisAddr: c.Local.RedisAddr,
		},
		Remote: store.RemoteOptions{
			BaseURL: c.Remote.BaseURL,
			Timeout: c.RemoteTimeout(),
		},
		Logger: log,
	}
}
