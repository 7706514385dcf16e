package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gopanel/gopanel/internal/logger"
	"github.com/gopanel/gopanel/internal/theme"
)

// Keys shared by the config file, viper flag bindings and GOPANEL_* variables.
const (
	KeyLogLevel  = "log_level"
	KeyLogPretty = "log_pretty"
	KeyTheme     = "theme"
	KeyThemeDirs = "theme_dirs"
	KeyAPIListen = "api.listen"
	// KeyClockFormat overrides the theme's clock layout when set.
	KeyClockFormat = "clock_format"
)

type Config struct {
	LogLevel  string    `json:"log_level" yaml:"log_level"`
	LogPretty bool      `json:"log_pretty" yaml:"log_pretty"`
	Theme     string    `json:"theme" yaml:"theme"`
	ThemeDirs []string  `json:"theme_dirs" yaml:"theme_dirs"`
	API       APIConfig `json:"api" yaml:"api"`
	// ClockFormat is a time layout; empty keeps the theme's.
	ClockFormat string `json:"clock_format,omitempty" yaml:"clock_format,omitempty"`
}

// APIConfig controls the introspection server. An empty Listen disables it.
type APIConfig struct {
	Listen string `json:"listen" yaml:"listen"`
}

type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// DefaultPath is $XDG_CONFIG_HOME/gopanel/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "gopanel", "config.yaml"), nil
}

// NewManager loads configFile, or the default path when empty. A missing
// file is created with defaults.
func NewManager(configFile string) (*Manager, error) {
	path := configFile
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	m := &Manager{configPath: path}

	if err := m.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.WithComponent("config").Info().
			Str("path", m.configPath).
			Msg("Config file not found, creating new config")
		m.config = Defaults()
		if err := m.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Str("theme", m.config.Theme).
		Msg("Config loaded")

	return m, nil
}

func Defaults() *Config {
	return &Config{
		LogLevel:  "info",
		LogPretty: true,
		Theme:     theme.DefaultName,
		ThemeDirs: theme.DefaultDirs(),
	}
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.ThemeDirs) == 0 {
		cfg.ThemeDirs = theme.DefaultDirs()
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// ApplyOverrides layers values set in v (command-line flags and GOPANEL_*
// variables) over the file. Empty strings don't override.
func (m *Manager) ApplyOverrides(v *viper.Viper) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := v.GetString(KeyLogLevel); v.IsSet(KeyLogLevel) && s != "" {
		m.config.LogLevel = s
	}
	if v.IsSet(KeyLogPretty) {
		m.config.LogPretty = v.GetBool(KeyLogPretty)
	}
	if s := v.GetString(KeyTheme); v.IsSet(KeyTheme) && s != "" {
		m.config.Theme = s
	}
	if dirs := v.GetStringSlice(KeyThemeDirs); v.IsSet(KeyThemeDirs) && len(dirs) > 0 {
		m.config.ThemeDirs = dirs
	}
	if v.IsSet(KeyAPIListen) {
		m.config.API.Listen = v.GetString(KeyAPIListen)
	}
	if s := v.GetString(KeyClockFormat); v.IsSet(KeyClockFormat) && s != "" {
		m.config.ClockFormat = s
	}
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg := *m.config
	cfg.ThemeDirs = slices.Clone(m.config.ThemeDirs)
	return &cfg
}

func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// Save writes the configuration to disk.
func (m *Manager) Save() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if cfg == nil {
		cfg = Defaults()
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("path", m.configPath).
			Msg("Failed to write config")
		return err
	}
	return nil
}
