package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/bubblebuff/internal/model"
)

// Buffer holds all configuration for the buff scheduler.
type Buffer struct {
	LogLevel     string        `yaml:"log_level"`     // debug, info, warn, error
	TickInterval time.Duration `yaml:"tick_interval"` // scheduler tick (default: 100ms)

	// Casting behaviour
	VerboseCasting bool `yaml:"verbose_casting"` // paced casting with visible batches
	AllowInCombat  bool `yaml:"allow_in_combat"`
	OverwriteBuff  bool `yaml:"overwrite_buff"` // recast buffs already present

	// Groups enabled at startup
	SpamGroups        []model.BuffGroup `yaml:"spam_groups,omitempty"`
	AutoTriggerGroups []model.BuffGroup `yaml:"auto_trigger_groups,omitempty"`

	Spam Spam `yaml:"spam"`

	// Files
	ScenarioPath  string `yaml:"scenario_path"`
	WhitelistPath string `yaml:"whitelist_path"`

	// Database (optional: resource catalog + pass history)
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultBuffer returns Buffer config with sensible defaults.
func DefaultBuffer() Buffer {
	return Buffer{
		LogLevel:       "info",
		TickInterval:   100 * time.Millisecond,
		VerboseCasting: true,
		AllowInCombat:  true,
		Spam:           DefaultSpam(),
		ScenarioPath:   "config/party.yaml",
		WhitelistPath:  "config/ability_whitelist.yaml",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "bubblebuff",
			Password: "bubblebuff",
			DBName:   "bubblebuff",
			SSLMode:  "disable",
		},
	}
}

// LoadBuffer loads buffer config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadBuffer(path string) (Buffer, error) {
	cfg := DefaultBuffer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultBuffer().TickInterval
	}

	return cfg, nil
}

// SaveBuffer writes cfg to path, creating parent directories.
func SaveBuffer(path string, cfg Buffer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir for %s: %w", path, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// fileExists reports whether path exists.
func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
