package config

import (
	"time"
)

// Config represents the complete keeper configuration
type Config struct {
	// Root is the install location the worker runs from. Empty means the
	// directory of the keeper executable.
	Root    string        `mapstructure:"root"`
	Logging LoggingConfig `mapstructure:"logging"`
	UI      UIConfig      `mapstructure:"ui"`
	API     APIConfig     `mapstructure:"api"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level           string        `mapstructure:"level"`
	TimestampFormat string        `mapstructure:"timestamp_format"`
	Color           bool          `mapstructure:"color"`
	File            LogFileConfig `mapstructure:"file"`
}

// LogFileConfig contains file logging settings
type LogFileConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// UIConfig contains terminal UI settings
type UIConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxLogLines  int           `mapstructure:"max_log_lines"`
	MaxActivity  int           `mapstructure:"max_activity"`
}

// APIConfig contains the loopback control API settings
type APIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}
