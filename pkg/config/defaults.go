package config

import "time"

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Root: "",
		Logging: LoggingConfig{
			Level:           "info",
			TimestampFormat: "15:04:05",
			Color:           true,
			File: LogFileConfig{
				Enabled: false,
				Path:    "keeper.log",
			},
		},
		UI: UIConfig{
			PollInterval: 2 * time.Second,
			MaxLogLines:  1000,
			MaxActivity:  200,
		},
		API: APIConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    7337,
		},
	}
}
