package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Load loads configuration from the OS filesystem. See LoadFs.
func Load(configPath string, logger zerolog.Logger) (*Config, error) {
	return LoadFs(afero.NewOsFs(), configPath, logger)
}

// LoadFs loads configuration from fs with the following priority:
// 1. Explicit path via configPath parameter
// 2. ./keeper.yaml (current directory)
// 3. ./config/keeper.yaml
// 4. ~/.keeper/keeper.yaml (user home)
// 5. /etc/keeper/keeper.yaml (system-wide)
// Falls back to defaults if no config file is found. KEEPER_ environment
// variables override both.
func LoadFs(fs afero.Fs, configPath string, logger zerolog.Logger) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	v.SetConfigName("keeper")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".keeper"))
		}
		v.AddConfigPath("/etc/keeper")
	}

	// Example: KEEPER_LOGGING_LEVEL=debug, KEEPER_API_ENABLED=true
	v.SetEnvPrefix("KEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Env lookups only happen for keys viper knows about.
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "error reading config file")
		}
		logger.Debug().
			Str("searchPaths", "., ./config, ~/.keeper, /etc/keeper").
			Msg("No config file found in search paths, using defaults")
	} else {
		configFileUsed = v.ConfigFileUsed()
		logger.Debug().Str("configFile", configFileUsed).Msg("Config file loaded")
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config")
	}

	logger.Debug().
		Str("configFile", configFileUsed).
		Str("root", cfg.Root).
		Interface("logging", cfg.Logging).
		Interface("ui", cfg.UI).
		Interface("api", cfg.API).
		Msg("Effective configuration")

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("root", cfg.Root)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.timestamp_format", cfg.Logging.TimestampFormat)
	v.SetDefault("logging.color", cfg.Logging.Color)
	v.SetDefault("logging.file.enabled", cfg.Logging.File.Enabled)
	v.SetDefault("logging.file.path", cfg.Logging.File.Path)
	v.SetDefault("ui.poll_interval", cfg.UI.PollInterval)
	v.SetDefault("ui.max_log_lines", cfg.UI.MaxLogLines)
	v.SetDefault("ui.max_activity", cfg.UI.MaxActivity)
	v.SetDefault("api.enabled", cfg.API.Enabled)
	v.SetDefault("api.host", cfg.API.Host)
	v.SetDefault("api.port", cfg.API.Port)
}
