package config

import (
	"net"
	"strings"

	"github.com/cockroachdb/errors"
)

// validate validates the configuration
func validate(cfg *Config) error {
	if err := validateLogging(cfg.Logging); err != nil {
		return err
	}
	if err := validateUI(cfg.UI); err != nil {
		return err
	}
	if err := validateAPI(cfg.API); err != nil {
		return err
	}
	return nil
}

// validateLogging validates log level and file settings
func validateLogging(logging LoggingConfig) error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[strings.ToLower(logging.Level)] {
		return errors.Newf("invalid log level '%s': must be one of: trace, debug, info, warn, error", logging.Level)
	}

	if logging.File.Enabled && strings.TrimSpace(logging.File.Path) == "" {
		return errors.New("logging.file.path is required when file logging is enabled")
	}

	return nil
}

// validateUI validates terminal UI settings
func validateUI(ui UIConfig) error {
	if ui.PollInterval <= 0 {
		return errors.Newf("invalid ui.poll_interval %v: must be positive", ui.PollInterval)
	}
	if ui.MaxLogLines < 1 {
		return errors.New("ui.max_log_lines must be at least 1")
	}
	if ui.MaxActivity < 1 {
		return errors.New("ui.max_activity must be at least 1")
	}
	return nil
}

// validateAPI validates the control API settings. The API can start and
// kill processes, so it only ever binds to loopback.
func validateAPI(api APIConfig) error {
	if api.Port < 1 || api.Port > 65535 {
		return errors.Newf("invalid api.port %d: must be between 1 and 65535", api.Port)
	}

	host := api.Host
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return errors.Newf("invalid api.host '%s': must be a loopback address", host)
	}
	return nil
}
