package logs

import (
	"io"
	"os"
	"strings"

	"github.com/bjartek/keeper/pkg/config"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// New creates a console-formatted zerolog logger writing to out, and also
// to the configured log file when file logging is enabled. The returned
// close function releases the log file and is safe to call when none was
// opened.
func New(cfg config.LoggingConfig, out io.Writer) (zerolog.Logger, func() error, error) {
	closeFn := func() error { return nil }

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Logger{}, closeFn, errors.Wrapf(err, "parse log level %q", cfg.Level)
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: cfg.TimestampFormat,
		NoColor:    !cfg.Color,
	}

	var w io.Writer = consoleWriter
	if cfg.File.Enabled {
		logFile, err := os.OpenFile(cfg.File.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Logger{}, closeFn, errors.Wrapf(err, "open log file %s", cfg.File.Path)
		}
		closeFn = logFile.Close

		fileWriter := zerolog.ConsoleWriter{
			Out:        logFile,
			TimeFormat: cfg.TimestampFormat,
			NoColor:    true,
		}
		w = zerolog.MultiLevelWriter(consoleWriter, fileWriter)
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	return logger, closeFn, nil
}
