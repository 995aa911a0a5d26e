// Package output provides terminal output utilities.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// logger is the global logger instance.
var logger *log.Logger

// destination is where the global logger writes.
var destination io.Writer = os.Stderr

func init() {
	logger = log.NewWithOptions(destination, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
	})
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Verbose enables debug level, timestamps and caller reporting.
	Verbose bool

	// Timestamps controls timestamp output. nil means on.
	Timestamps *bool

	// Level is an explicit level name such as "info" or "WARNING".
	// Verbose takes precedence.
	Level string
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// SetupLogging configures the global logger.
func SetupLogging(cfg LogConfig) {
	level := log.InfoLevel
	if cfg.Level != "" {
		if parsed, err := ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}

	timestamps := true
	if cfg.Timestamps != nil {
		timestamps = *cfg.Timestamps
	}
	if cfg.Verbose {
		level = log.DebugLevel
		timestamps = true
	}

	logger = log.NewWithOptions(destination, log.Options{
		Level:           level,
		ReportTimestamp: timestamps,
		ReportCaller:    cfg.Verbose,
		TimeFormat:      "15:04:05",
	})
}

// ParseLevel parses a level name. "warning" and "critical" are accepted
// as aliases for warn and fatal.
func ParseLevel(name string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "warning":
		return log.WarnLevel, nil
	case "critical":
		return log.FatalLevel, nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q", name)
	}
	return lvl, nil
}

// SetLevel changes the level of the global logger unless verbose debug
// logging is already on.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	if logger.GetLevel() != log.DebugLevel {
		logger.SetLevel(lvl)
	}
	return nil
}

// Level returns the level of the global logger.
func Level() log.Level {
	return logger.GetLevel()
}

// UnitLogger returns a child logger prefixed with a generation unit name.
func UnitLogger(name string) *log.Logger {
	return logger.WithPrefix(name)
}

// NewUnitLogger returns a logger writing to w that inherits the global
// level and timestamp settings, prefixed with name.
func NewUnitLogger(w io.Writer, name string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           logger.GetLevel(),
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          name,
	})
}

// Destination returns the writer the global logger writes to.
func Destination() io.Writer {
	return destination
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...interface{}) {
	logger.Debug(msg, keyvals...)
}

// Info logs an info message.
func Info(msg string, keyvals ...interface{}) {
	logger.Info(msg, keyvals...)
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...interface{}) {
	logger.Warn(msg, keyvals...)
}

// Error logs an error message.
func Error(msg string, keyvals ...interface{}) {
	logger.Error(msg, keyvals...)
}

// Println prints a message to stdout with a newline.
func Println(msg string) {
	os.Stdout.WriteString(msg + "\n")
}
