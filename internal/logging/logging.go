// Package logging configures the process-wide zerolog logger and hands out
// module-scoped child loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options selects the level, encoding and destination of log output.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	File   string // optional log file, appended to
	Writer io.Writer
}

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stderr).With().Timestamp().Logger()
	file *os.File
)

// Init replaces the base logger and sets the process-wide level. It may be called again on config reload;
// a previously opened log file is closed once the new one is in place.
func Init(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(opts.Format, "console") || opts.Format == "" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	var f *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, f)
	}

	logger := zerolog.New(out).With().Timestamp().Logger()

	mu.Lock()
	old := file
	base = logger
	file = f
	zerolog.SetGlobalLevel(level)
	mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// SetLevel changes the process-wide level without reopening outputs. It
// applies to loggers already handed out by For.
func SetLevel(s string) error {
	level, err := ParseLevel(s)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

// ParseLevel maps a config value to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level: %q (use debug, info, warn, or error)", s)
}

// For returns a child of the base logger tagged with module.
func For(module string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With().Str("module", module).Logger()
}

// Panic logs a recovered panic value with its stack trace.
func Panic(logger zerolog.Logger, recovered interface{}, context string) {
	logger.Error().
		Str("panic", fmt.Sprintf("%v", recovered)).
		Str("stack", string(debug.Stack())).
		Msgf("panic recovered in %s", context)
}

// Close releases the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
}
