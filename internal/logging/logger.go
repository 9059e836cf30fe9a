package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"crosscheck/internal/config"
)

// LogFileName is the shared log file written inside the configured log directory.
const LogFileName = "crosscheck.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Console receives every record. Nil means stderr.
	Console io.Writer
	// Files are appended to alongside the console.
	Files []string
}

// New constructs a slog logger using the provided options. Caller locations
// are included at debug level.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))

	out, err := openOutputs(opts.Console, opts.Files)
	if err != nil {
		return nil, err
	}
	source := level.Level() <= slog.LevelDebug

	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		return slog.New(newConsoleHandler(out, level, source)), nil
	case "json":
		return slog.New(newJSONHandler(out, level, source)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig creates a logger from the [logging] and [paths] sections.
// When a log directory is configured the output is also appended to
// crosscheck.log inside it.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info"})
	}
	opts := Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		opts.Files = []string{filepath.Join(dir, LogFileName)}
	}
	return New(opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openOutputs fans records out to the console and every distinct file.
func openOutputs(console io.Writer, files []string) (io.Writer, error) {
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{console}
	seen := make(map[string]struct{}, len(files))
	for _, path := range files {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		writers = append(writers, file)
	}
	if len(writers) == 1 {
		return console, nil
	}
	return io.MultiWriter(writers...), nil
}
