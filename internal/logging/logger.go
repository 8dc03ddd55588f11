package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config selects where and how loggers write.
type Config struct {
	// Level is the minimum level ("debug", "info", "warn", "error").
	// TIMETABLE_LOG_LEVEL overrides it.
	Level string `yaml:"level"`
	// File is the log file path. Empty means the default under the user
	// config dir; the TUI owns stdout so logs never go to the terminal.
	File string `yaml:"file"`
	// Format is "text" (default) or "json".
	Format string `yaml:"format"`
}

var (
	mu      sync.Mutex
	base    *logrus.Logger
	loggers = make(map[string]*logrus.Entry)
	closer  io.Closer
)

// Setup configures the shared logger. Loggers created earlier keep working
// and pick up the new output.
func Setup(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	l := baseLocked()

	levelStr := cfg.Level
	if env := os.Getenv("TIMETABLE_LOG_LEVEL"); env != "" {
		levelStr = env
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch cfg.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	path := cfg.File
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if closer != nil {
		closer.Close()
	}
	closer = f
	l.SetOutput(f)
	return nil
}

// SetOutput redirects all loggers, mostly for tests and CLI commands that
// want logs on stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	baseLocked().SetOutput(w)
}

// NewLogger returns the logger for a component, creating it once.
func NewLogger(component string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()
	if e, ok := loggers[component]; ok {
		return e
	}
	e := baseLocked().WithField("component", component)
	loggers[component] = e
	return e
}

// Close releases the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	baseLocked().SetOutput(io.Discard)
	return err
}

func baseLocked() *logrus.Logger {
	if base == nil {
		base = logrus.New()
		base.SetOutput(io.Discard)
	}
	return base
}

// DefaultPath returns ~/.config/timetable/timetable.log
func DefaultPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "timetable", "timetable.log"), nil
}
