package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/timetable/internal/logging"
)

// WatchConfig controls the headless notifier.
type WatchConfig struct {
	// Schedule is a cron spec (descriptors like "@every 30s" allowed) for
	// how often the schedule is re-resolved.
	Schedule string `yaml:"schedule"`
	// Bell rings the terminal bell and prints alerts on stdout.
	Bell bool `yaml:"bell"`
	// PersistDedupe stores fired alert keys in the database so a restart
	// on the same day does not alert again.
	PersistDedupe bool `yaml:"persist_dedupe"`
}

// Config is the on-disk application configuration.
type Config struct {
	// Database is the SQLite file path. Empty means the default location.
	Database string         `yaml:"database"`
	Log      logging.Config `yaml:"log"`
	Watch    WatchConfig    `yaml:"watch"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: logging.Config{Level: "info", Format: "text"},
		Watch: WatchConfig{
			Schedule:      "@every 30s",
			Bell:          true,
			PersistDedupe: true,
		},
	}
}

// Normalize fills zero values so older or partial files still work.
func (c *Config) Normalize() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format != "json" {
		c.Log.Format = "text"
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "@every 30s"
	}
}

var scheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses Schedule with an optional seconds field.
func (w WatchConfig) ParseSchedule() (cron.Schedule, error) {
	sched, err := scheduleParser.Parse(w.Schedule)
	if err != nil {
		return nil, fmt.Errorf("watch.schedule %q: %w", w.Schedule, err)
	}
	return sched, nil
}

// Validate rejects values that would fail later at runtime.
func (c *Config) Validate() error {
	_, err := c.Watch.ParseSchedule()
	return err
}

// Load reads the YAML config at path. A missing file is created with
// defaults on first run.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, fmt.Errorf("write default config: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg atomically via a temp file and rename.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".timetable-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// DefaultPath returns ~/.config/timetable/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "timetable", "config.yaml"), nil
}
