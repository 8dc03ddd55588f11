package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sadopc/timetable/internal/config"
	"github.com/sadopc/timetable/internal/logging"
	"github.com/sadopc/timetable/internal/notify"
	"github.com/sadopc/timetable/internal/store"
	"github.com/sadopc/timetable/internal/tui"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	verbose    bool

	now  func() time.Time
	tick time.Duration
}

// env is what a command needs once config, logging and the database are up.
type env struct {
	cfg   *config.Config
	store *store.Store
	log   *logrus.Entry
}

func (e *env) close() {
	if e.store != nil {
		e.store.Close()
	}
	logging.Close()
}

// NewRootCmd builds the timetable command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{now: time.Now})
}

func newRootCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timetable",
		Short: "Weekly class timetable, focus timer and pre-class alerts",
		Long: `timetable keeps a recurring weekly class schedule, runs a focus timer and
rings the terminal bell five minutes before each class.

Run without a subcommand to open the interactive dashboard.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(o)
		},
	}

	cmd.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "Path to config.yaml")
	cmd.PersistentFlags().StringVar(&o.dbPath, "db", "", "Path to the SQLite database (overrides config)")
	cmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(
		newStatusCmd(o),
		newWatchCmd(o),
		newFocusCmd(o),
		newExportCmd(o),
		newImportCmd(o),
	)
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// open loads config, configures logging and opens the database.
func (o *rootOptions) open(component string, stderr io.Writer) (*env, error) {
	path := o.configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("config path: %w", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	if o.verbose {
		logCfg.Level = "debug"
	}
	if err := logging.Setup(logCfg); err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	if o.verbose {
		logging.SetOutput(stderr)
	}
	log := logging.NewLogger(component)

	dbPath, err := o.resolveDBPath(cfg)
	if err != nil {
		logging.Close()
		return nil, err
	}
	s, err := store.New(dbPath)
	if err != nil {
		logging.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.WithField("db", dbPath).Debug("environment ready")
	return &env{cfg: cfg, store: s, log: log}, nil
}

func (o *rootOptions) resolveDBPath(cfg *config.Config) (string, error) {
	switch {
	case o.dbPath != "":
		return expandHome(o.dbPath)
	case cfg.Database != "":
		return expandHome(cfg.Database)
	default:
		return store.DefaultDBPath()
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func runTUI(o *rootOptions) error {
	e, err := o.open("tui", os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()

	trigger := notify.NewTrigger(notify.Options{
		Sink:   notify.LogSink{Log: e.log},
		Logger: e.log,
	})
	trigger.RequestPermission(notify.TerminalPermitter{File: os.Stdout})

	app := tui.NewApp(e.store, tui.Options{Trigger: trigger})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
