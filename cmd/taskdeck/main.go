package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskdeck/internal/app"
	"taskdeck/internal/bus"
	"taskdeck/internal/config"
	"taskdeck/internal/repo"
	"taskdeck/internal/storage"
	"taskdeck/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// core is the explicitly constructed object graph: config, storage, bus,
// repository, controller. Built once per invocation, no package globals.
type core struct {
	cfg    config.Config
	store  *storage.SQLite
	bus    *bus.Bus
	repo   *repo.Repository
	ctrl   *app.Controller
	logger *log.Logger
}

func setup(view app.View, editor app.Editor) (*core, error) {
	cfg, err := config.LoadOrCreate(config.ResolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.LogPath)

	store, err := storage.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	b := bus.New(logger)
	r := repo.New(store, repo.DefaultKey, logger)
	ctrl := app.New(b, r, view, editor, logger, cfg.DefaultFilter, cfg.DefaultSort)

	return &core{cfg: cfg, store: store, bus: b, repo: r, ctrl: ctrl, logger: logger}, nil
}

func (c *core) close() {
	if err := c.store.Close(); err != nil {
		c.logger.WithError(err).Warn("closing database")
	}
}

// newLogger writes to the configured file; stderr would tear up the TUI.
// When the file cannot be opened, logging is dropped rather than failing
// startup.
func newLogger(path string) *log.Logger {
	logger := log.New()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(log.ErrorLevel)
		return logger
	}
	logger.SetOutput(f)
	return logger
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskdeck",
		Short:         "A task list in your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := ui.NewState()
			c, err := setup(state, state)
			if err != nil {
				return err
			}
			defer c.close()
			c.ctrl.Refresh()
			return ui.Run(c.bus, c.cfg, state)
		},
	}
	root.AddCommand(newAddCmd(), newListCmd(), newToggleCmd(), newRemoveCmd(), newClearCmd())
	return root
}
