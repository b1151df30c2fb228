// Command taskboard is a board-style task tracker backed by a remote store.
//
// Tasks live in one of two storage partitions (unscoped and project-scoped)
// and can be changed by other clients at any time; the synchronization
// engine merges both partitions, applies local mutations optimistically,
// and reconciles external changes.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/taskboard/internal/config"
	"github.com/steveyegge/taskboard/internal/engine"
	"github.com/steveyegge/taskboard/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "Board-style task tracker with optimistic remote sync",
	Long: `taskboard tracks tasks on a kanban-style board backed by a remote store.

Tasks live in two storage partitions: unscoped tasks and project-scoped
tasks. The synchronization engine merges both into one board, applies
local changes optimistically, and reconciles changes made by other
clients.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./taskboard.yaml)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "board", Title: "Board commands:"},
		&cobra.Group{ID: "daemon", Title: "Daemon commands:"},
	)

	rootCmd.AddCommand(
		serveCmd,
		listCmd,
		createCmd,
		moveCmd,
		updateCmd,
		deleteCmd,
		statusCmd,
		exportCmd,
		importCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the resolved configuration for a command run.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// openStore opens the remote store and ensures the schema exists.
func openStore(cfg *config.Config) *store.DB {
	db, err := store.Open(cfg.StorePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	if err := db.InitSchema(context.Background()); err != nil {
		_ = db.Close()
		fmt.Fprintf(os.Stderr, "Error initializing schema: %v\n", err)
		os.Exit(1)
	}
	return db
}

// newEngine builds an engine over the store with the configured windows and
// an initial reconciliation refresh already applied.
func newEngine(ctx context.Context, cfg *config.Config, db *store.DB) *engine.Engine {
	engCfg := engine.DefaultConfig()
	engCfg.GraceWindow = cfg.GraceWindow
	engCfg.ReconcileDelay = cfg.ReconcileDelay
	engCfg.Notify = func(msg string) {
		fmt.Fprintf(os.Stderr, "%s\n", msg)
	}

	eng := engine.New(db, engCfg)
	if err := eng.Refresh(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading board: %v\n", err)
		os.Exit(1)
	}
	return eng
}
