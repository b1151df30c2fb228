package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/steveyegge/taskboard/internal/config"
	"github.com/steveyegge/taskboard/internal/dashboard"
	"github.com/steveyegge/taskboard/internal/engine"
	"github.com/steveyegge/taskboard/internal/notify"
	"github.com/steveyegge/taskboard/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "daemon",
	Short:   "Run the sync daemon and dashboard",
	Long: `Run the synchronization daemon.

The daemon:
  1. Performs an initial reconciliation refresh
  2. Subscribes to change notifications for both partitions
  3. Watches the store file for writes by other processes
  4. Reconciles periodically as a safety net
  5. Broadcasts board activity over a WebSocket dashboard`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		return runServe(cfg)
	},
}

// daemonLogger builds the daemon logger, rotating through lumberjack when a
// log file is configured.
func daemonLogger(cfg *config.Config) *log.Logger {
	if cfg.LogFile == "" {
		return log.New(os.Stderr, "[serve] ", log.LstdFlags)
	}
	return log.New(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}, "[serve] ", log.LstdFlags)
}

func runServe(cfg *config.Config) error {
	logger := daemonLogger(cfg)

	db := openStore(cfg)
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dash := dashboard.NewServer(&dashboard.Config{
		Port:   cfg.DashboardPort,
		Logger: logger,
	})
	if err := dash.Start(); err != nil {
		return fmt.Errorf("failed to start dashboard: %w", err)
	}
	defer func() {
		if err := dash.Stop(); err != nil {
			logger.Printf("Dashboard stop: %v", err)
		}
	}()

	engCfg := engine.DefaultConfig()
	engCfg.GraceWindow = cfg.GraceWindow
	engCfg.ReconcileDelay = cfg.ReconcileDelay
	engCfg.Logger = logger
	engCfg.Notify = func(msg string) { logger.Printf("Notice: %s", msg) }
	engCfg.OnEvent = func(ev engine.Event) {
		switch ev.Kind {
		case engine.EventTaskChanged:
			dash.BroadcastTaskUpdate(ev.TaskID)
		case engine.EventRefreshed:
			dash.BroadcastRefresh()
			if counts, err := db.StatusCounts(ctx); err == nil {
				dash.BroadcastStats(counts)
			}
		}
	}

	eng := engine.New(db, engCfg)
	if err := eng.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh failed: %w", err)
	}
	logger.Printf("Initial refresh complete: %d tasks", len(eng.Tasks()))

	listener := notify.New(db, func() {
		eng.RequestRefresh(0)
	}, cfg.DebounceInterval, logger)
	if err := listener.Start(); err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}
	defer listener.Stop()

	// Surface writes from other processes as change notifications.
	go func() {
		if err := db.WatchExternal(ctx, logger); err != nil {
			logger.Printf("External watch unavailable: %v", err)
		}
	}()

	// Periodic reconciliation as a safety net for missed notifications.
	if cfg.ReconcileInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.ReconcileInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					eng.RequestRefresh(0)
				}
			}
		}()
	}

	fmt.Printf("%s taskboard daemon running (dashboard on %s)\n",
		ui.RenderPass("✓"), dash.Addr())

	<-ctx.Done()
	logger.Println("Shutdown signal received")
	eng.Wait()
	return nil
}
