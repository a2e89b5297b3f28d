package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/magnetar/internal/api"
	"github.com/talgya/magnetar/internal/engine"
	"github.com/talgya/magnetar/internal/event"
	"github.com/talgya/magnetar/internal/magnetar"
	"github.com/talgya/magnetar/internal/metrics"
	"github.com/talgya/magnetar/internal/persistence"
	"github.com/talgya/magnetar/internal/scenario"
	"github.com/talgya/magnetar/internal/scene"
	"github.com/talgya/magnetar/internal/session"
)

// Event retention.
const (
	eventLogSize   = 512
	eventsKeptInDB = 10000
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the shelf (default command)",
	RunE:  runShelf,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runShelf(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	slog.Info("magnetar starting", "version", version, "fps", cfg.FPS, "speed", cfg.Speed)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Scenario ──────────────────────────────────────────────────────
	var sc *scenario.Scenario
	if cfg.Scenario != "" {
		sc, err = scenario.Load(cfg.Scenario)
		if err != nil {
			return err
		}
		slog.Info("scenario loaded",
			"name", sc.Name,
			"objects", len(sc.Objects),
			"inputs", len(sc.Inputs),
			"duration", engine.SessionTime(sc.Duration()),
		)
	}

	// ── Shelf ─────────────────────────────────────────────────────────
	world := scene.New()
	events := event.NewLog(eventLogSize)
	rec := metrics.New()

	shelf, err := magnetar.New(world, world.Root(), magnetar.DefaultConfig(), event.Multi(events, rec))
	if err != nil {
		return fmt.Errorf("create shelf: %w", err)
	}
	if err := restoreOrSeed(db, shelf, cfg, sc); err != nil {
		return err
	}

	client := session.Connect(world, world.Root(), world)
	client.Wrap(shelf)
	if sc != nil {
		surface, ok := shelf.Field().(*scene.Field)
		if !ok {
			return fmt.Errorf("shelf field is %T, want *scene.Field", shelf.Field())
		}
		client.SetSource(scenario.NewPlayer(sc, world, surface))
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(cfg.FPS)
	eng.SetSpeed(cfg.Speed)
	eng.AutosaveEvery = time.Duration(cfg.AutosaveSeconds) * time.Second

	var apiServer *api.Server

	// save runs on the frame thread.
	save := func() error {
		if err := db.SaveShelf(client.SaveState(), shelf.Frame()); err != nil {
			return fmt.Errorf("save shelf: %w", err)
		}
		if err := db.SaveEvents(events.Drain()); err != nil {
			return fmt.Errorf("save events: %w", err)
		}
		if n, err := db.PruneEvents(eventsKeptInDB); err != nil {
			slog.Warn("event prune failed", "error", err)
		} else if n > 0 {
			slog.Debug("events pruned", "removed", n)
		}
		if apiServer != nil {
			apiServer.MarkSaved(time.Now())
		}
		return nil
	}

	eng.OnFrame = func(frame uint64, dt float64) {
		start := time.Now()
		client.Step(dt)
		rec.ObserveFrame(time.Since(start))
		rec.ObserveShelf(shelf.Snapshot())
	}
	eng.OnSave = func(frame uint64) {
		if err := save(); err != nil {
			slog.Error("autosave failed", "frame", frame, "error", err)
		}
	}
	eng.OnReport = func(frame uint64) {
		snap := shelf.Snapshot()
		var held, pending int
		for _, c := range snap.Cells {
			held += len(c.Held)
			pending += len(c.Pending)
		}
		slog.Info("shelf report",
			"frame", frame,
			"session_time", engine.SessionTime(client.Elapsed()),
			"cells", len(snap.Cells),
			"held", held,
			"pending", pending,
			"y_pos", snap.YPos,
		)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.APIPort > 0 {
		if cfg.AdminKey == "" {
			slog.Warn("admin_key not set, admin POST endpoints will be disabled")
		}
		apiServer = &api.Server{
			Shelf:   shelf,
			Eng:     eng,
			Events:  events,
			DB:      db,
			Metrics: rec,
			Save: func() error {
				var err error
				eng.Do(func() { err = save() })
				return err
			},
			Port:     cfg.APIPort,
			AdminKey: cfg.AdminKey,
		}
		apiServer.Start()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	}

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Magnetar is up: %d cells. (Ctrl+C to stop)\n", len(shelf.Cells()))
	eng.Run(ctx)

	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP shutdown", "error", err)
		}
	}

	// Final save on shutdown.
	slog.Info("final save...")
	var saveErr error
	eng.Do(func() { saveErr = save() })
	if saveErr != nil {
		return fmt.Errorf("final save: %w", saveErr)
	}

	fmt.Println("Magnetar stopped. Shelf state saved.")
	return nil
}

// restoreOrSeed loads a saved shelf, or builds a fresh stack sized by the
// scenario or the config.
func restoreOrSeed(db *persistence.DB, shelf *magnetar.Magnetar, cfg config, sc *scenario.Scenario) error {
	if db.HasShelfState() {
		state, frame, err := db.LoadShelf()
		if err != nil {
			return fmt.Errorf("load shelf: %w", err)
		}
		st, err := magnetar.ParseState(state)
		if err != nil {
			return fmt.Errorf("load shelf: %w", err)
		}
		if err := shelf.Restore(st); err != nil {
			return fmt.Errorf("restore shelf: %w", err)
		}
		slog.Info("shelf restored", "cells", st.Cells, "y_pos", st.YPos, "saved_at_frame", frame)
		return nil
	}

	cells := cfg.Cells
	if sc != nil && sc.Cells > 0 {
		cells = sc.Cells
	}
	for i := 0; i < cells; i++ {
		if err := shelf.AddCell(); err != nil {
			return fmt.Errorf("add cell %d: %w", i, err)
		}
	}
	slog.Info("fresh shelf", "cells", cells)
	return nil
}
