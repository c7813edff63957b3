// Command gridtown runs the regional settlement simulation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mkessler/gridtown/internal/api"
	"github.com/mkessler/gridtown/internal/catalog"
	"github.com/mkessler/gridtown/internal/config"
	"github.com/mkessler/gridtown/internal/engine"
	"github.com/mkessler/gridtown/internal/persistence"
	"github.com/mkessler/gridtown/internal/region"
	"github.com/mkessler/gridtown/internal/tuning"
)

func main() {
	configPath := flag.String("config", "gridtown.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	// ── Building Catalog ──────────────────────────────────────────────
	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
	} else {
		cat, err = catalog.LoadDefault()
	}
	if err != nil {
		slog.Error("failed to load building catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("building catalog loaded", "buildings", len(cat.IDs), "digest", cat.Digest)

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Load or Create Region ─────────────────────────────────────────
	reg := region.New(region.Config{
		Name:       cfg.RegionName,
		GridWidth:  cfg.RegionGridWidth,
		GridHeight: cfg.RegionGridHeight,
		MaxCities:  cfg.MaxCities,
		CityWidth:  cfg.CityWidth,
		CityHeight: cfg.CityHeight,
		Seed:       cfg.Seed,
	}, cat)

	var startCycle uint64
	if db.HasRegion() {
		slog.Info("found saved region, loading...")
		st, err := db.LoadRegion()
		if err != nil {
			slog.Error("failed to load region", "error", err)
			os.Exit(1)
		}
		reg.RestoreState(st)
		startCycle = st.Cycle

		slog.Info("region restored",
			"name", st.Name,
			"cities", len(st.Cities),
			"deals", len(st.Deals),
			"cycle", startCycle,
		)
	} else {
		slog.Info("no saved region found, starting fresh", "name", cfg.RegionName)
	}

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.NewSimulation(reg)
	sim.OnCycleDone = func(cycle uint64) {
		if err := db.SaveRegionState(reg); err != nil {
			slog.Error("auto-save failed", "error", err)
		}
	}

	eng := engine.NewEngine()
	eng.SetTick(startCycle * tuning.TicksPerCycle)
	eng.SetSpeed(cfg.Speed)
	eng.Interval = cfg.TickInterval()
	eng.OnTick = sim.TickStep
	eng.OnCycle = sim.CycleStep

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("GRIDTOWN_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("GRIDTOWN_ADMIN_KEY not set — admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Sim:        sim,
		Eng:        eng,
		DB:         db,
		Port:       cfg.APIPort,
		AdminKey:   adminKey,
		ArchiveDir: cfg.ArchiveDir,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	stats := reg.Stats()
	fmt.Printf("\n%s: %d cities, %d residents.\n", cfg.RegionName, stats.Cities, stats.Population)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	if startCycle > 0 {
		fmt.Printf("Resuming from cycle %d\n", startCycle)
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveRegionState(reg); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Simulation stopped. Region state saved.")
}
