package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCharnyshevich/voxel-server/internal/server"
	"github.com/OCharnyshevich/voxel-server/internal/server/config"
	"github.com/OCharnyshevich/voxel-server/internal/server/storage"
)

func main() {
	cfg := config.DefaultConfig()

	flag.IntVar(&cfg.Port, "port", cfg.Port, "server port")
	flag.IntVar(&cfg.ViewDistance, "view-distance", cfg.ViewDistance, "chunks streamed around spawn")
	flag.StringVar(&cfg.DataDir, "data", cfg.DataDir, "data directory")
	flag.StringVar(&cfg.WorldName, "world", cfg.WorldName, "world name")
	flag.StringVar(&cfg.Provider, "provider", cfg.Provider, "world storage (nw1, badger, sqlite)")
	flag.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "page size for new nw1 worlds")
	flag.StringVar(&cfg.Generator, "generator", cfg.Generator, "world generator (flatgrass, hills)")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "generator goroutines")
	flag.IntVar(&cfg.LightingBudget, "lighting-budget", cfg.LightingBudget, "light updates per drain")
	flag.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "lighting drain interval")
	flag.DurationVar(&cfg.AutosaveInterval, "autosave", cfg.AutosaveInterval, "autosave interval, 0 disables")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "metrics listen address, empty disables")
	flag.StringVar(&cfg.RegistryPath, "registry", cfg.RegistryPath, "block registry yaml file")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	saveConfig := flag.Bool("save-config", false, "write the effective config to the data directory")
	flag.Parse()

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	bootLog := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	st, err := storage.New(cfg.DataDir, bootLog)
	if err != nil {
		bootLog.Error("open data directory", "error", err)
		os.Exit(1)
	}

	fromFile := config.DefaultConfig()
	found, err := st.LoadConfig(fromFile)
	if err != nil {
		bootLog.Error("load config", "error", err)
		os.Exit(1)
	}
	if found {
		config.Merge(cfg, fromFile, explicit)
	}
	if err := cfg.Validate(); err != nil {
		bootLog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if *saveConfig {
		if err := st.SaveConfig(cfg); err != nil {
			log.Error("save config", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv, err := server.New(cfg, st, log)
	if err != nil {
		log.Error("create server", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
