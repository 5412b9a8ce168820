package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"darahcli/internal/config"
	"darahcli/internal/fetch"
	"darahcli/internal/infrastructure"
)

func main() {
	force := flag.Bool("force", false, "download even when the local copies look current")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	paths, err := config.GetPaths()
	if err != nil {
		logger.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create data directories", "error", err)
		os.Exit(1)
	}

	fetcher := fetch.NewFetcher(cfg.Data.FetchTimeout, logger)
	ctx := context.Background()

	datasets := []struct {
		name string
		url  string
		dest string
	}{
		{name: "facility", url: cfg.Data.FacilityURL, dest: paths.FacilityCSV},
		{name: "region", url: cfg.Data.RegionURL, dest: paths.RegionCSV},
	}

	failed := false
	for _, ds := range datasets {
		downloaded, err := fetcher.FetchDataset(ctx, ds.url, ds.dest, *force)
		if err != nil {
			logger.Error("Dataset fetch failed",
				"dataset", ds.name,
				"url", ds.url,
				"error", err)
			failed = true
			continue
		}
		if downloaded {
			logger.Info("Dataset downloaded", "dataset", ds.name, "path", ds.dest)
		} else {
			logger.Info("Dataset already current", "dataset", ds.name, "path", ds.dest)
		}
	}

	if failed {
		os.Exit(1)
	}
}
