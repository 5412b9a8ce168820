package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"darahcli/internal/config"
	"darahcli/internal/dataprocessing"
	"darahcli/internal/donation"
	"darahcli/internal/infrastructure"
	"darahcli/internal/pipeline"
	"darahcli/pkg/contracts/domain"
)

func main() {
	facilityPath := flag.String("facility", "", "path to the per-facility donations CSV (defaults to data/datasets)")
	regionPath := flag.String("region", "", "path to the per-state donations CSV (defaults to data/datasets)")
	outputDir := flag.String("out", "", "output directory for reports (defaults to data/reports)")
	topHospitals := flag.Int("top", 0, "number of hospitals in the ranking (defaults to config)")
	format := flag.String("format", "all", "report formats to write: csv, json, excel (or xlsx) or all")
	quiet := flag.Bool("quiet", false, "suppress the console summary")
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
	if *outputDir != "" {
		retargetReports(paths, *outputDir)
	}

	opts, err := parseFormat(*format)
	if err != nil {
		logger.Error("Invalid format flag", "format", *format)
		os.Exit(1)
	}

	facility := cfg.GetFacilityDatasetPath()
	if *facilityPath != "" {
		facility = *facilityPath
	}
	region := cfg.GetRegionDatasetPath()
	if *regionPath != "" {
		region = *regionPath
	}
	for _, path := range []string{facility, region} {
		if !config.FileExists(path) {
			logger.Error("Dataset not found",
				"path", path,
				"hint", "Run darah-fetch first to download the datasets")
			os.Exit(1)
		}
	}

	top := cfg.Data.TopHospitals
	if *topHospitals > 0 {
		top = *topHospitals
	}

	reader := dataprocessing.NewReader(logger)
	analyzer := donation.NewAnalyzer(logger, donation.AnalyzerConfig{
		TopHospitals:         top,
		MismatchPreviewLimit: cfg.Data.MismatchPreview,
	})
	summarizer := dataprocessing.NewEntitySummarizer(logger, dataprocessing.DefaultEntitySummarizerConfig())

	stages := []pipeline.Stage{
		pipeline.NewLoadStage(reader, facility, region),
		pipeline.NewAnalyzeStage(analyzer, summarizer),
		pipeline.NewExportStage(paths, summarizer, opts),
	}

	runner := pipeline.NewRunner(stages, nil, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.AnalysisTimeout)
	defer cancel()

	state, err := runner.Run(ctx)
	if err != nil {
		logger.Error("Analysis run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Analysis run complete",
		"run_id", state.RunID(),
		"reports", paths.ReportsDir)

	if !*quiet {
		printSummary(state.Result)
	}
}

// retargetReports points every report path at the chosen output directory.
func retargetReports(paths *config.Paths, dir string) {
	paths.ReportsDir = dir
	paths.ReconciliationCSV = filepath.Join(dir, "reconciliation.csv")
	paths.SummaryJSON = filepath.Join(dir, "summary.json")
	paths.InsightsWorkbook = filepath.Join(dir, "darah_insights.xlsx")
}

func parseFormat(format string) (pipeline.ExportOptions, error) {
	switch format {
	case "csv":
		return pipeline.ExportOptions{CSV: true}, nil
	case "json":
		return pipeline.ExportOptions{JSON: true}, nil
	case "excel", "xlsx":
		return pipeline.ExportOptions{Excel: true}, nil
	case "all":
		return pipeline.DefaultExportOptions(), nil
	default:
		return pipeline.ExportOptions{}, fmt.Errorf("unknown format %q", format)
	}
}

func printSummary(result *domain.AnalysisResult) {
	if result == nil {
		return
	}
	rec := result.Reconciliation

	fmt.Println("\n=== DONATION RECONCILIATION SUMMARY ===")
	fmt.Printf("Dates compared:    %d\n", rec.TotalDates)
	fmt.Printf("Matched:           %d\n", rec.MatchedDates)
	fmt.Printf("Mismatched:        %d\n", rec.MismatchedDates)
	fmt.Printf("Difference mean:   %.2f (std %.2f, min %.0f, max %.0f)\n",
		rec.DifferenceStats.Mean, rec.DifferenceStats.StdDev,
		rec.DifferenceStats.Min, rec.DifferenceStats.Max)

	if len(rec.MismatchPreview) > 0 {
		fmt.Println("\n=== FIRST MISMATCHED DATES ===")
		fmt.Println("Date       | Facility | Region | Difference")
		fmt.Println("-----------|----------|--------|-----------")
		for _, row := range rec.MismatchPreview {
			fmt.Printf("%-10s | %8d | %6d | %10d\n",
				row.Date, row.FacilityTotal, row.RegionTotal, row.Difference)
		}
	}

	if len(result.Facility.TopEntities) > 0 {
		fmt.Println("\n=== TOP HOSPITALS BY TOTAL DONATIONS ===")
		fmt.Println("Hospital                                 | Donations")
		fmt.Println("-----------------------------------------|----------")
		for _, entity := range result.Facility.TopEntities {
			fmt.Printf("%-40s | %9d\n", entity.Key, entity.Total)
		}
	}
}
