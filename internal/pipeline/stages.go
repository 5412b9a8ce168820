package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"darahcli/internal/config"
	"darahcli/internal/dataprocessing"
	"darahcli/internal/donation"
	apperrors "darahcli/internal/errors"
	"darahcli/internal/exporter"
	"darahcli/pkg/contracts/domain"
)

// Stage identifiers, in execution order.
const (
	StageLoad    = "load"
	StageAnalyze = "analyze"
	StageExport  = "export"
)

// Report files the export stage writes beyond the well-known ones.
const (
	hospitalSummaryCSV  = "hospital_summary.csv"
	hospitalSummaryJSON = "hospital_summary.json"
)

// LoadStage reads and normalizes both donation datasets. The two files
// are independent, so they load in parallel.
type LoadStage struct {
	reader       *dataprocessing.Reader
	facilityPath string
	regionPath   string
}

// NewLoadStage creates the load stage for the given CSV paths.
func NewLoadStage(reader *dataprocessing.Reader, facilityPath, regionPath string) *LoadStage {
	return &LoadStage{
		reader:       reader,
		facilityPath: facilityPath,
		regionPath:   regionPath,
	}
}

func (s *LoadStage) ID() string   { return StageLoad }
func (s *LoadStage) Name() string { return "Load datasets" }

func (s *LoadStage) Run(ctx context.Context, state *State) error {
	stageState := state.Stage(StageLoad)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		input, err := s.reader.ReadDataset(ctx, s.facilityPath, domain.DatasetFacility, domain.FacilitySchema())
		if err != nil {
			return err
		}
		state.Facility = input
		return nil
	})
	g.Go(func() error {
		input, err := s.reader.ReadDataset(ctx, s.regionPath, domain.DatasetRegion, domain.RegionSchema())
		if err != nil {
			return err
		}
		state.Region = input
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if stageState != nil {
		stageState.UpdateProgress(100, "datasets loaded")
	}
	return nil
}

// AnalyzeStage runs the full analysis and derives the per-hospital
// summaries from the facility records.
type AnalyzeStage struct {
	analyzer   *donation.Analyzer
	summarizer *dataprocessing.EntitySummarizer
}

// NewAnalyzeStage creates the analyze stage.
func NewAnalyzeStage(analyzer *donation.Analyzer, summarizer *dataprocessing.EntitySummarizer) *AnalyzeStage {
	return &AnalyzeStage{analyzer: analyzer, summarizer: summarizer}
}

func (s *AnalyzeStage) ID() string   { return StageAnalyze }
func (s *AnalyzeStage) Name() string { return "Analyze" }

func (s *AnalyzeStage) Run(ctx context.Context, state *State) error {
	result, err := s.analyzer.Run(ctx, state.Facility, state.Region)
	if err != nil {
		return err
	}
	state.Result = result

	if stageState := state.Stage(StageAnalyze); stageState != nil {
		stageState.UpdateProgress(80, "analysis computed")
	}

	state.Summaries = s.summarizer.GenerateFromRecords(ctx, state.Facility.Records)
	return nil
}

// ExportOptions selects which report formats the export stage writes.
type ExportOptions struct {
	CSV   bool
	JSON  bool
	Excel bool
}

// DefaultExportOptions writes every format.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{CSV: true, JSON: true, Excel: true}
}

// enabled reports whether at least one format is selected.
func (o ExportOptions) enabled() bool {
	return o.CSV || o.JSON || o.Excel
}

// ExportStage writes the report files for a completed analysis.
type ExportStage struct {
	paths      *config.Paths
	aggregates *exporter.AggregatesExporter
	excel      *exporter.ExcelExporter
	summarizer *dataprocessing.EntitySummarizer
	opts       ExportOptions
}

// NewExportStage creates the export stage writing into the report
// directory described by paths.
func NewExportStage(paths *config.Paths, summarizer *dataprocessing.EntitySummarizer, opts ExportOptions) *ExportStage {
	return &ExportStage{
		paths:      paths,
		aggregates: exporter.NewAggregatesExporter(paths),
		excel:      exporter.NewExcelExporter(paths),
		summarizer: summarizer,
		opts:       opts,
	}
}

func (s *ExportStage) ID() string   { return StageExport }
func (s *ExportStage) Name() string { return "Export reports" }

func (s *ExportStage) Run(ctx context.Context, state *State) error {
	if state.Result == nil {
		return apperrors.NewAnalysisError("no analysis result to export", nil)
	}
	if !s.opts.enabled() {
		return nil
	}
	stageState := state.Stage(StageExport)

	if s.opts.CSV {
		if err := donation.SaveReconciliationCSV(state.Result.Reconciliation, s.paths.ReconciliationCSV); err != nil {
			return err
		}
		if err := s.aggregates.ExportAll(state.Result); err != nil {
			return err
		}
		if err := s.summarizer.WriteCSV(ctx, s.paths.GetReportPath(hospitalSummaryCSV), state.Summaries); err != nil {
			return err
		}
		if stageState != nil {
			stageState.UpdateProgress(40, "csv reports written")
		}
	}

	if s.opts.JSON {
		if err := donation.SaveResultJSON(state.Result, s.paths.SummaryJSON); err != nil {
			return err
		}
		if err := s.summarizer.WriteJSON(ctx, s.paths.GetReportPath(hospitalSummaryJSON), state.Summaries); err != nil {
			return err
		}
		if stageState != nil {
			stageState.UpdateProgress(70, "json reports written")
		}
	}

	if s.opts.Excel {
		if err := s.excel.ExportWorkbook(state.Result); err != nil {
			return err
		}
		if stageState != nil {
			stageState.UpdateProgress(100, "workbook written")
		}
	}

	return nil
}

// DefaultStages assembles the standard run: load both datasets, analyze,
// export every report format.
func DefaultStages(cfg *config.Config, paths *config.Paths, logger *slog.Logger) []Stage {
	reader := dataprocessing.NewReader(logger)
	analyzer := donation.NewAnalyzer(logger, donation.AnalyzerConfig{
		TopHospitals:         cfg.Data.TopHospitals,
		MismatchPreviewLimit: cfg.Data.MismatchPreview,
	})
	summarizer := dataprocessing.NewEntitySummarizer(logger, dataprocessing.DefaultEntitySummarizerConfig())

	return []Stage{
		NewLoadStage(reader, cfg.GetFacilityDatasetPath(), cfg.GetRegionDatasetPath()),
		NewAnalyzeStage(analyzer, summarizer),
		NewExportStage(paths, summarizer, DefaultExportOptions()),
	}
}
