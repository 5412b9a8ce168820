package donation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"darahcli/pkg/contracts/domain"
)

// AnalyzerConfig holds the tunable parameters of an analysis run
type AnalyzerConfig struct {
	// TopHospitals caps the entity ranking per dataset; 0 keeps every entity
	TopHospitals int
	// MismatchPreviewLimit caps the quoted mismatch dates in the report
	MismatchPreviewLimit int
}

// DefaultAnalyzerConfig returns the standard run parameters
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		TopHospitals:         15,
		MismatchPreviewLimit: MismatchPreviewLimit,
	}
}

// IsValid checks whether the configuration is usable
func (c AnalyzerConfig) IsValid() bool {
	return c.TopHospitals >= 0 && c.MismatchPreviewLimit >= 0
}

// DatasetInput bundles everything the analyzer needs about one dataset:
// its identity, column schema, the raw rows as loaded, and the records
// normalization produced from them.
type DatasetInput struct {
	Dataset domain.Dataset
	Schema  domain.Schema
	Rows    []domain.RawRow
	Records []domain.DonationRecord
}

// Analyzer orchestrates the full analysis of both donation datasets
type Analyzer struct {
	cfg    AnalyzerConfig
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer with the given configuration
func NewAnalyzer(logger *slog.Logger, cfg AnalyzerConfig) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{cfg: cfg, logger: logger}
}

// Run computes the complete analysis: per-dataset profiles, time series,
// rankings, category totals and correlation matrices, then the
// cross-dataset reconciliation joining the two daily series.
//
// The two dataset pipelines share nothing until the join, so they run
// in parallel. Correctness does not depend on the parallelism; every
// component returns fresh output and never mutates its input.
func (a *Analyzer) Run(ctx context.Context, facility, region DatasetInput) (*domain.AnalysisResult, error) {
	start := time.Now()

	a.logger.InfoContext(ctx, "starting donation analysis",
		"facility_rows", len(facility.Rows),
		"region_rows", len(region.Rows),
		"top_hospitals", a.cfg.TopHospitals,
	)

	if !a.cfg.IsValid() {
		return nil, fmt.Errorf("invalid analyzer config: top_hospitals=%d, mismatch_preview=%d",
			a.cfg.TopHospitals, a.cfg.MismatchPreviewLimit)
	}

	var facilityAnalysis, regionAnalysis domain.DatasetAnalysis

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		facilityAnalysis, err = a.analyzeDataset(gctx, facility)
		return err
	})
	g.Go(func() error {
		var err error
		regionAnalysis, err = a.analyzeDataset(gctx, region)
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.ErrorContext(ctx, "dataset analysis failed", "error", err)
		return nil, err
	}

	reconciliation := Reconcile(facilityAnalysis.Daily, regionAnalysis.Daily)
	if a.cfg.MismatchPreviewLimit != MismatchPreviewLimit {
		reconciliation.MismatchPreview = previewMismatches(reconciliation.Rows, a.cfg.MismatchPreviewLimit)
	}

	result := &domain.AnalysisResult{
		GeneratedAt:    time.Now().UTC(),
		Facility:       facilityAnalysis,
		Region:         regionAnalysis,
		Reconciliation: reconciliation,
	}

	a.logger.InfoContext(ctx, "donation analysis completed",
		"duration", time.Since(start),
		"dates_compared", reconciliation.TotalDates,
		"mismatched_dates", reconciliation.MismatchedDates,
	)

	return result, nil
}

// analyzeDataset runs every per-dataset computation. The context is
// checked between phases so a cancelled run stops promptly.
func (a *Analyzer) analyzeDataset(ctx context.Context, in DatasetInput) (domain.DatasetAnalysis, error) {
	analysis := domain.DatasetAnalysis{Dataset: in.Dataset}

	if err := ctx.Err(); err != nil {
		return analysis, fmt.Errorf("analyze %s: %w", in.Dataset, err)
	}

	analysis.Profile = BuildProfile(in.Dataset, in.Rows, in.Records, in.Schema)
	analysis.Daily = AggregateByPeriod(in.Records, GranularityDay)
	analysis.Monthly = AggregateByPeriod(in.Records, GranularityMonth)
	analysis.Yearly = AggregateByPeriod(in.Records, GranularityYear)

	if err := ctx.Err(); err != nil {
		return analysis, fmt.Errorf("analyze %s: %w", in.Dataset, err)
	}

	analysis.TopEntities = GroupByEntity(in.Records)
	if a.cfg.TopHospitals > 0 && len(analysis.TopEntities) > a.cfg.TopHospitals {
		analysis.TopEntities = analysis.TopEntities[:a.cfg.TopHospitals]
	}
	analysis.EntityYearly = GroupByEntityYear(in.Records)

	analysis.Categories = make(map[string][]domain.GroupTotal, len(in.Schema.CategoryGroups))
	for _, group := range in.Schema.CategoryGroups {
		analysis.Categories[group.Name] = GroupByBreakdown(in.Records, group)
	}

	if err := ctx.Err(); err != nil {
		return analysis, fmt.Errorf("analyze %s: %w", in.Dataset, err)
	}

	analysis.Correlation = CorrelationMatrix(in.Records, NumericAttributes(in.Schema))

	a.logger.DebugContext(ctx, "dataset analysis built",
		"dataset", in.Dataset,
		"records", len(in.Records),
		"days", len(analysis.Daily),
		"entities", len(analysis.TopEntities),
	)

	return analysis, nil
}

// previewMismatches rebuilds the mismatch preview with a caller-chosen
// cap. Rows are already in ascending date order.
func previewMismatches(rows []domain.ReconciliationRow, limit int) []domain.ReconciliationRow {
	if limit <= 0 {
		return nil
	}
	var preview []domain.ReconciliationRow
	for _, row := range rows {
		if row.Matched {
			continue
		}
		preview = append(preview, row)
		if len(preview) == limit {
			break
		}
	}
	return preview
}
