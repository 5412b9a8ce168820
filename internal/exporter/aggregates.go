package exporter

import (
	"fmt"

	"darahcli/internal/config"
	"darahcli/pkg/contracts/domain"
)

// AggregatesExporter writes the per-grouping aggregate CSVs for one
// analysis run: ranked entities, category totals, time series and the
// reconciliation extras.
type AggregatesExporter struct {
	csvWriter *CSVWriter
	paths     *config.Paths
}

// NewAggregatesExporter creates a new aggregates exporter
func NewAggregatesExporter(paths *config.Paths) *AggregatesExporter {
	return &AggregatesExporter{
		csvWriter: NewCSVWriter(paths),
		paths:     paths,
	}
}

// ExportAll writes every aggregate surface of the result into the
// reports directory. Files are small except the daily series, which
// stream row by row.
func (a *AggregatesExporter) ExportAll(result *domain.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("no analysis result to export")
	}

	if err := a.exportDataset(result.Facility, "hospitals", "hospital"); err != nil {
		return err
	}
	if err := a.exportDataset(result.Region, "states", "state"); err != nil {
		return err
	}

	if err := a.exportMismatches(result.Reconciliation.Rows); err != nil {
		return err
	}
	return a.exportDifferenceStats(result.Reconciliation.DifferenceStats)
}

// exportDataset writes the aggregates of one dataset: the entity
// ranking, the category totals and the three time series.
func (a *AggregatesExporter) exportDataset(ds domain.DatasetAnalysis, entityGrouping, entityHeader string) error {
	if err := a.exportGroupTotals(entityGrouping, entityHeader, ds.TopEntities); err != nil {
		return err
	}

	for group, totals := range ds.Categories {
		grouping := fmt.Sprintf("%s_%s", group, ds.Dataset)
		if err := a.exportGroupTotals(grouping, "category", totals); err != nil {
			return err
		}
	}

	if err := a.exportDailySeries(fmt.Sprintf("daily_%s", ds.Dataset), ds.Daily); err != nil {
		return err
	}
	if err := a.exportPeriodTotals(fmt.Sprintf("monthly_%s", ds.Dataset), ds.Monthly); err != nil {
		return err
	}
	return a.exportPeriodTotals(fmt.Sprintf("yearly_%s", ds.Dataset), ds.Yearly)
}

// exportGroupTotals writes one grouping's key/total pairs
func (a *AggregatesExporter) exportGroupTotals(grouping, keyHeader string, totals []domain.GroupTotal) error {
	records := make([][]string, 0, len(totals))
	for _, gt := range totals {
		records = append(records, []string{gt.Key, formatInt(gt.Total)})
	}

	path := a.paths.GetAggregateCSVPath(grouping)
	if err := a.csvWriter.WriteSimpleCSV(path, []string{keyHeader, "total"}, records); err != nil {
		return fmt.Errorf("failed to write %s aggregate: %w", grouping, err)
	}
	return nil
}

// exportPeriodTotals writes one time axis as period/total pairs
func (a *AggregatesExporter) exportPeriodTotals(grouping string, totals []domain.PeriodTotal) error {
	records := make([][]string, 0, len(totals))
	for _, pt := range totals {
		records = append(records, []string{pt.Period, formatInt(pt.Total)})
	}

	path := a.paths.GetAggregateCSVPath(grouping)
	if err := a.csvWriter.WriteSimpleCSV(path, []string{"period", "total"}, records); err != nil {
		return fmt.Errorf("failed to write %s aggregate: %w", grouping, err)
	}
	return nil
}

// exportDailySeries streams the per-day totals; nearly two decades of
// daily data is the one aggregate too long to buffer comfortably
func (a *AggregatesExporter) exportDailySeries(grouping string, totals []domain.PeriodTotal) error {
	path := a.paths.GetAggregateCSVPath(grouping)
	stream, err := a.csvWriter.CreateStreamWriter(path, []string{"period", "total"})
	if err != nil {
		return fmt.Errorf("failed to create stream for %s: %w", grouping, err)
	}

	for _, pt := range totals {
		if err := stream.WriteRecord([]string{pt.Period, formatInt(pt.Total)}); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write %s row: %w", grouping, err)
		}
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream for %s: %w", grouping, err)
	}
	return nil
}

// exportMismatches writes only the dates where the datasets disagree
func (a *AggregatesExporter) exportMismatches(rows []domain.ReconciliationRow) error {
	var records [][]string
	for _, row := range rows {
		if row.Matched {
			continue
		}
		records = append(records, []string{
			row.Date,
			formatInt(row.FacilityTotal),
			formatInt(row.RegionTotal),
			formatInt(row.Difference),
		})
	}

	path := a.paths.GetReportPath("mismatches.csv")
	headers := []string{"date", "facility_total", "region_total", "difference"}
	if err := a.csvWriter.WriteSimpleCSV(path, headers, records); err != nil {
		return fmt.Errorf("failed to write mismatches: %w", err)
	}
	return nil
}

// exportDifferenceStats writes the describe() view of the per-date
// differences as stat/value rows
func (a *AggregatesExporter) exportDifferenceStats(stats domain.DescriptiveStats) error {
	records := [][]string{
		{"count", formatInt(int64(stats.Count))},
		{"mean", formatFloat(stats.Mean)},
		{"std", formatFloat(stats.StdDev)},
		{"min", formatFloat(stats.Min)},
		{"q25", formatFloat(stats.Q25)},
		{"median", formatFloat(stats.Median)},
		{"q75", formatFloat(stats.Q75)},
		{"max", formatFloat(stats.Max)},
	}

	path := a.paths.GetReportPath("difference_stats.csv")
	if err := a.csvWriter.WriteSimpleCSV(path, []string{"stat", "value"}, records); err != nil {
		return fmt.Errorf("failed to write difference stats: %w", err)
	}
	return nil
}
