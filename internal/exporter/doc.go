// Package exporter writes the report surfaces of an analysis run.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility. Relative paths
// resolve into the reports directory.
//
// AggregatesExporter: Writes the per-grouping aggregate CSVs (ranked
// hospitals and states, category totals, daily/monthly/yearly series)
// plus the mismatch list and difference statistics.
//
// ExcelExporter: Builds the multi-sheet insights workbook covering the
// run summary, the full reconciliation table, entity rankings,
// category totals, the monthly trend and both correlation matrices.
//
// Example usage:
//
//	aggregates := exporter.NewAggregatesExporter(paths)
//	if err := aggregates.ExportAll(result); err != nil {
//		return err
//	}
//
//	workbook := exporter.NewExcelExporter(paths)
//	err := workbook.ExportWorkbook(result)
package exporter
