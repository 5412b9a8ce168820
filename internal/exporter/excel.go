package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"darahcli/internal/config"
	"darahcli/pkg/contracts/domain"
)

// ExcelExporter builds the multi-sheet insights workbook so the whole
// analysis run can be handed over as a single file.
type ExcelExporter struct {
	paths *config.Paths
}

// NewExcelExporter creates a new Excel workbook exporter
func NewExcelExporter(paths *config.Paths) *ExcelExporter {
	return &ExcelExporter{paths: paths}
}

// ExportWorkbook writes the insights workbook to its well-known
// location under the reports directory.
func (e *ExcelExporter) ExportWorkbook(result *domain.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("no analysis result to export")
	}

	path := e.paths.InsightsWorkbook
	slog.Info("Writing insights workbook",
		slog.String("path", path),
		slog.Int("reconciliation_rows", len(result.Reconciliation.Rows)))

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	b := &workbookBuilder{file: f, headerStyle: headerStyle}

	if err := b.summarySheet(result); err != nil {
		return err
	}
	if err := b.reconciliationSheet(result.Reconciliation); err != nil {
		return err
	}
	if err := b.entitySheet("Hospitals", "Hospital", result.Facility.TopEntities, false); err != nil {
		return err
	}
	if err := b.entitySheet("States", "State", result.Region.TopEntities, true); err != nil {
		return err
	}
	if err := b.categoriesSheet(result); err != nil {
		return err
	}
	if err := b.monthlySheet(result); err != nil {
		return err
	}
	if err := b.yearlyTrendSheet(result.Facility.EntityYearly); err != nil {
		return err
	}
	if err := b.correlationSheet("Correlation Facility", result.Facility.Correlation); err != nil {
		return err
	}
	if err := b.correlationSheet("Correlation Region", result.Region.Correlation); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	summaryIdx, err := f.GetSheetIndex("Summary")
	if err != nil {
		return fmt.Errorf("failed to locate summary sheet: %w", err)
	}
	f.SetActiveSheet(summaryIdx)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	slog.Info("Insights workbook written", slog.String("path", path))
	return nil
}

// workbookBuilder holds the file and shared styles while the sheets
// are assembled
type workbookBuilder struct {
	file        *excelize.File
	headerStyle int
}

// newSheet creates a named sheet and styles its header row
func (b *workbookBuilder) newSheet(name string, header []interface{}) error {
	if _, err := b.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	if len(header) == 0 {
		return nil
	}
	if err := b.file.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}
	end, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return b.file.SetCellStyle(name, "A1", end, b.headerStyle)
}

// setRow writes one data row at the given 1-based row number
func (b *workbookBuilder) setRow(sheet string, row int, cells []interface{}) error {
	ref, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := b.file.SetSheetRow(sheet, ref, &cells); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

// summarySheet writes the run overview as label/value pairs
func (b *workbookBuilder) summarySheet(result *domain.AnalysisResult) error {
	const sheet = "Summary"
	if err := b.newSheet(sheet, nil); err != nil {
		return err
	}

	rec := result.Reconciliation
	matchRate := 0.0
	if rec.TotalDates > 0 {
		matchRate = float64(rec.MatchedDates) / float64(rec.TotalDates) * 100
	}

	rows := [][]interface{}{
		{"Generated At", result.GeneratedAt.Format(time.RFC3339)},
		{"Facility Rows", result.Facility.Profile.Rows},
		{"Region Rows", result.Region.Profile.Rows},
		{"Dates Compared", rec.TotalDates},
		{"Matched Dates", rec.MatchedDates},
		{"Mismatched Dates", rec.MismatchedDates},
		{"Match Rate %", matchRate},
		{"Mean Difference", rec.DifferenceStats.Mean},
		{"Max Difference", rec.DifferenceStats.Max},
		{"Min Difference", rec.DifferenceStats.Min},
	}
	for i, cells := range rows {
		if err := b.setRow(sheet, i+1, cells); err != nil {
			return err
		}
	}
	return b.file.SetColWidth(sheet, "A", "A", 20)
}

// reconciliationSheet writes the full date-by-date comparison
func (b *workbookBuilder) reconciliationSheet(rec domain.ReconciliationReport) error {
	const sheet = "Reconciliation"
	header := []interface{}{"Date", "Facility Total", "Region Total", "Difference", "Matched"}
	if err := b.newSheet(sheet, header); err != nil {
		return err
	}

	for i, row := range rec.Rows {
		cells := []interface{}{row.Date, row.FacilityTotal, row.RegionTotal, row.Difference, row.Matched}
		if err := b.setRow(sheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

// entitySheet writes a ranked entity list; state sheets also carry the
// geographic region so the ranking can be filtered by part of the
// country
func (b *workbookBuilder) entitySheet(sheet, keyHeader string, totals []domain.GroupTotal, withRegion bool) error {
	header := []interface{}{keyHeader, "Total"}
	if withRegion {
		header = append(header, "Region")
	}
	if err := b.newSheet(sheet, header); err != nil {
		return err
	}

	for i, gt := range totals {
		cells := []interface{}{gt.Key, gt.Total}
		if withRegion {
			cells = append(cells, config.GetStateRegion(gt.Key))
		}
		if err := b.setRow(sheet, i+2, cells); err != nil {
			return err
		}
	}
	return b.file.SetColWidth(sheet, "A", "A", 32)
}

// categoriesSheet flattens every category grouping of both datasets
func (b *workbookBuilder) categoriesSheet(result *domain.AnalysisResult) error {
	const sheet = "Categories"
	header := []interface{}{"Dataset", "Group", "Category", "Total"}
	if err := b.newSheet(sheet, header); err != nil {
		return err
	}

	row := 2
	for _, ds := range []domain.DatasetAnalysis{result.Facility, result.Region} {
		groups := make([]string, 0, len(ds.Categories))
		for group := range ds.Categories {
			groups = append(groups, group)
		}
		sort.Strings(groups)

		for _, group := range groups {
			for _, gt := range ds.Categories[group] {
				cells := []interface{}{string(ds.Dataset), group, gt.Key, gt.Total}
				if err := b.setRow(sheet, row, cells); err != nil {
					return err
				}
				row++
			}
		}
	}
	return nil
}

// monthlySheet aligns both monthly series on the union of months
func (b *workbookBuilder) monthlySheet(result *domain.AnalysisResult) error {
	const sheet = "Monthly Trend"
	header := []interface{}{"Month", "Facility Total", "Region Total"}
	if err := b.newSheet(sheet, header); err != nil {
		return err
	}

	facility := make(map[string]int64, len(result.Facility.Monthly))
	for _, pt := range result.Facility.Monthly {
		facility[pt.Period] = pt.Total
	}
	region := make(map[string]int64, len(result.Region.Monthly))
	for _, pt := range result.Region.Monthly {
		region[pt.Period] = pt.Total
	}

	months := make([]string, 0, len(facility))
	for month := range facility {
		months = append(months, month)
	}
	for month := range region {
		if _, ok := facility[month]; !ok {
			months = append(months, month)
		}
	}
	sort.Strings(months)

	for i, month := range months {
		cells := []interface{}{month, facility[month], region[month]}
		if err := b.setRow(sheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

// yearlyTrendSheet pivots the facility per-hospital yearly series into
// a year-by-hospital grid, one column per hospital. Years a hospital
// did not report stay blank.
func (b *workbookBuilder) yearlyTrendSheet(rows []domain.EntityPeriodTotal) error {
	const sheet = "Yearly Trend"

	entities := make([]string, 0)
	years := make([]string, 0)
	seenYear := make(map[string]bool)
	totals := make(map[string]map[string]int64)
	for _, r := range rows {
		if len(entities) == 0 || entities[len(entities)-1] != r.Entity {
			entities = append(entities, r.Entity)
		}
		if !seenYear[r.Period] {
			seenYear[r.Period] = true
			years = append(years, r.Period)
		}
		if totals[r.Period] == nil {
			totals[r.Period] = make(map[string]int64)
		}
		totals[r.Period][r.Entity] = r.Total
	}
	sort.Strings(years)

	header := make([]interface{}, 0, len(entities)+1)
	header = append(header, "Year")
	for _, entity := range entities {
		header = append(header, entity)
	}
	if err := b.newSheet(sheet, header); err != nil {
		return err
	}

	for i, year := range years {
		cells := make([]interface{}, 0, len(entities)+1)
		cells = append(cells, year)
		for _, entity := range entities {
			if total, ok := totals[year][entity]; ok {
				cells = append(cells, total)
			} else {
				cells = append(cells, nil)
			}
		}
		if err := b.setRow(sheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

// correlationSheet writes one dataset's coefficient grid. Undefined
// coefficients stay blank since a spreadsheet cell cannot hold NaN.
func (b *workbookBuilder) correlationSheet(sheet string, matrix domain.CorrelationMatrix) error {
	header := make([]interface{}, 0, len(matrix.Columns)+1)
	header = append(header, "Attribute")
	for _, col := range matrix.Columns {
		header = append(header, col)
	}
	if err := b.newSheet(sheet, header); err != nil {
		return err
	}

	for i, rowValues := range matrix.Values {
		cells := make([]interface{}, 0, len(rowValues)+1)
		cells = append(cells, matrix.Columns[i])
		for _, v := range rowValues {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				cells = append(cells, nil)
				continue
			}
			cells = append(cells, v)
		}
		if err := b.setRow(sheet, i+2, cells); err != nil {
			return err
		}
	}
	return b.file.SetColWidth(sheet, "A", "A", 24)
}
