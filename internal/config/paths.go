package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	WebDir        string
	StaticDir     string
	DataDir       string
	DatasetsDir   string
	ReportsDir    string
	CacheDir      string
	LogsDir       string

	// Dataset files (fetched or dropped into datasets/)
	FacilityCSV string
	RegionCSV   string

	// Well-known report files
	ReconciliationCSV string
	SummaryJSON       string
	InsightsWorkbook  string
}

// GetPaths returns the application paths relative to the executable location
// All paths are ALWAYS relative to the executable directory, never the current working directory
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	exeDir := filepath.Dir(exe)

	// All paths are relative to the executable directory.
	// Directory structure:
	// dist/
	//   ├── data/
	//   │   ├── datasets/   (CSV datasets from the fetcher)
	//   │   ├── reports/    (Generated reports)
	//   │   └── cache/      (Temporary files)
	//   ├── logs/           (Application logs)
	//   └── web/            (Frontend assets)

	dataDir := filepath.Join(exeDir, "data")
	datasetsDir := filepath.Join(dataDir, "datasets")
	reportsDir := filepath.Join(dataDir, "reports")

	paths := &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		WebDir:        filepath.Join(exeDir, "web"),
		StaticDir:     filepath.Join(exeDir, "web", "static"),
		DatasetsDir:   datasetsDir,
		ReportsDir:    reportsDir,
		CacheDir:      filepath.Join(dataDir, "cache"),
		LogsDir:       filepath.Join(exeDir, "logs"),

		FacilityCSV: filepath.Join(datasetsDir, FacilityDatasetFileName),
		RegionCSV:   filepath.Join(datasetsDir, RegionDatasetFileName),

		ReconciliationCSV: filepath.Join(reportsDir, "reconciliation.csv"),
		SummaryJSON:       filepath.Join(reportsDir, "summary.json"),
		InsightsWorkbook:  filepath.Join(reportsDir, "darah_insights.xlsx"),
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.DatasetsDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRelativePath returns a path relative to the executable directory
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.ExecutableDir, subpath)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetStateRegion determines the geographic region for a Malaysian state
func GetStateRegion(state string) string {
	northern := []string{"Perlis", "Kedah", "Pulau Pinang", "Perak"}

	central := []string{"Selangor", "Kuala Lumpur", "W.P. Kuala Lumpur", "Putrajaya", "W.P. Putrajaya"}

	southern := []string{"Negeri Sembilan", "Melaka", "Johor"}

	eastCoast := []string{"Kelantan", "Terengganu", "Pahang"}

	borneo := []string{"Sabah", "Sarawak", "Labuan", "W.P. Labuan"}

	stateLower := strings.ToLower(strings.TrimSpace(state))

	for _, s := range northern {
		if stateLower == strings.ToLower(s) {
			return "northern"
		}
	}

	for _, s := range central {
		if stateLower == strings.ToLower(s) {
			return "central"
		}
	}

	for _, s := range southern {
		if stateLower == strings.ToLower(s) {
			return "southern"
		}
	}

	for _, s := range eastCoast {
		if stateLower == strings.ToLower(s) {
			return "east-coast"
		}
	}

	for _, s := range borneo {
		if stateLower == strings.ToLower(s) {
			return "borneo"
		}
	}

	// Default for uncategorized entities
	return "other"
}

// GetDatasetPath returns the path for a dataset file
func (p *Paths) GetDatasetPath(filename string) string {
	return filepath.Join(p.DatasetsDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetCachePath returns the path for a cache file
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// GetWebFilePath returns the path to a web file
func (p *Paths) GetWebFilePath(filename string) string {
	return filepath.Join(p.WebDir, filename)
}

// GetStaticFilePath returns the path to a static file
func (p *Paths) GetStaticFilePath(filename string) string {
	return filepath.Join(p.StaticDir, filename)
}

// GetAggregateCSVPath returns the path for a per-grouping aggregate report
// (e.g. aggregate_hospitals.csv)
func (p *Paths) GetAggregateCSVPath(grouping string) string {
	filename := fmt.Sprintf("aggregate_%s.csv", strings.ReplaceAll(grouping, "-", "_"))
	return filepath.Join(p.ReportsDir, filename)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("datasets", p.DatasetsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("cache", p.CacheDir),
			slog.String("logs", p.LogsDir),
			slog.String("web", p.WebDir),
		),
		slog.Group("dataset_files",
			slog.String("facility_csv", p.FacilityCSV),
			slog.String("region_csv", p.RegionCSV),
		),
		slog.Group("report_files",
			slog.String("reconciliation_csv", p.ReconciliationCSV),
			slog.String("summary_json", p.SummaryJSON),
			slog.String("insights_workbook", p.InsightsWorkbook),
		))
}

// ValidateRequiredFiles checks if the datasets exist and returns detailed error information
func (p *Paths) ValidateRequiredFiles() error {
	requiredFiles := map[string]string{
		"Facility dataset": p.FacilityCSV,
		"State dataset":    p.RegionCSV,
	}

	var missingFiles []string
	for name, path := range requiredFiles {
		if !FileExists(path) {
			missingFiles = append(missingFiles, fmt.Sprintf("%s (%s)", name, path))
		}
	}

	if len(missingFiles) > 0 {
		return fmt.Errorf("required files missing: %s", strings.Join(missingFiles, ", "))
	}

	return nil
}
