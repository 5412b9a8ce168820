package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetPaths tests the GetPaths function with various scenarios
func TestGetPaths(t *testing.T) {
	t.Run("basic path resolution", func(t *testing.T) {
		paths, err := GetPaths()
		require.NoError(t, err)
		require.NotNil(t, paths)

		// Verify all paths are absolute
		assert.True(t, filepath.IsAbs(paths.ExecutableDir), "ExecutableDir should be absolute")
		assert.True(t, filepath.IsAbs(paths.DataDir), "DataDir should be absolute")
		assert.True(t, filepath.IsAbs(paths.WebDir), "WebDir should be absolute")
		assert.True(t, filepath.IsAbs(paths.LogsDir), "LogsDir should be absolute")
		assert.True(t, filepath.IsAbs(paths.FacilityCSV), "FacilityCSV should be absolute")

		// Verify paths are correctly related to executable dir
		assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
		assert.Equal(t, filepath.Join(paths.ExecutableDir, "web"), paths.WebDir)
		assert.Equal(t, filepath.Join(paths.ExecutableDir, "logs"), paths.LogsDir)
	})

	t.Run("consistent calls return same paths", func(t *testing.T) {
		paths1, err1 := GetPaths()
		require.NoError(t, err1)

		paths2, err2 := GetPaths()
		require.NoError(t, err2)

		assert.Equal(t, paths1.ExecutableDir, paths2.ExecutableDir)
		assert.Equal(t, paths1.DataDir, paths2.DataDir)
		assert.Equal(t, paths1.FacilityCSV, paths2.FacilityCSV)
	})

	t.Run("nested directory structure", func(t *testing.T) {
		paths, err := GetPaths()
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(paths.DataDir, "datasets"), paths.DatasetsDir)
		assert.Equal(t, filepath.Join(paths.DataDir, "reports"), paths.ReportsDir)
		assert.Equal(t, filepath.Join(paths.DataDir, "cache"), paths.CacheDir)
		assert.Equal(t, filepath.Join(paths.WebDir, "static"), paths.StaticDir)
	})

	t.Run("well-known files", func(t *testing.T) {
		paths, err := GetPaths()
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(paths.DatasetsDir, FacilityDatasetFileName), paths.FacilityCSV)
		assert.Equal(t, filepath.Join(paths.DatasetsDir, RegionDatasetFileName), paths.RegionCSV)
		assert.Equal(t, filepath.Join(paths.ReportsDir, "reconciliation.csv"), paths.ReconciliationCSV)
		assert.Equal(t, filepath.Join(paths.ReportsDir, "summary.json"), paths.SummaryJSON)
		assert.Equal(t, filepath.Join(paths.ReportsDir, "darah_insights.xlsx"), paths.InsightsWorkbook)
	})
}

// TestPathHelpers tests path helper methods
func TestPathHelpers(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)

	tests := []struct {
		name     string
		got      string
		wantDir  string
		wantFile string
	}{
		{"dataset path", paths.GetDatasetPath("foo.csv"), paths.DatasetsDir, "foo.csv"},
		{"report path", paths.GetReportPath("out.csv"), paths.ReportsDir, "out.csv"},
		{"log path", paths.GetLogPath("app.log"), paths.LogsDir, "app.log"},
		{"cache path", paths.GetCachePath("tmp.bin"), paths.CacheDir, "tmp.bin"},
		{"web file path", paths.GetWebFilePath("index.html"), paths.WebDir, "index.html"},
		{"static file path", paths.GetStaticFilePath("app.js"), paths.StaticDir, "app.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.Join(tt.wantDir, tt.wantFile), tt.got)
		})
	}

	t.Run("relative path", func(t *testing.T) {
		got := paths.GetRelativePath("config.yaml")
		assert.Equal(t, filepath.Join(paths.ExecutableDir, "config.yaml"), got)
	})

	t.Run("aggregate csv path", func(t *testing.T) {
		got := paths.GetAggregateCSVPath("blood-types")
		assert.Equal(t, filepath.Join(paths.ReportsDir, "aggregate_blood_types.csv"), got)
	})
}

// TestEnsureDirectories tests directory creation
func TestEnsureDirectories(t *testing.T) {
	tempDir := t.TempDir()

	paths := &Paths{
		ExecutableDir: tempDir,
		DataDir:       filepath.Join(tempDir, "data"),
		DatasetsDir:   filepath.Join(tempDir, "data", "datasets"),
		ReportsDir:    filepath.Join(tempDir, "data", "reports"),
		CacheDir:      filepath.Join(tempDir, "data", "cache"),
		LogsDir:       filepath.Join(tempDir, "logs"),
	}

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.DatasetsDir, paths.ReportsDir, paths.CacheDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, "directory %s should exist", dir)
		assert.True(t, info.IsDir())
	}

	// Second call must be idempotent
	assert.NoError(t, paths.EnsureDirectories())
}

// TestFileExists tests the file existence check
func TestFileExists(t *testing.T) {
	tempDir := t.TempDir()

	existing := filepath.Join(tempDir, "exists.txt")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0644))

	assert.True(t, FileExists(existing))
	assert.False(t, FileExists(filepath.Join(tempDir, "missing.txt")))
}

// TestGetStateRegion tests Malaysian state to region classification
func TestGetStateRegion(t *testing.T) {
	tests := []struct {
		state string
		want  string
	}{
		{"Perlis", "northern"},
		{"Kedah", "northern"},
		{"Pulau Pinang", "northern"},
		{"Perak", "northern"},
		{"Selangor", "central"},
		{"Kuala Lumpur", "central"},
		{"W.P. Kuala Lumpur", "central"},
		{"Johor", "southern"},
		{"Melaka", "southern"},
		{"Negeri Sembilan", "southern"},
		{"Kelantan", "east-coast"},
		{"Terengganu", "east-coast"},
		{"Pahang", "east-coast"},
		{"Sabah", "borneo"},
		{"Sarawak", "borneo"},
		{"W.P. Labuan", "borneo"},
		{"sabah", "borneo"},      // case-insensitive
		{"  Selangor  ", "central"}, // surrounding whitespace ignored
		{"Malaysia", "other"},
		{"Unknown", "other"},
		{"", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, tt.want, GetStateRegion(tt.state))
		})
	}
}

// TestValidateRequiredFiles tests required dataset validation
func TestValidateRequiredFiles(t *testing.T) {
	tempDir := t.TempDir()

	paths := &Paths{
		FacilityCSV: filepath.Join(tempDir, FacilityDatasetFileName),
		RegionCSV:   filepath.Join(tempDir, RegionDatasetFileName),
	}

	t.Run("missing datasets reported", func(t *testing.T) {
		err := paths.ValidateRequiredFiles()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required files missing")
	})

	t.Run("all datasets present", func(t *testing.T) {
		require.NoError(t, os.WriteFile(paths.FacilityCSV, []byte("hospital,date,daily\n"), 0644))
		require.NoError(t, os.WriteFile(paths.RegionCSV, []byte("state,date,daily\n"), 0644))

		assert.NoError(t, paths.ValidateRequiredFiles())
	})
}
