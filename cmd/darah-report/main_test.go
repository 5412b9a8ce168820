package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darahcli/internal/config"
	"darahcli/internal/pipeline"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		format  string
		want    pipeline.ExportOptions
		wantErr bool
	}{
		{format: "csv", want: pipeline.ExportOptions{CSV: true}},
		{format: "json", want: pipeline.ExportOptions{JSON: true}},
		{format: "excel", want: pipeline.ExportOptions{Excel: true}},
		{format: "xlsx", want: pipeline.ExportOptions{Excel: true}},
		{format: "all", want: pipeline.ExportOptions{CSV: true, JSON: true, Excel: true}},
		{format: "yaml", wantErr: true},
		{format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			opts, err := parseFormat(tt.format)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts)
		})
	}
}

func TestRetargetReports(t *testing.T) {
	paths := &config.Paths{
		ReportsDir:        "/old/reports",
		ReconciliationCSV: "/old/reports/reconciliation.csv",
		SummaryJSON:       "/old/reports/summary.json",
		InsightsWorkbook:  "/old/reports/darah_insights.xlsx",
	}

	retargetReports(paths, "/new/out")

	assert.Equal(t, "/new/out", paths.ReportsDir)
	assert.Equal(t, filepath.Join("/new/out", "reconciliation.csv"), paths.ReconciliationCSV)
	assert.Equal(t, filepath.Join("/new/out", "summary.json"), paths.SummaryJSON)
	assert.Equal(t, filepath.Join("/new/out", "darah_insights.xlsx"), paths.InsightsWorkbook)
}
