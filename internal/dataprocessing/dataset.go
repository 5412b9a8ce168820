package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"darahcli/internal/donation"
	apperrors "darahcli/internal/errors"
	"darahcli/pkg/contracts/domain"
)

// Reader loads donation datasets from disk and prepares them for the
// analyzer: raw rows for profiling plus normalized records.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a dataset reader with the provided logger.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// ReadDataset loads the CSV at path and normalizes it under the given
// schema. The header must carry every required schema column even when
// the file has no data rows; rows that merely have empty cells load
// fine and are accounted for by the dataset profile. The nationwide
// aggregate row is dropped only for the region dataset.
func (r *Reader) ReadDataset(ctx context.Context, path string, dataset domain.Dataset, schema domain.Schema) (donation.DatasetInput, error) {
	r.logger.InfoContext(ctx, "loading donation dataset",
		slog.String("dataset", string(dataset)),
		slog.String("path", path))

	rows, header, err := LoadCSVFile(path)
	if err != nil {
		return donation.DatasetInput{}, err
	}

	if missing := missingColumns(header, schema.RequiredColumns()); len(missing) > 0 {
		return donation.DatasetInput{}, apperrors.NewAppValidationError(
			fmt.Sprintf("%s csv %s is missing required columns: %s", dataset, path, strings.Join(missing, ", ")))
	}

	records, err := donation.Normalize(rows, schema, dataset == domain.DatasetRegion)
	if err != nil {
		return donation.DatasetInput{}, err
	}

	r.logger.InfoContext(ctx, "donation dataset loaded",
		slog.String("dataset", string(dataset)),
		slog.Int("rows", len(rows)),
		slog.Int("records", len(records)),
		slog.Int("columns", len(header)))

	return donation.DatasetInput{
		Dataset: dataset,
		Schema:  schema,
		Rows:    rows,
		Records: records,
	}, nil
}

// missingColumns reports which required columns the header lacks, in
// the order the schema declares them.
func missingColumns(header, required []string) []string {
	have := make(map[string]bool, len(header))
	for _, col := range header {
		have[col] = true
	}
	var missing []string
	for _, col := range required {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
