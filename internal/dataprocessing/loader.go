package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	apperrors "darahcli/internal/errors"
	"darahcli/pkg/contracts/domain"
)

// utf8BOM is the byte-order mark some exports prepend to the header.
const utf8BOM = "\xEF\xBB\xBF"

// LoadCSVFile reads one donation CSV and returns its rows keyed by the
// header names, plus the header order itself. Column names are trimmed
// and the UTF-8 BOM is stripped, so callers can match schema columns
// without worrying about export quirks. Ragged rows are tolerated: a
// short row simply has no value for the trailing columns.
func LoadCSVFile(path string) ([]domain.RawRow, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.NewParsingError(fmt.Sprintf("failed to open donation csv %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperrors.NewParsingError(fmt.Sprintf("failed to read donation csv %s", path), err)
	}
	if len(lines) == 0 {
		return nil, nil, apperrors.NewParsingError(fmt.Sprintf("donation csv %s has no header row", path), nil)
	}

	header := make([]string, len(lines[0]))
	for i, cell := range lines[0] {
		if i == 0 {
			cell = strings.TrimPrefix(cell, utf8BOM)
		}
		header[i] = strings.TrimSpace(cell)
	}

	rows := make([]domain.RawRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if isBlankLine(line) {
			continue
		}
		row := make(domain.RawRow, len(header))
		for i, col := range header {
			if col == "" || i >= len(line) {
				continue
			}
			row[col] = line[i]
		}
		rows = append(rows, row)
	}

	return rows, header, nil
}

func isBlankLine(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
