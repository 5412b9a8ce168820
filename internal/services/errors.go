package services

import "errors"

// Analysis service errors
var (
	// Run lifecycle errors
	ErrRunInProgress = errors.New("analysis run already in progress")
	ErrNoRun         = errors.New("no analysis run has been started")

	// Result access errors
	ErrNoAnalysisResult = errors.New("no analysis result available")
	ErrUnknownGrouping  = errors.New("unknown aggregate grouping")
	ErrUnknownDataset   = errors.New("unknown dataset")

	// General errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
