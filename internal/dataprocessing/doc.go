// Package dataprocessing provides ingestion for the Malaysian blood
// donation CSV exports. It reads the raw files, keys every row by the
// published header, and hands the analysis engine normalized records
// together with the dataset's quality profile.
//
// # Architecture
//
// The package is organized into three main components:
//
// 1. Loader: reads a donation CSV and returns header-keyed raw rows
// 2. Reader: loads and normalizes one dataset into analyzer input
// 3. EntitySummarizer: builds per-hospital or per-state summary rows
//
// # Usage
//
// Loading a dataset end to end:
//
//	reader := dataprocessing.NewReader(logger)
//	input, err := reader.ReadDataset(ctx, "donations_facility.csv",
//	    domain.DatasetFacility, domain.FacilitySchema())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Summarizing entities:
//
//	summarizer := dataprocessing.NewEntitySummarizer(logger, dataprocessing.DefaultEntitySummarizerConfig())
//	summaries := summarizer.GenerateFromRecords(ctx, input.Records)
//
// # Data Flow
//
// The typical data flow through this package:
//
//	CSV File → Loader → RawRows → Normalize → DonationRecords → Analyzer
//
// # Error Handling
//
// Structural problems surface as typed application errors: a missing or
// unreadable file is a parsing error, a header without the schema's
// required columns a validation error. Cell-level problems never abort
// a load; they are retained in the records and counted by the dataset
// profile.
//
// # Testing
//
// The package includes comprehensive tests for all components.
// Use table-driven tests when adding new functionality.
package dataprocessing
