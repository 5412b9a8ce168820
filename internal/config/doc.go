// Package config provides centralized configuration management for the Darah
// Donation Insights system. It handles loading configuration from multiple
// sources, validation, and provides a type-safe API for accessing
// configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration files (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern DARAH_* for namespacing:
//
//	DARAH_SERVER_PORT=8080
//	DARAH_DATA_FACILITY_FILE=donations_facility.csv
//	DARAH_DATA_TOP_HOSPITALS=15
//	DARAH_LOGGING_LEVEL=info
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, err := config.GetPaths()
//	datasetPath := paths.GetDatasetPath("donations_facility.csv")
//	reportPath := paths.GetReportPath("summary.json")
//
// # Validation
//
// All configuration is validated at load time to ensure:
//
//	- Required fields are present
//	- Values are within acceptable ranges
//	- File paths are accessible
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
