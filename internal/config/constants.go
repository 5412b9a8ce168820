package config

import "time"

// Application constants - all hardcoded values for the Darah Donation Insights system
const (
	// Application Info
	AppName    = "Darah Donation Insights"
	AppVersion = "1.0.0"

	// Dataset files (relative to data/datasets)
	FacilityDatasetFileName = "donations_facility.csv"
	RegionDatasetFileName   = "donations_state.csv"

	// Dataset sources (data.gov.my, Ministry of Health Malaysia)
	FacilityDatasetURL = "https://storage.data.gov.my/healthcare/blood_donations_facility.csv"
	RegionDatasetURL   = "https://storage.data.gov.my/healthcare/blood_donations.csv"

	// Analysis defaults
	DefaultTopHospitals    = 15
	DefaultMismatchPreview = 10

	// Rate Limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	FetchTimeout        = 2 * time.Minute
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to executable)
	DefaultDataDir     = "data"
	DefaultLogsDir     = "logs"
	DefaultWebDir      = "web"
	DefaultDatasetsDir = "data/datasets"
	DefaultReportsDir  = "data/reports"

	// Cache Settings
	DataCacheDuration   = 15 * time.Minute
	ReportCacheDuration = 1 * time.Hour

	// Operation Timeouts
	DefaultAnalysisTimeout  = 15 * time.Minute
	FetchStageTimeout       = 5 * time.Minute
	ReportGenerationTimeout = 5 * time.Minute

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	MaxLogFileSize    = 100 * 1024 * 1024 // 100MB
	MaxLogFileAge     = 30                // days
	MaxLogFileBackups = 10

	// Error Messages
	ErrDatasetMissing  = "Dataset not found. Run darah-fetch or place the CSV under data/datasets."
	ErrAnalysisRunning = "An analysis run is already in progress. Wait for it to finish before starting another."
	ErrNetworkError    = "Network error. Please check your internet connection."

	// Success Messages
	MsgAnalysisComplete = "Analysis completed successfully."
	MsgFetchComplete    = "Datasets downloaded successfully."
)

// Feature Flags - compile-time configuration
const (
	// Core Features
	FeatureWebSocketEnabled   = true
	FeatureMetricsEnabled     = true
	FeatureHealthCheckEnabled = true

	// Security Features
	FeatureRateLimitingEnabled = true

	// Development Features
	FeatureDebugLoggingEnabled = false
	FeatureMockDataEnabled     = false
)

// URLs and Endpoints
const (
	// API Endpoints (internal)
	APIBasePath            = "/api"
	AnalysisEndpoint       = "/api/analysis"
	ReconciliationEndpoint = "/api/reconciliation"
	AggregatesEndpoint     = "/api/aggregates"
	SummaryEndpoint        = "/api/summary"
	HealthEndpoint         = "/api/health"
	MetricsEndpoint        = "/metrics"

	// WebSocket Endpoints
	WebSocketEndpoint = "/ws"
)

// GetFeatureFlag returns the value of a feature flag
func GetFeatureFlag(flag string) bool {
	switch flag {
	case "websocket":
		return FeatureWebSocketEnabled
	case "metrics":
		return FeatureMetricsEnabled
	case "health_check":
		return FeatureHealthCheckEnabled
	case "rate_limiting":
		return FeatureRateLimitingEnabled
	case "debug_logging":
		return FeatureDebugLoggingEnabled
	case "mock_data":
		return FeatureMockDataEnabled
	default:
		return false
	}
}
