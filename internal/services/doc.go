// Package services implements the business logic layer between the HTTP
// handlers and the analysis engine.
//
// # Services
//
// AnalysisService owns the analysis run lifecycle: it starts pipeline
// runs (at most one at a time), tracks progress for the status endpoint,
// and serves every view of the latest completed result (reconciliation
// report, dimensional aggregates, dataset profiles, correlation
// matrices, per-hospital summaries). HealthService answers the health,
// readiness, liveness and version endpoints.
//
// # Conventions
//
//   - Context propagation on every operation
//   - Dependency injection through constructors; *slog.Logger injected,
//     never global
//   - Sentinel errors (errors.go) that the transport layer maps to
//     HTTP statuses
package services
