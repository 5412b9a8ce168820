// Package http implements HTTP request handlers for the donation insights API.
// It provides a thin layer between HTTP transport and business logic, following
// the clean architecture principle of keeping handlers focused solely on HTTP concerns.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - request parsing, response formatting
//	3. Error transformation - convert service errors to HTTP responses
//	4. No business logic - all logic belongs in the service layer
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details specification:
//
//	{
//	    "type": "validation_error",
//	    "title": "Invalid request data",
//	    "status": 400,
//	    "detail": "Dataset must be facility or region",
//	    "instance": "/api/aggregates/hospitals"
//	}
//
// Service sentinel errors (no run started, unknown grouping, unknown
// dataset) are mapped to 404 or 400 responses; everything else is a 500.
//
// # Testing
//
// Handlers are tested using httptest with real service instances backed by
// fixture CSV data, verifying status codes and response shapes.
package http
