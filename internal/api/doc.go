// Package api provides the JSON REST API server for Finch.
//
// # Architecture
//
// The server uses Go 1.22+ routing with a layered middleware stack:
//
//	Recovery → RequestID → Logging → CORS → RateLimit → Routes
//
// Health probes (/health, /ready) bypass the middleware stack via a
// top-level mux, ensuring they remain fast and unthrottled.
//
// # Endpoints
//
// Health probes (no middleware):
//   - GET /health: liveness, returns {"status":"ok"}
//   - GET /ready : readiness with a per-service status report
//
// Query:
//   - POST /api/v1/query: answer a question with citations
//
// Documents:
//   - POST /api/v1/documents: index an extracted-text document
//
// # Error Shape
//
// Errors are returned as:
//
//	{"error": {"code": "invalid_json", "message": "..."}}
//
// Codes are stable identifiers for programmatic handling; messages are
// human-readable and may change.
package api
