// Package server provides the HTTP surface of the solarboard service.
//
// Routes:
//
//   - GET /: the landing page, embedded or read from a static directory
//   - GET /api/solar-data: per-panel projection of the dashboard document
//   - POST /api/update-panel-range: sets one panel's min/max and persists it
//   - GET /api/events: Server-Sent Events stream of document changes
//   - GET /healthz and GET /metrics: liveness and Prometheus metrics
//
// Every API response is JSON. Failures carry {"success": false, "message": ...}
// and never escape the request that caused them.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
