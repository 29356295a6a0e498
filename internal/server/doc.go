// Package server holds the process-wide pieces shared by the HTTP API and the
// MCP tools.
//
// ServerContext caches one Gmail and one Calendar client per user, built from
// the user's provider token, and implements dashboard.Clients. HealthChecker
// serves the liveness and readiness probes, the latter pinging the tag store.
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
