// Package instrumentation provides comprehensive OpenTelemetry instrumentation
// for the tagdeck dashboard service.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for HTTP requests, Google API calls, tag store calls,
//     tag filtering, list cache behavior and the activity feed
//   - Distributed tracing for request flows and API calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_view_sessions: Gauge of live list view sessions
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// Tag store Metrics:
//   - store_operations_total: Counter of store operations by operation and status
//   - store_operation_duration_seconds: Histogram of store operation durations
//
// Dashboard Metrics:
//   - tag_filter_evaluations_total: Counter of filter passes by kind, mode and path
//   - list_cache_lookups_total: Counter of cache lookups by hit/miss
//   - list_loads_superseded_total: Counter of discarded list loads
//   - activity_feed_items: Histogram of activity feed sizes
//
// Auth Metrics:
//   - auth_total: Counter of bearer token verifications by result
//   - oauth_token_refresh_total: Counter of provider token refresh attempts by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Distributed tracing spans are created for:
//   - MCP tool invocations (tool.<name>)
//   - Google API calls (google.<service>.<operation>)
//   - Tag store calls (store.<operation>)
//
// # Configuration
//
// Config is the "telemetry" section of tagdeck.yaml, loaded through viper, so
// every key can also be set as TAGDECK_TELEMETRY_<KEY>. The standard
// OTEL_SERVICE_NAME, OTEL_EXPORTER_OTLP_ENDPOINT and OTEL_TRACES_SAMPLER_ARG
// variables are honored as fallbacks.
//
//	telemetry:
//	  enabled: true
//	  metrics_exporter: prometheus   # prometheus, otlp or stdout
//	  tracing_exporter: none         # otlp, stdout or none
//	  sample_rate: 0.1
//	  audit:
//	    include_pii: false
//
// With the prometheus exporter the serve command starts a separate metrics
// listener that serves /metrics.
package instrumentation
