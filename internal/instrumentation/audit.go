package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation is one MCP tool call as written to the audit log.
//
// UserEmail is PII. Unless the audit log is configured to include PII only
// the email domain and the anonymized user hash are written.
type ToolInvocation struct {
	Tool string

	UserEmail string
	UserHash  string

	// Service is gmail, calendar or store; Operation is list, get, create and so on.
	Service   string
	Operation string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts timing a call to tool.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{Tool: tool, StartTime: time.Now()}
}

// WithUser records who made the call.
func (ti *ToolInvocation) WithUser(email, userHash string) *ToolInvocation {
	ti.UserEmail = email
	ti.UserHash = userHash
	return ti
}

// WithService attributes the call to a backing service.
func (ti *ToolInvocation) WithService(service, operation string) *ToolInvocation {
	ti.Service = service
	ti.Operation = operation
	return ti
}

// WithSpanContext copies the trace and span ids of the active span, if any.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete stops the clock. A tool that returned an error result has
// success false and no err.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns the metric status label for the call.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// Attrs returns the log attributes of the call. With includePII the full email
// is added as "user"; the domain is always present.
func (ti *ToolInvocation) Attrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.String("user_domain", UserDomain(ti.UserEmail)),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if includePII && ti.UserEmail != "" {
		attrs = append(attrs, slog.String("user", ti.UserEmail))
	}

	optional := []struct{ key, value string }{
		{"user_hash", ti.UserHash},
		{"service", ti.Service},
		{"operation", ti.Operation},
		{"trace_id", ti.TraceID},
		{"span_id", ti.SpanID},
		{"error", ti.Error},
	}
	for _, o := range optional {
		if o.value != "" {
			attrs = append(attrs, slog.String(o.key, o.value))
		}
	}
	return attrs
}

// AuditLogger writes one record per tool call: tool_executed on success and
// tool_failed otherwise.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger returns an enabled audit logger that leaves out PII.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditConfig{Enabled: true})
}

// NewAuditLoggerWithConfig returns an audit logger configured by cfg.
func NewAuditLoggerWithConfig(logger *slog.Logger, cfg AuditConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With("component", "audit"),
		includePII: cfg.IncludePII,
		enabled:    cfg.Enabled,
	}
}

// LogToolInvocation writes ti unless the logger is disabled.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	level, msg := slog.LevelInfo, "tool_executed"
	if !ti.Success {
		level, msg = slog.LevelWarn, "tool_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, ti.Attrs(al.includePII)...)
}
