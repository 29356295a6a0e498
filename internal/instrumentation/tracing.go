package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer every tagdeck span is started from.
const TracerName = "github.com/teemow/tagdeck"

// Span attribute keys.
const (
	SpanAttrTool           = "mcp.tool"
	SpanAttrService        = "google.service"
	SpanAttrOperation      = "google.operation"
	SpanAttrStoreOperation = "store.operation"

	// SpanAttrUser holds the anonymized user hash, never the email.
	SpanAttrUser = "tagdeck.user_hash"

	// SpanAttrKind is the item kind: email, calendar, timeline or custom.
	SpanAttrKind       = "tagdeck.kind"
	SpanAttrResourceID = "tagdeck.resource_id"
	SpanAttrItemCount  = "tagdeck.item_count"
)

// SpanAttributeBuilder collects span attributes under the keys above.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{attrs: make([]attribute.KeyValue, 0, 4)}
}

// WithUser adds the user hash; an empty hash is skipped.
func (b *SpanAttributeBuilder) WithUser(userHash string) *SpanAttributeBuilder {
	if userHash != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrUser, userHash))
	}
	return b
}

// WithResource adds the item kind and id; empty values are skipped.
func (b *SpanAttributeBuilder) WithResource(kind, id string) *SpanAttributeBuilder {
	if kind != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrKind, kind))
	}
	if id != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrResourceID, id))
	}
	return b
}

func (b *SpanAttributeBuilder) WithItemCount(n int) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Int(SpanAttrItemCount, n))
	return b
}

func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

func start(ctx context.Context, name string, kind trace.SpanKind, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(kind),
	)
}

// StartToolSpan starts the server span of an MCP tool call, named tool.<name>.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, "tool."+toolName, trace.SpanKindServer,
		append([]attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}, attrs...))
}

// StartGoogleAPISpan starts a client span named google.<service>.<operation>.
func StartGoogleAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, "google."+service+"."+operation, trace.SpanKindClient,
		append([]attribute.KeyValue{
			attribute.String(SpanAttrService, service),
			attribute.String(SpanAttrOperation, operation),
		}, attrs...))
}

// StartStoreSpan starts a client span named store.<operation>.
func StartStoreSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, "store."+operation, trace.SpanKindClient,
		append([]attribute.KeyValue{attribute.String(SpanAttrStoreOperation, operation)}, attrs...))
}

// SetSpanError records err and marks the span failed. A nil err is ignored.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
