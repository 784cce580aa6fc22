package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of business spans
const TracerName = "invoicer"

// Span attribute keys
const (
	SpanAttrOwnerID        = "owner_id"
	SpanAttrInvoiceID      = "invoice_id"
	SpanAttrInvoiceNumber  = "invoice_number"
	SpanAttrSubscriptionID = "subscription_id"
	SpanAttrOrderID        = "order_id"
	SpanAttrAmount         = "amount"
)

// StartServiceSpan starts an internal span named "<service>.<op>", for
// example "invoice.send", tagged with alternating key, value pairs.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "send", telemetry.SpanAttrInvoiceID, id)
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, op string, kv ...any) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, service+"."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attributes(kv)...))
	return ctx, span
}

// SetAttributes tags span with alternating key, value pairs
func SetAttributes(span trace.Span, kv ...any) {
	if span == nil {
		return
	}
	if attrs := attributes(kv); len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

// RecordError marks span failed with err; nil errors are ignored
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// attributes pairs up kv. A trailing key without a value and keys that are
// not strings are dropped.
func attributes(kv []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		k := attribute.Key(key)
		switch v := kv[i+1].(type) {
		case string:
			attrs = append(attrs, k.String(v))
		case int:
			attrs = append(attrs, k.Int(v))
		case int64:
			attrs = append(attrs, k.Int64(v))
		case float64:
			attrs = append(attrs, k.Float64(v))
		case bool:
			attrs = append(attrs, k.Bool(v))
		case fmt.Stringer:
			attrs = append(attrs, k.String(v.String()))
		default:
			attrs = append(attrs, k.String(fmt.Sprint(v)))
		}
	}
	return attrs
}
