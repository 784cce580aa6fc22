package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)
	invoiceID := uuid.New()

	ctx, span := telemetry.StartServiceSpan(context.Background(), "invoice", "send",
		telemetry.SpanAttrInvoiceID, invoiceID,
		telemetry.SpanAttrAmount, 125.5,
		42, "skipped",
	)
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceNumber, "INV-2025-0001", "dangling")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "invoice.send", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, invoiceID.String(), attrs["invoice_id"])
	assert.Equal(t, "125.5", attrs["amount"])
	assert.Equal(t, "INV-2025-0001", attrs["invoice_number"])
	assert.Len(t, attrs, 3)
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "payment", "create")
	telemetry.RecordError(span, errors.New("overpayment"))
	telemetry.RecordError(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "overpayment", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}
