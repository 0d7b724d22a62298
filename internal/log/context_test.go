// SPDX-License-Identifier: MIT
package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestContextWithRunID(t *testing.T) {
	tests := []struct {
		name  string
		ctx   context.Context
		runID string
		want  string
	}{
		{
			name:  "nil context",
			ctx:   nil,
			runID: "run-123",
			want:  "run-123",
		},
		{
			name:  "background context",
			ctx:   context.Background(),
			runID: "run-456",
			want:  "run-456",
		},
		{
			name:  "empty run ID",
			ctx:   context.Background(),
			runID: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRunID(tt.ctx, tt.runID)
			assert.Equal(t, tt.want, RunIDFromContext(ctx))
		})
	}
}

func TestRunIDFromContextEmpty(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"nil context", nil},
		{"context without run ID", context.Background()},
		{"context with wrong type", context.WithValue(context.Background(), runIDKey, 123)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, RunIDFromContext(tt.ctx))
		})
	}
}

func TestWithContext_AddsFields(t *testing.T) {
	buf := captureLogs(t, Config{})

	ctx := ContextWithRunID(context.Background(), "run-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	l := WithContext(ctx, WithComponent("test"))
	l.Info().Msg("x")

	entry := decodeLine(t, buf)
	assert.Equal(t, "run-1", entry[FieldRunID])
	assert.Equal(t, "corr-1", entry[FieldCorrelation])
	assert.NotContains(t, entry, FieldTraceID)
}

func TestWithContext_TraceIDs(t *testing.T) {
	buf := captureLogs(t, Config{})

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x01, 0x02},
		SpanID:  trace.SpanID{0x03},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l := WithTraceContext(ctx)
	l.Info().Msg("x")

	entry := decodeLine(t, buf)
	assert.Equal(t, sc.TraceID().String(), entry[FieldTraceID])
	assert.Equal(t, sc.SpanID().String(), entry[FieldSpanID])
}

func TestWithContext_NoopSpanAddsNothing(t *testing.T) {
	buf := captureLogs(t, Config{})

	tracer := noop.NewTracerProvider().Tracer("test")
	ctx, span := tracer.Start(context.Background(), "test-span")
	defer span.End()

	l := WithTraceContext(ctx)
	l.Info().Msg("x")
	assert.NotContains(t, decodeLine(t, buf), FieldTraceID)
}

func TestWithComponentFromContext(t *testing.T) {
	buf := captureLogs(t, Config{})

	ctx := ContextWithRunID(context.Background(), "run-9")
	l := WithComponentFromContext(ctx, "checkpoint")
	l.Info().Msg("x")

	entry := decodeLine(t, buf)
	assert.Equal(t, "checkpoint", entry[FieldComponent])
	assert.Equal(t, "run-9", entry[FieldRunID])
}

func TestFromContext_FallsBackToBase(t *testing.T) {
	assert.NotNil(t, FromContext(nil)) //nolint:staticcheck
	assert.NotNil(t, FromContext(context.Background()))
}
