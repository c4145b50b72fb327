package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks the span as failed and records err with attrs on an
// "error_occurred" event.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(
		attrs...,
	))
}

// StepAttributes describes a single step execution on a span.
func StepAttributes(index int, name, stepType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(StepIndexKey, index),
		attribute.String(StepNameKey, name),
		attribute.String(StepTypeKey, stepType),
	}
}
