/*
Package tracing provides lightweight request and stage tracing.

# Overview

Spans follow OpenTelemetry concepts with a minimal implementation: each
HTTP request gets a span, and each analysis stage (validate, scan,
execute) opens a child span under it. Completed spans are written to the
structured log by a background collector.

# Usage

	tracer := tracing.New("bugfinder", logger)
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "analysis.execute")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Trace Format

Traces use standard HTTP headers for propagation:
- X-Trace-ID: Unique identifier for entire request flow
- X-Span-ID: Identifier for current operation
*/
package tracing
