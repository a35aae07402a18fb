/*
Package tracing provides lightweight request tracing for the control API.

# Overview

Every HTTP request gets a span. If the caller sends X-Trace-ID and X-Span-ID
the span joins that trace; otherwise a new trace is started. Finished spans
are logged through zap by a single collector goroutine.

# Usage

	tracer := tracing.New("schedctl", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "boot")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Trace Format

- X-Trace-ID: trc_<ulid>, shared by every span of one request flow
- X-Span-ID: span_<ulid>, identifies the current operation

Spans are buffered (1000). When the buffer is full new spans are dropped
with a warning rather than blocking the request path.
*/
package tracing
