// Package trace records what the analysis pipeline is doing while it runs.
//
// Spans mark the driver, every pass and every analysed unit. A tracer is
// carried in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "sema", 0)
//	defer span.End("")
//
// Levels select how deep the recording goes: phase keeps driver and pass
// spans, detail adds units, debug keeps everything. Events are written as
// text or NDJSON as they happen, kept in a ring for a dump after a crash,
// or both.
package trace
