// Package telemetry provides the Progrock implementation of the tracer port.
package telemetry

import (
	"context"
	"fmt"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/nixplan/internal/core/ports"
)

// Recorder implements ports.Tracer using the progrock library.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a new Recorder with a default tape.
func New() ports.Tracer {
	tape := progrock.NewTape()
	return NewRecorder(tape)
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	rec := progrock.NewRecorder(w)
	return &Recorder{
		w:   w,
		rec: rec,
	}
}

// Start creates a new span backed by a progrock vertex.
func (r *Recorder) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	d := digest.FromString(name)
	v := r.rec.Vertex(d, name)
	return ctx, &Span{vertex: v}
}

// EmitPlan records the set of packages scheduled for prefetch as a vertex.
func (r *Recorder) EmitPlan(_ context.Context, packageIDs []string) {
	d := digest.FromString("prefetch-plan")
	v := r.rec.Vertex(d, "prefetch plan")
	for _, id := range packageIDs {
		_, _ = fmt.Fprintln(v.Stdout(), id)
	}
	v.Done(nil)
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Span implements ports.Span wrapping *progrock.VertexRecorder.
type Span struct {
	vertex *progrock.VertexRecorder
	err    error
	cached bool
}

// Write streams output into the vertex.
func (s *Span) Write(p []byte) (n int, err error) {
	return s.vertex.Stdout().Write(p)
}

// RecordError records an error for the span. The error is reported when the
// span ends.
func (s *Span) RecordError(err error) {
	s.err = err
}

// Cached marks the span as satisfied from cache.
func (s *Span) Cached() {
	s.cached = true
	s.vertex.Cached()
}

// SetAttribute adds a key-value pair to the span output.
func (s *Span) SetAttribute(key string, value any) {
	_, _ = fmt.Fprintf(s.vertex.Stdout(), "%s=%v\n", key, value)
}

// End completes the span.
func (s *Span) End() {
	s.vertex.Done(s.err)
}
