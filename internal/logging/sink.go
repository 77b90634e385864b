// Package logging defines the structured-event sink the core components
// are built against, plus a default implementation backed by zerolog. Log
// format and level filtering are deliberately outside the sink's contract;
// callers configure the concrete logger however they like.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Field is a single structured key/value attached to an event.
type Field struct {
	Key   string
	Value any
}

// F is a short constructor for Field, mirroring the style of other
// structured-logging libraries in the ecosystem.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Sink is the structured-event interface injected into C6 (resolver) and
// C7 (server loop); config parsing and file watching take no Sink, and
// their outcomes are logged by the caller in cmd/overdnsd. Nothing in the
// core depends on zerolog directly; only the default constructor below
// does.
type Sink interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
}

// zerologSink adapts Sink onto a zerolog.Logger.
type zerologSink struct {
	log zerolog.Logger
}

// NewZerolog returns a Sink that writes structured JSON lines to w. Pass
// os.Stdout for machine-readable output, or wrap w in
// zerolog.ConsoleWriter{Out: w} before calling for human-readable output.
func NewZerolog(w io.Writer) Sink {
	if w == nil {
		w = os.Stderr
	}
	return &zerologSink{log: zerolog.New(w).With().Timestamp().Logger()}
}

func (s *zerologSink) Debug(msg string, fields ...Field) {
	apply(s.log.Debug(), fields).Msg(msg)
}

func (s *zerologSink) Info(msg string, fields ...Field) {
	apply(s.log.Info(), fields).Msg(msg)
}

func (s *zerologSink) Warn(msg string, fields ...Field) {
	apply(s.log.Warn(), fields).Msg(msg)
}

func (s *zerologSink) Error(msg string, err error, fields ...Field) {
	apply(s.log.Error().Err(err), fields).Msg(msg)
}

func apply(e *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		e = e.Interface(f.Key, f.Value)
	}
	return e
}

// Nop is a Sink that discards every event. Useful in tests and as a
// zero-value-safe default.
var Nop Sink = nopSink{}

type nopSink struct{}

func (nopSink) Debug(string, ...Field)        {}
func (nopSink) Info(string, ...Field)         {}
func (nopSink) Warn(string, ...Field)         {}
func (nopSink) Error(string, error, ...Field) {}
