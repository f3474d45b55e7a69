package logging

import "context"

// NullLogger drops every record. It is the default sink whenever no log
// file is configured, so callers never need a nil check before logging.
type NullLogger struct{}

// NewNullLogger creates a logger that discards everything
func NewNullLogger() *NullLogger { return &NullLogger{} }

func (*NullLogger) Debug(context.Context, string, Fields)        {}
func (*NullLogger) Info(context.Context, string, Fields)         {}
func (*NullLogger) Warn(context.Context, string, Fields)         {}
func (*NullLogger) Error(context.Context, string, error, Fields) {}

func (l *NullLogger) WithFields(Fields) Logger { return l }

func (*NullLogger) Close() error { return nil }
