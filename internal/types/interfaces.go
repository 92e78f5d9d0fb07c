package types

// Logger is the structured logging interface used throughout the pipeline.
// It is satisfied by a thin adapter over *slog.Logger; the indirection keeps
// slog out of package signatures and lets tests inject a recording logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// NopLogger is a Logger that discards everything. Useful as a default in
// tests and tools that do not care about log output.
type NopLogger struct{}

func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
func (n NopLogger) With(...any) Logger { return n }
