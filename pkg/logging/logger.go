package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	requestIDKey contextKey = "requestID"
	runIDKey     contextKey = "runID"
)

// LevelTrace is below debug; used for per-iteration progress.
const LevelTrace = slog.LevelDebug - 4

var logger *slog.Logger

func init() {
	// Initialize with compact handler for readable console output
	// Can be replaced with JSON handler for production
	handler := NewCompactHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo, // Default level
	})
	logger = slog.New(withContextIDs(handler))
}

// SetLevel changes the logging level
func SetLevel(level slog.Level) {
	SetOutput(os.Stdout, level)
}

// SetOutput redirects compact output to w at the given level
func SetOutput(w io.Writer, level slog.Level) {
	handler := NewCompactHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	logger = slog.New(withContextIDs(handler))
}

// SetJSONOutput switches to JSON lines on w, for log collectors
func SetJSONOutput(w io.Writer, level slog.Level) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	logger = slog.New(withContextIDs(handler))
}

// ParseLevel maps the verbosity setting to a level. An explicit name wins
// over the -v count.
func ParseLevel(verbosity string, verboseCount int) slog.Level {
	switch verbosity {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	}

	switch {
	case verboseCount >= 2:
		return LevelTrace
	case verboseCount == 1:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// New returns a logger tagged with a component name. It is bound to the
// logger active at call time. Context IDs are added by its *Context
// methods like everywhere else.
func New(component string) *slog.Logger {
	return logger.With("component", component)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRunID tags the context with the id of a ranking run
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID retrieves the run ID from context
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(runIDKey).(string); ok {
		return runID
	}
	return ""
}

// Trace logs at TRACE level (very verbose, debug-time only)
func Trace(msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// TraceContext logs at TRACE level with context
func TraceContext(ctx context.Context, msg string, args ...any) {
	logger.Log(ctx, LevelTrace, msg, args...)
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// DebugContext logs at DEBUG level with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	logger.DebugContext(ctx, msg, args...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	logger.InfoContext(ctx, msg, args...)
}

// Warn logs at WARN level (should be monitored)
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// WarnContext logs at WARN level with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	logger.WarnContext(ctx, msg, args...)
}

// Error logs at ERROR level (logical bugs that shouldn't happen)
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	logger.ErrorContext(ctx, msg, args...)
}
