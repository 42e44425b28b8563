package logging

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel maps debug, info, warn and error (case-insensitive) to a LogLevel.
func ParseLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, true
	case "info":
		return LogLevelInfo, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "error":
		return LogLevelError, true
	default:
		return LogLevelInfo, false
	}
}

// Logger defines the minimal logging interface for agentjury.
// This allows users to provide their own logger implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// With returns a Logger that attaches args to every record.
func (s *SlogAdapter) With(args ...any) Logger { return &SlogAdapter{Logger: s.Logger.With(args...)} }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// Options configures construction of a slog backed Logger.
type Options struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	// SampleRate is the probability in (0,1] that a record below error level
	// is written. Zero disables sampling. Errors are always written.
	SampleRate float64
	// Service, when set, is attached to every record as "service".
	Service string
}

// DefaultOptions returns a baseline JSON info level configuration without sampling.
func DefaultOptions() Options {
	return Options{Level: LogLevelInfo, Format: "json", Output: os.Stdout, SampleRate: 1}
}

// New builds a slog backed Logger from opts.
func New(opts Options) Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	hopts := &slog.HandlerOptions{Level: slogLevel(opts.Level), AddSource: opts.AddSource}
	var handler slog.Handler
	if opts.Format == "text" {
		handler = slog.NewTextHandler(opts.Output, hopts)
	} else {
		handler = slog.NewJSONHandler(opts.Output, hopts)
	}
	if opts.SampleRate > 0 && opts.SampleRate < 1 {
		handler = &samplingHandler{next: handler, rate: clamp(opts.SampleRate, 0, 1), sample: rand.Float64}
	}
	l := slog.New(handler)
	if opts.Service != "" {
		l = l.With("service", opts.Service)
	}
	return NewSlogAdapter(l)
}

// NewSlogLogger creates a Logger writing to stdout with the given level and format.
func NewSlogLogger(level LogLevel, format string, addSource bool) Logger {
	opts := DefaultOptions()
	opts.Level = level
	if format != "" {
		opts.Format = format
	}
	opts.AddSource = addSource
	return New(opts)
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// samplingHandler forwards error records unconditionally and other records
// with probability rate.
type samplingHandler struct {
	next   slog.Handler
	rate   float64
	sample func() float64
}

func (h *samplingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *samplingHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < slog.LevelError && h.sample() > h.rate {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *samplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &samplingHandler{next: h.next.WithAttrs(attrs), rate: h.rate, sample: h.sample}
}

func (h *samplingHandler) WithGroup(name string) slog.Handler {
	return &samplingHandler{next: h.next.WithGroup(name), rate: h.rate, sample: h.sample}
}

// DefaultTruncateLength is the preview length used when none is configured.
const DefaultTruncateLength = 200

// Truncate shortens s to at most max runes followed by an ellipsis. max is
// clamped to [50,1000]; zero selects DefaultTruncateLength.
func Truncate(s string, max int) string {
	if max == 0 {
		max = DefaultTruncateLength
	}
	max = int(clamp(float64(max), 50, 1000))
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "…"
}

// Preview shortens s to exactly n runes plus an ellipsis without clamping.
func Preview(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

// LogWorkerCall records latency, token usage and outcome of a worker call.
func LogWorkerCall(l Logger, label, model string, tokens int, dur time.Duration, err error) {
	if err != nil {
		l.Error("worker.failed", "worker", label, "model", model, "durationMs", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Debug("worker.call", "worker", label, "model", model, "tokens", tokens, "durationMs", dur.Milliseconds())
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// With returns the receiver.
func (n NoOpLogger) With(...any) Logger { return n }
