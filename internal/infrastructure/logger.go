// Package infrastructure provides process-wide plumbing: the structured
// logger and trace-id context propagation.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gaitkit/internal/config"
)

var (
	setupOnce sync.Once
	procLog   *slog.Logger

	logFileMu sync.Mutex
	logFile   *os.File
)

type contextKey string

// TraceIDContextKey carries the per-run trace id through a context.
const TraceIDContextKey contextKey = "trace_id"

// InitializeLogger builds the process logger from the logging configuration,
// installs it as the slog default, and returns it. Only the first call does
// any work; later calls return the already-installed logger. Output is JSON;
// every record carries the context trace id when one is set.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	setupOnce.Do(func() {
		var sink io.Writer
		sink, err = resolveSink(cfg)
		if err != nil {
			return
		}
		base := slog.NewJSONHandler(sink, &slog.HandlerOptions{
			AddSource: true,
			Level:     parseLogLevel(cfg.Level),
		})
		procLog = slog.New(&ctxHandler{next: base})
		slog.SetDefault(procLog)
	})
	if err != nil {
		return nil, err
	}
	return GetLogger(), nil
}

// GetLogger returns the process logger, or slog's default before
// InitializeLogger has run.
func GetLogger() *slog.Logger {
	if procLog == nil {
		return slog.Default()
	}
	return procLog
}

// resolveSink maps the configured output mode onto a writer, opening the
// log file when the mode needs one.
func resolveSink(cfg config.LoggingConfig) (io.Writer, error) {
	mode := strings.ToLower(cfg.Output)
	if mode != "file" && mode != "both" {
		return os.Stdout, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", cfg.FilePath, err)
	}

	logFileMu.Lock()
	logFile = file
	logFileMu.Unlock()

	if mode == "both" {
		return io.MultiWriter(os.Stdout, file), nil
	}
	return file, nil
}

// ctxHandler decorates a handler so records pick up the trace id of the
// context they were logged under.
type ctxHandler struct {
	next slog.Handler
}

func (h *ctxHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.next.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{next: h.next.WithGroup(name)}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithTraceID returns a context carrying the given trace id.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the context's trace id, or "" when none is set.
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDContextKey).(string)
	return id
}

// LoggerFromContext returns the process logger bound to the context's trace
// id, for call sites that attach attributes before logging.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if id := GetTraceID(ctx); id != "" {
		return logger.With("trace_id", id)
	}
	return logger
}

// CloseLogFile closes the log file if one was opened. Called at shutdown.
func CloseLogFile() error {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// ResetLoggerForTesting clears the installed logger so a test can run
// InitializeLogger again with different configuration.
func ResetLoggerForTesting() {
	CloseLogFile()
	procLog = nil
	setupOnce = sync.Once{}
}
