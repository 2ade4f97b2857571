// Package logging sets up structured logging with log/slog: text on the
// console, JSON in weekly rotating files.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures InitLogger
type Options struct {
	// Empty LogDir disables the file sink
	LogDir         string
	Level          string
	RetentionWeeks int
	MaxFileSize    int64
}

type LoggingService struct {
	Logger *slog.Logger
	writer *RotatingWriter
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance
func InitLogger(opts Options) {
	DefaultLoggingService = NewLoggingService(opts)
	slog.SetDefault(DefaultLoggingService.Logger)
}

// NewLoggingService builds a logger writing to stdout and, when LogDir is set,
// to a rotating file
func NewLoggingService(opts Options) *LoggingService {
	level := ParseLevel(opts.Level)
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	}

	service := &LoggingService{}

	if opts.LogDir != "" {
		retention := opts.RetentionWeeks
		if retention <= 0 {
			retention = 4
		}
		writer, err := NewRotatingWriter(opts.LogDir, retention, opts.MaxFileSize)
		if err != nil {
			slog.New(handlers[0]).Error("Failed to initialize rotating logger", "error", err)
		} else {
			service.writer = writer
			handlers = append(handlers, slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level}))
		}
	}

	service.Logger = slog.New(&multiHandler{handlers: handlers})
	return service
}

// NewDiscardLogger returns a logger that drops everything (for tests)
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Close releases the log file, if any
func (s *LoggingService) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

// ParseLevel maps debug, info, warn and error to slog levels; anything else is info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the global logger, or a console logger before InitLogger
func Default() *slog.Logger {
	return logger()
}

func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		// not initialized yet: console only
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

// multiHandler fans records out to several handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
