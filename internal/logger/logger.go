package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// New builds the process logger. Every record carries the service name and hostname.
func New(service string, jsonOut bool, level string) *slog.Logger {
	return NewWithWriter(os.Stdout, service, jsonOut, level)
}

func NewWithWriter(w io.Writer, service string, jsonOut bool, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if jsonOut {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	hostname, _ := os.Hostname()
	return slog.New(h).With(
		slog.String("service", service),
		slog.String("hostname", hostname),
	)
}

func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

type requestIDKey struct{}

func GenerateRequestID() string {
	return uuid.NewString()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// FromContext returns l annotated with the request id carried by ctx. A nil l yields a discarding logger.
func FromContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	if l == nil {
		l = Discard()
	}
	if id := RequestID(ctx); id != "" {
		return l.With(slog.String("request_id", id))
	}
	return l
}
