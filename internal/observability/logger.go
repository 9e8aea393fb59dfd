package observability

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKey struct{}

var nop = zap.NewNop()

// NewLogger builds the process logger. Production output is JSON with Cloud Logging field
// names; dev mode switches to a coloured console encoder. Unknown levels mean info.
func NewLogger(level string, dev bool) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(strings.TrimSpace(level)); err == nil {
		lvl = parsed
	}

	enc := zap.NewProductionEncoderConfig()
	enc.MessageKey = "message"
	enc.TimeKey = "timestamp"
	enc.LevelKey = "severity"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder

	encoding := "json"
	if dev {
		encoding = "console"
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	}

	return zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		Development:       dev,
		Encoding:          encoding,
		EncoderConfig:     enc,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !dev,
	}.Build()
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, OrNop(logger))
}

// FromContext returns the request logger, or a no-op logger outside a request.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
			return logger
		}
	}
	return nop
}

// OrNop returns logger, or the shared no-op logger when logger is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return nop
	}
	return logger
}
