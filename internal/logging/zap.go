package logging

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap.SugaredLogger to Logger. Key-value args are passed
// through as zap's loosely typed fields.
type ZapLogger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// NewZapLogger builds a zap logger for the given level ("debug", "info", ...)
// and environment. "prod" selects the JSON production encoder, anything else
// the development console encoder. An unknown level falls back to info.
func NewZapLogger(level, env string) (*ZapLogger, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	var cfg zap.Config
	if strings.ToLower(env) == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel), zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return FromZap(base, lvl), nil
}

// FromZap wraps an existing zap logger.
func FromZap(base *zap.Logger, level zap.AtomicLevel) *ZapLogger {
	return &ZapLogger{base: base, sugar: base.Sugar(), level: level}
}

func (z *ZapLogger) Debug(_ context.Context, msg string, args ...any) {
	z.sugar.Debugw(msg, args...)
}

func (z *ZapLogger) Info(_ context.Context, msg string, args ...any) {
	z.sugar.Infow(msg, args...)
}

func (z *ZapLogger) Warn(_ context.Context, msg string, args ...any) {
	z.sugar.Warnw(msg, args...)
}

func (z *ZapLogger) Error(_ context.Context, msg string, args ...any) {
	z.sugar.Errorw(msg, args...)
}

func (z *ZapLogger) With(args ...any) Logger {
	sugar := z.sugar.With(args...)
	return &ZapLogger{base: sugar.Desugar(), sugar: sugar, level: z.level}
}

// SetLevel changes the level at runtime.
func (z *ZapLogger) SetLevel(level string) error {
	return z.level.UnmarshalText([]byte(strings.ToLower(level)))
}

// Sync flushes buffered entries; call it on shutdown.
func (z *ZapLogger) Sync() {
	_ = z.base.Sync()
}
