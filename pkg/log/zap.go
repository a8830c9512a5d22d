package log

import (
	"context"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	l *zap.SugaredLogger
}

// NewZapLogger returns a Logger emitting zap JSON lines to w.
func NewZapLogger(w io.Writer, level Level) Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.MessageKey = "message"
	encCfg.LevelKey = "severity"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(toZapLevel(level)),
	)
	return &zapLogger{l: zap.New(core).Sugar()}
}

func toZapLevel(level Level) zapcore.Level {
	switch {
	case level <= LevelDebug:
		return zapcore.DebugLevel
	case level <= LevelInfo:
		return zapcore.InfoLevel
	case level <= LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func (z *zapLogger) Debug(msg string, fields ...any) { z.l.Debugw(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...any)  { z.l.Infow(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...any)  { z.l.Warnw(msg, fields...) }

func (z *zapLogger) Error(msg string, fields ...any) {
	err, rest := splitError(fields)
	if err != nil {
		rest = append([]any{zap.Error(err)}, rest...)
		if st := extractStacktrace(err); st != "" {
			rest = append(rest, StacktraceAttrKey, st)
		}
	}
	z.l.Errorw(msg, rest...)
}

func (z *zapLogger) With(fields ...any) Logger {
	return &zapLogger{l: z.l.With(fields...)}
}

func (z *zapLogger) Enabled(_ context.Context, level Level) bool {
	return z.l.Desugar().Core().Enabled(toZapLevel(level))
}
