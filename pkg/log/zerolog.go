package log

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	mlerrors "github.com/mibench/mibench/pkg/errors"
)

type zerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger returns a Logger emitting zerolog JSON lines to w.
func NewZerologLogger(w io.Writer, level Level) Logger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &zerologLogger{l: zl}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func (z *zerologLogger) Debug(msg string, fields ...any) {
	z.l.Debug().Fields(fields).Msg(msg)
}

func (z *zerologLogger) Info(msg string, fields ...any) {
	z.l.Info().Fields(fields).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, fields ...any) {
	z.l.Warn().Fields(fields).Msg(msg)
}

func (z *zerologLogger) Error(msg string, fields ...any) {
	err, rest := splitError(fields)
	ev := z.l.Error()
	if err != nil {
		ev = ev.Err(err)
		if obj, ok := err.(zerolog.LogObjectMarshaler); ok {
			ev = ev.Object("detail", obj)
		}
		if st := extractStacktrace(err); st != "" {
			ev = ev.Str(StacktraceAttrKey, st)
		}
	}
	ev.Fields(rest).Msg(msg)
}

func (z *zerologLogger) With(fields ...any) Logger {
	return &zerologLogger{l: z.l.With().Fields(fields).Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.l.GetLevel()
}

// InstallWarningSink routes errors.Warn through logger as structured warnings.
// Warnings implementing zerolog.LogObjectMarshaler keep their fields when the
// logger is zerolog-backed. Call the returned function to restore the default handler.
func InstallWarningSink(logger Logger) (restore func()) {
	if zl, ok := logger.(*zerologLogger); ok {
		mlerrors.SetZerologWarnFunc(func(w error) {
			ev := zl.l.Warn()
			if obj, ok := w.(zerolog.LogObjectMarshaler); ok {
				ev = ev.EmbedObject(obj)
			}
			ev.Msg(w.Error())
		})
	} else {
		mlerrors.SetZerologWarnFunc(func(w error) {
			logger.Warn(w.Error(), ErrorTypeKey, errorType(w))
		})
	}
	return func() { mlerrors.SetZerologWarnFunc(nil) }
}
