package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	mlerrors "github.com/mibench/mibench/pkg/errors"
)

// ErrFmtHandler is a slog handler that enriches records carrying an error
// attribute with the cockroachdb/errors stacktrace and the mibench error type.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with an ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{
		handler: handler,
	}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == ErrAttrKey {
			err, _ = attr.Value.Any().(error)
			return false
		}
		return true
	})
	if err == nil {
		return eh.handler.Handle(ctx, r)
	}
	r.AddAttrs(slog.String(ErrorTypeKey, errorType(err)))
	if stacktrace := extractStacktrace(err); stacktrace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, stacktrace))
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

// extractStacktrace returns the first safe detail recorded by errors.WithStack.
func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

// errorType names the first mibench error or warning type, in the order
// below, found in err's chain.
func errorType(err error) string {
	switch {
	case errors.HasType(err, (*mlerrors.InputShapeError)(nil)):
		return "InputShapeError"
	case errors.HasType(err, (*mlerrors.ConfigurationError)(nil)):
		return "ConfigurationError"
	case errors.HasType(err, (*mlerrors.NotFittedError)(nil)):
		return "NotFittedError"
	case errors.HasType(err, (*mlerrors.DimensionError)(nil)):
		return "DimensionError"
	case errors.HasType(err, (*mlerrors.ValidationError)(nil)):
		return "ValidationError"
	case errors.HasType(err, (*mlerrors.ValueError)(nil)):
		return "ValueError"
	case errors.HasType(err, (*mlerrors.ModelError)(nil)):
		return "ModelError"
	case errors.HasType(err, (*mlerrors.NumericalInstabilityError)(nil)):
		return "NumericalInstabilityError"
	case errors.HasType(err, (*mlerrors.PanicError)(nil)):
		return "PanicError"
	case errors.HasType(err, (*mlerrors.ConvergenceWarning)(nil)):
		return "ConvergenceWarning"
	case errors.HasType(err, (*mlerrors.UndefinedMetricWarning)(nil)):
		return "UndefinedMetricWarning"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Canceled"
	default:
		return "Error"
	}
}
