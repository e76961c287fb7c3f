package zaplogger

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
)

type logger struct{ l *zap.Logger }

// New adapts a zap logger built by logging.NewLogger to the observability.Logger port.
func New(base *zap.Logger, fixed ...observability.Field) observability.Logger {
	if base == nil {
		base = zap.L()
	}
	return &logger{l: base.With(fields(fixed)...)}
}

func (z *logger) With(fs ...observability.Field) observability.Logger {
	if len(fs) == 0 {
		return z
	}
	return &logger{l: z.l.With(fields(fs)...)}
}

func (z *logger) Debug(msg string, fs ...observability.Field) { z.l.Debug(msg, fields(fs)...) }
func (z *logger) Info(msg string, fs ...observability.Field)  { z.l.Info(msg, fields(fs)...) }
func (z *logger) Warn(msg string, fs ...observability.Field)  { z.l.Warn(msg, fields(fs)...) }
func (z *logger) Error(msg string, fs ...observability.Field) { z.l.Error(msg, fields(fs)...) }

func (z *logger) Sync() error {
	return z.l.Sync()
}

// fields maps port fields onto typed zap fields. Quantities and amounts
// (decimal.Decimal is a Stringer) are logged in their string form so they
// keep their precision in JSON output.
func fields(fs []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fs))
	for _, f := range fs {
		switch v := f.Value.(type) {
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		case string:
			out = append(out, zap.String(f.Key, v))
		case int:
			out = append(out, zap.Int(f.Key, v))
		case int64:
			out = append(out, zap.Int64(f.Key, v))
		case bool:
			out = append(out, zap.Bool(f.Key, v))
		case time.Duration:
			out = append(out, zap.Duration(f.Key, v))
		case time.Time:
			out = append(out, zap.Time(f.Key, v))
		case fmt.Stringer:
			out = append(out, zap.Stringer(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}
