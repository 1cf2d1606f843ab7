package log

import (
	"context"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

func init() { current.Store(zap.NewNop()) }

// New builds the process logger: JSON production output in prod, console otherwise.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// SetLogger replaces the logger used by the helpers below.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	current.Store(l)
}

func L() *zap.Logger { return current.Load() }

func requestFields(c *fiber.Ctx, action string, fields []zap.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+8)
	out = append(out, zap.String("action", action))
	if c != nil {
		out = append(out,
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			out = append(out, zap.String("req_id", rid))
		}
		if uid, ok := c.Locals("userID").(string); ok && uid != "" {
			out = append(out, zap.String("user_id", uid))
		}
		out = appendTrace(c.UserContext(), out)
	}
	return append(out, fields...)
}

func appendTrace(ctx context.Context, fields []zap.Field) []zap.Field {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return fields
	}
	return append(fields,
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

func Info(c *fiber.Ctx, action string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Info(action, requestFields(c, action, fields)...)
}

// Audit records a state change made on behalf of a user.
func Audit(c *fiber.Ctx, action string, fields ...zap.Field) {
	fields = append(fields, zap.Bool("audit", true))
	L().WithOptions(zap.AddCallerSkip(1)).Info(action, requestFields(c, action, fields)...)
}

func Security(c *fiber.Ctx, action string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Warn(action, requestFields(c, action, fields)...)
}

func Error(c *fiber.Ctx, action string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	L().WithOptions(zap.AddCallerSkip(1)).Error(action, requestFields(c, action, fields)...)
}

// The Ctx variants serve code that runs outside a request, like background workers.

func InfoCtx(ctx context.Context, action string, fields ...zap.Field) {
	fields = appendTrace(ctx, append(fields, zap.String("action", action)))
	L().WithOptions(zap.AddCallerSkip(1)).Info(action, fields...)
}

func WarnCtx(ctx context.Context, action string, fields ...zap.Field) {
	fields = appendTrace(ctx, append(fields, zap.String("action", action)))
	L().WithOptions(zap.AddCallerSkip(1)).Warn(action, fields...)
}

func ErrorCtx(ctx context.Context, action string, err error, fields ...zap.Field) {
	fields = appendTrace(ctx, append(fields, zap.String("action", action), zap.Error(err)))
	L().WithOptions(zap.AddCallerSkip(1)).Error(action, fields...)
}
