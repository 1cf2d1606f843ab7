package log

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })
	return logs
}

func TestRequestFieldsAreAttached(t *testing.T) {
	logs := observe(t)

	app := fiber.New()
	app.Get("/x", func(c *fiber.Ctx) error {
		c.Locals("requestid", "rid-1")
		c.Locals("userID", "u-1")
		Audit(c, "cart.add", zap.String("product_id", "p-1"))
		return c.SendStatus(fiber.StatusNoContent)
	})
	_, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)

	entries := logs.FilterMessage("cart.add").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "rid-1", ctx["req_id"])
	assert.Equal(t, "u-1", ctx["user_id"])
	assert.Equal(t, "GET", ctx["method"])
	assert.Equal(t, "/x", ctx["path"])
	assert.Equal(t, "p-1", ctx["product_id"])
	assert.Equal(t, true, ctx["audit"])
}

func TestErrorCtxLevel(t *testing.T) {
	logs := observe(t)
	ErrorCtx(context.Background(), "outbox.batch", errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("local", "loud")
	require.Error(t, err)

	l, err := New("prod", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
}
