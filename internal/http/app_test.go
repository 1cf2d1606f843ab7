package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"freshmart/internal/config"
	"freshmart/internal/http/handlers"
	applog "freshmart/internal/log"
	"freshmart/internal/payments"
	"freshmart/internal/repos"
)

const webhookSecret = "whsec_test"

type fakeGateway struct {
	mu   sync.Mutex
	err  error
	reqs []payments.CheckoutRequest
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return nil, g.err
	}
	return &payments.CheckoutSession{ID: "cs_test_" + req.OrderID, URL: "https://pay.example/" + req.OrderID}, nil
}

type testEnv struct {
	app   *fiber.App
	store *repos.Store
	gw    *fakeGateway
	logs  *observer.ObservedLogs
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	applog.SetLogger(zap.New(core))
	t.Cleanup(func() { applog.SetLogger(nil) })

	store, err := repos.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{
		HTTP:  config.HTTP{BaseURL: "http://shop.test"},
		Auth:  config.Auth{JWTSecret: "test-secret", TokenTTL: time.Hour},
		Kafka: config.Kafka{Topic: "orders"},
	}
	gw := &fakeGateway{}
	deps := handlers.NewDeps(store, cfg, handlers.Collaborators{
		Gateway:  gw,
		Webhooks: payments.StripeWebhooks{Secret: webhookSecret},
	})
	app := handlers.NewApp(deps, handlers.AppOptions{BodyLimit: 64 << 10})
	return &testEnv{app: app, store: store, gw: gw, logs: logs}
}

// do sends a JSON request and decodes a JSON response body into out when given.
func (e *testEnv) do(t *testing.T, method, path, token string, body any, out any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			r = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	var tok struct {
		Token string `json:"token"`
	}
	resp := e.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": email, "password": password}, &tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, tok.Token)
	return tok.Token
}

func (e *testEnv) shopper(t *testing.T) string {
	return e.login(t, "shopper@freshmart.test", "Shopp3r!Passw0rd")
}

func (e *testEnv) admin(t *testing.T) string {
	return e.login(t, "admin@freshmart.test", "Adm1n!Passw0rd")
}

var (
	apples = repos.ProductID("Organic Apples")
	bread  = repos.ProductID("Artisan Bread")
)
