package handlers_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"

	"freshmart/internal/payments"
)

func (e *testEnv) webhook(t *testing.T, payload, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func sign(payload string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	}).Header
}

func sessionCompleted(orderID string) string {
	return fmt.Sprintf(`{"id":"evt_%[1]s","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_test_%[1]s","object":"checkout.session","metadata":{"orderId":"%[1]s"}}}}`, orderID)
}

type orderJSON struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	TotalAmount string `json:"totalAmount"`
	OrderItems  []struct {
		Quantity        int    `json:"quantity"`
		PriceAtPurchase string `json:"priceAtPurchase"`
	} `json:"orderItems"`
	ShippingAddress *struct {
		Street string `json:"street"`
	} `json:"shippingAddress"`
}

type cartJSON struct {
	Items []struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
}

func TestCheckoutThenWebhook(t *testing.T) {
	e := newEnv(t)
	token := e.shopper(t)

	resp := e.do(t, http.MethodPost, "/api/cart", token, map[string]any{"productId": apples, "quantity": 2}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.do(t, http.MethodPost, "/api/cart", token, map[string]any{"productId": bread, "quantity": 1}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var started struct {
		URL       string `json:"url"`
		OrderID   string `json:"orderId"`
		SessionID string `json:"sessionId"`
	}
	resp = e.do(t, http.MethodPost, "/api/checkout", token, map[string]any{"deliveryType": "PICKUP", "discountCode": "SAVE10"}, &started)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, started.OrderID)
	assert.Equal(t, "https://pay.example/"+started.OrderID, started.URL)
	require.Len(t, e.gw.reqs, 1)
	assert.Equal(t, "http://shop.test/checkout-cancelled", e.gw.reqs[0].CancelURL)

	var cart cartJSON
	e.do(t, http.MethodGet, "/api/cart", token, nil, &cart)
	assert.Len(t, cart.Items, 2, "cart is kept until payment is confirmed")

	payload := sessionCompleted(started.OrderID)
	resp = e.webhook(t, payload, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = e.webhook(t, payload, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.webhook(t, payload, sign(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.webhook(t, payload, sign(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var o orderJSON
	resp = e.do(t, http.MethodGet, "/api/orders/"+started.OrderID, token, nil, &o)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PROCESSING", o.Status)
	assert.Equal(t, "10.55", o.TotalAmount)
	assert.Len(t, o.OrderItems, 2)

	cart = cartJSON{}
	e.do(t, http.MethodGet, "/api/cart", token, nil, &cart)
	assert.Empty(t, cart.Items)

	assert.Equal(t, 1, e.logs.FilterMessage("webhook.order_paid").Len())
	assert.Equal(t, 2, e.logs.FilterMessage("webhook.rejected").Len()+e.logs.FilterMessage("webhook.signature.missing").Len())
}

func TestWebhookUnknownOrder(t *testing.T) {
	e := newEnv(t)
	payload := sessionCompleted("does-not-exist")
	resp := e.webhook(t, payload, sign(payload))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	other := `{"id":"evt_x","object":"event","type":"invoice.created","data":{"object":{"id":"in_1","object":"invoice"}}}`
	resp = e.webhook(t, other, sign(other))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCheckoutGatewayFailures(t *testing.T) {
	e := newEnv(t)
	token := e.shopper(t)
	e.do(t, http.MethodPost, "/api/cart", token, map[string]any{"productId": apples, "quantity": 1}, nil)

	e.gw.err = payments.ErrGateway
	var body map[string]string
	resp := e.do(t, http.MethodPost, "/api/checkout", token, map[string]any{"deliveryType": "PICKUP"}, &body)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.NotContains(t, body["error"], "stripe")

	e.gw.err = payments.ErrUnavailable
	resp = e.do(t, http.MethodPost, "/api/checkout", token, map[string]any{"deliveryType": "PICKUP"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var orders []orderJSON
	e.do(t, http.MethodGet, "/api/orders", token, nil, &orders)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, "CANCELLED", o.Status)
	}
}

func TestPlaceOrderOverHTTP(t *testing.T) {
	e := newEnv(t)
	token := e.shopper(t)

	resp := e.do(t, http.MethodPost, "/api/orders", token, map[string]any{"deliveryType": "PICKUP"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "empty cart")

	resp = e.do(t, http.MethodPost, "/api/orders", token, `{"deliveryType":`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"deliveryType": "DELIVERY",
		"cartItems":    []map[string]any{{"productId": apples, "quantity": 1}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "delivery without address")

	var addr struct {
		ID string `json:"id"`
	}
	resp = e.do(t, http.MethodPost, "/api/address", token, map[string]any{
		"street": "5 Market St", "city": "Austin", "state": "TX", "zipCode": "73301",
	}, &addr)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var o orderJSON
	resp = e.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"deliveryType":      "DELIVERY",
		"shippingAddressId": addr.ID,
		"cartItems":         []map[string]any{{"productId": apples, "quantity": 3, "priceAtPurchase": "0.01"}},
	}, &o)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, o.OrderItems, 1)
	assert.Equal(t, "3.99", o.OrderItems[0].PriceAtPurchase)
	assert.Equal(t, 1, e.logs.FilterMessage("order.price_mismatch").Len())

	var list []orderJSON
	e.do(t, http.MethodGet, "/api/orders?sortBy=total&order=asc", token, nil, &list)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ShippingAddress)
	assert.Equal(t, "5 Market St", list[0].ShippingAddress.Street)

	adminToken := e.admin(t)
	resp = e.do(t, http.MethodGet, "/api/orders/"+o.ID, adminToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
