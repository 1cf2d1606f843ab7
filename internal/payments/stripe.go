package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

type StripeConfig struct {
	SecretKey string
	// Backend overrides the API endpoint; tests point it at a local server.
	Backend stripe.Backend
}

type StripeGateway struct {
	api *client.API
	cb  *gobreaker.CircuitBreaker
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	api := &client.API{}
	var backends *stripe.Backends
	if cfg.Backend != nil {
		backends = &stripe.Backends{API: cfg.Backend, Connect: cfg.Backend, Uploads: cfg.Backend}
	}
	api.Init(cfg.SecretKey, backends)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &StripeGateway{api: api, cb: cb}
}

func executeWithBreaker[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return *new(T), ErrUnavailable
	}
	if err != nil {
		return *new(T), fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return res.(T), nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	currency := req.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
		Metadata:          req.Metadata(),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata(),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey("checkout-" + req.OrderID)
	for _, l := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(l.Name),
				},
				UnitAmount: stripe.Int64(l.UnitAmount),
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	if req.DiscountAmount > 0 {
		coupon, err := executeWithBreaker(g.cb, func() (*stripe.Coupon, error) {
			cp := &stripe.CouponParams{
				AmountOff:      stripe.Int64(req.DiscountAmount),
				Currency:       stripe.String(currency),
				Duration:       stripe.String(string(stripe.CouponDurationOnce)),
				MaxRedemptions: stripe.Int64(1),
				Name:           stripe.String(req.DiscountCode),
			}
			cp.Context = ctx
			cp.SetIdempotencyKey("coupon-" + req.OrderID)
			return g.api.Coupons.New(cp)
		})
		if err != nil {
			return nil, err
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{Coupon: stripe.String(coupon.ID)}}
	}

	sess, err := executeWithBreaker(g.cb, func() (*stripe.CheckoutSession, error) {
		return g.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// StripeWebhooks verifies the Stripe-Signature header with the endpoint secret.
type StripeWebhooks struct {
	Secret string
}

func (w StripeWebhooks) ParseEvent(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, w.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type), Metadata: map[string]string{}}
	if ev.Data != nil && len(ev.Data.Raw) > 0 {
		var obj struct {
			Metadata map[string]string `json:"metadata"`
		}
		if err := json.Unmarshal(ev.Data.Raw, &obj); err == nil && obj.Metadata != nil {
			out.Metadata = obj.Metadata
		}
	}
	return out, nil
}
