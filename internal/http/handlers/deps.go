package handlers

import (
	"github.com/redis/go-redis/v9"

	"freshmart/internal/config"
	"freshmart/internal/payments"
	"freshmart/internal/repos"
	"freshmart/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler     *AuthHandler
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
	AddressHandler  *AddressHandler
	OrderHandler    *OrderHandler
	WebhookHandler  *WebhookHandler
	DiscountHandler *DiscountHandler
	AdminHandler    *AdminHandler
}

// Collaborators are the outside systems the handlers reach through services.
// Redis is optional.
type Collaborators struct {
	Gateway  payments.Gateway
	Webhooks payments.WebhookVerifier
	Redis    *redis.Client
}

func NewDeps(store *repos.Store, cfg *config.Config, ext Collaborators) *Deps {
	var products services.ProductReader = store.Products
	if ext.Redis != nil {
		products = services.NewCachedProducts(store.Products, ext.Redis)
	}

	authSvc := services.NewAuthService(store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	catalogSvc := services.NewCatalogService(store, products)
	cartSvc := services.NewCartService(store, products)
	orderSvc := services.NewOrderService(store, cfg.Kafka.Topic)
	checkoutSvc := &services.CheckoutService{
		Orders:   orderSvc,
		Gateway:  ext.Gateway,
		BaseURL:  cfg.HTTP.BaseURL,
		Currency: cfg.Stripe.Currency,
	}
	paymentSvc := &services.PaymentService{Store: store, Verifier: ext.Webhooks, Topic: cfg.Kafka.Topic}

	return &Deps{
		Auth:            authSvc,
		AuthHandler:     &AuthHandler{Auth: authSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc},
		AddressHandler:  &AddressHandler{Addresses: &services.AddressService{Store: store}},
		OrderHandler:    &OrderHandler{Orders: orderSvc, Checkout: checkoutSvc},
		WebhookHandler:  &WebhookHandler{Payments: paymentSvc},
		DiscountHandler: &DiscountHandler{Discounts: services.NewDiscountService(store)},
		AdminHandler:    &AdminHandler{Admin: &services.AdminService{Store: store, Topic: cfg.Kafka.Topic}},
	}
}
