package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	ImageURL  *string         `db:"image_url" json:"imageUrl,omitempty"`
	InStock   bool            `db:"in_stock" json:"inStock"`
	Category  string          `db:"category" json:"category"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

type Cart struct {
	ID     string     `db:"id" json:"id"`
	UserID string     `db:"user_id" json:"userId"`
	Items  []CartItem `db:"-" json:"items"`
}

// CartItem is unique per (cart, product); adds increment Quantity.
type CartItem struct {
	ID        string  `db:"id" json:"id"`
	CartID    string  `db:"cart_id" json:"cartId"`
	ProductID string  `db:"product_id" json:"productId"`
	Quantity  int     `db:"quantity" json:"quantity"`
	Product   Product `db:"product" json:"product"`
}

type DiscountCode struct {
	Code       string          `db:"code" json:"code"`
	Percentage decimal.Decimal `db:"percentage" json:"percentage"`
	ExpiresAt  *time.Time      `db:"expires_at" json:"expiresAt,omitempty"`
}

// Valid reports whether the code can still be redeemed at now.
func (d DiscountCode) Valid(now time.Time) bool {
	return d.ExpiresAt == nil || d.ExpiresAt.After(now)
}

type DeliveryType string

const (
	DeliveryPickup   DeliveryType = "PICKUP"
	DeliveryDelivery DeliveryType = "DELIVERY"
)

// ParseDeliveryType accepts either type in any letter case.
func ParseDeliveryType(s string) (DeliveryType, error) {
	switch DeliveryType(strings.ToUpper(strings.TrimSpace(s))) {
	case DeliveryPickup:
		return DeliveryPickup, nil
	case DeliveryDelivery:
		return DeliveryDelivery, nil
	}
	return "", Invalid("deliveryType must be PICKUP or DELIVERY")
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Known() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type Order struct {
	ID                string          `db:"id" json:"id"`
	UserID            string          `db:"user_id" json:"userId"`
	SubtotalAmount    decimal.Decimal `db:"subtotal_amount" json:"subtotalAmount"`
	TaxAmount         decimal.Decimal `db:"tax_amount" json:"taxAmount"`
	DiscountAmount    decimal.Decimal `db:"discount_amount" json:"discountAmount"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"totalAmount"`
	DiscountCode      *string         `db:"discount_code" json:"discountCode,omitempty"`
	DeliveryType      DeliveryType    `db:"delivery_type" json:"deliveryType"`
	Status            OrderStatus     `db:"status" json:"status"`
	ShippingAddressID *string         `db:"shipping_address_id" json:"shippingAddressId,omitempty"`
	PaymentSessionID  *string         `db:"payment_session_id" json:"paymentSessionId,omitempty"`
	// FromCart is set when the lines came from the stored cart.
	FromCart          bool            `db:"from_cart" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"orderDate"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`

	Items           []OrderItem `db:"-" json:"orderItems"`
	ShippingAddress *Address    `db:"-" json:"shippingAddress,omitempty"`
}

// OrderItem snapshots the unit price at purchase time; it is never updated.
type OrderItem struct {
	ID              string          `db:"id" json:"id"`
	OrderID         string          `db:"order_id" json:"orderId"`
	ProductID       string          `db:"product_id" json:"productId"`
	Quantity        int             `db:"quantity" json:"quantity"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase" json:"priceAtPurchase"`
	Product         Product         `db:"product" json:"product"`
}

type Address struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Street    string    `db:"street" json:"street"`
	City      string    `db:"city" json:"city"`
	State     string    `db:"state" json:"state"`
	ZipCode   string    `db:"zip_code" json:"zipCode"`
	IsDefault bool      `db:"is_default" json:"isDefault"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Category is a catalog grouping derived from product rows.
type Category struct {
	Name         string `db:"name" json:"name"`
	ProductCount int    `db:"product_count" json:"productCount"`
	InStockCount int    `db:"in_stock_count" json:"inStockCount"`
}
