package payment

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned when the gateway signature does not match
// the order and payment ids.
var ErrInvalidSignature = errors.New("invalid payment signature")

// Order is a checkout session opened with the gateway for one registration.
type Order struct {
	ID             string  `json:"order_id"`
	RegistrationID string  `json:"registration_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	CheckoutURL    string  `json:"checkout_url"`
}

// Provider is a payment gateway.
type Provider interface {
	Name() string
	// CreateOrder opens a checkout for the given amount.
	CreateOrder(ctx context.Context, registrationID string, amount float64, currency string) (*Order, error)
	// VerifyPayment checks the signature the gateway returned to the client
	// after checkout.
	VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error
}
