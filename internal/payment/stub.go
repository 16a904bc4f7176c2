package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Stub is a local gateway that signs payments the way Razorpay-style
// gateways do: hex HMAC-SHA256 over "orderID|paymentID".
type Stub struct {
	secret  string
	baseURL string
}

var _ Provider = (*Stub)(nil)

// NewStub creates a stub gateway.
func NewStub(secret, baseURL string) *Stub {
	return &Stub{secret: secret, baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *Stub) Name() string { return "stub" }

func (p *Stub) CreateOrder(ctx context.Context, registrationID string, amount float64, currency string) (*Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %.2f", amount)
	}
	id := "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	checkout := "/pay/stub?order_id=" + url.QueryEscape(id)
	if p.baseURL != "" {
		checkout = p.baseURL + checkout
	}
	log.Debug("Created stub payment order", "orderID", id, "registrationID", registrationID, "amount", amount)
	return &Order{ID: id, RegistrationID: registrationID, Amount: amount, Currency: currency, CheckoutURL: checkout}, nil
}

func (p *Stub) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error {
	if signature == "" || !hmac.Equal([]byte(signature), []byte(p.Sign(orderID, paymentID))) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the signature the gateway hands to the client for a payment.
func (p *Stub) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
