package payment

import "fmt"

// NewProvider returns the gateway named by provider.
func NewProvider(provider, secret, baseURL string) (Provider, error) {
	switch provider {
	case "", "stub":
		return NewStub(secret, baseURL), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", provider)
	}
}
