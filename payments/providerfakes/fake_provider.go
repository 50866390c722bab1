// Package providerfakes provides an in-memory payments provider for testing.
package providerfakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/tessera-id/tessera/payments"
)

// FakeProvider records checkout sessions and serves a canned subscription
// list.
type FakeProvider struct {
	mu            sync.RWMutex
	Checkouts     []payments.CheckoutParams
	Subscriptions []payments.Subscription
	CheckoutErr   error
	ListErr       error
}

var _ payments.Provider = (*FakeProvider)(nil)

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

// CreateCheckoutSession records the params and returns a synthetic URL.
func (f *FakeProvider) CreateCheckoutSession(_ context.Context, params payments.CheckoutParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CheckoutErr != nil {
		return "", f.CheckoutErr
	}
	f.Checkouts = append(f.Checkouts, params)
	return fmt.Sprintf("https://checkout.test/session/%d", len(f.Checkouts)), nil
}

// ListSubscriptions returns the configured subscription list.
func (f *FakeProvider) ListSubscriptions(_ context.Context) ([]payments.Subscription, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]payments.Subscription, len(f.Subscriptions))
	copy(out, f.Subscriptions)
	return out, nil
}
