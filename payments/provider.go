package payments

import "context"

// Metadata keys attached to checkout sessions, echoed back on the
// subscriptions the provider creates from them.
const (
	MetadataTenancyID      = "tenancy_id"
	MetadataBillableEntity = "billable_entity_id"
	MetadataPricingModelID = "pricing_model_id"
)

// Subscription is the provider's record of a recurring purchase.
type Subscription struct {
	ID       string
	Current  bool
	Metadata map[string]string
}

// CheckoutParams describes the hosted checkout page to create.
type CheckoutParams struct {
	ProductName        string
	PriceUSD           float64
	CustomerExternalID string
	SuccessURL         string
	CancelURL          string
	Metadata           map[string]string
}

// Provider is the payments backend for a single project, authenticated with
// that project's secret API key.
type Provider interface {
	// CreateCheckoutSession creates a hosted checkout page and returns its URL.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)

	// ListSubscriptions returns every subscription the provider holds for the
	// project, current or not.
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
}

// ProviderFactory constructs a Provider from a project's secret API key.
type ProviderFactory func(secretAPIKey string) Provider
