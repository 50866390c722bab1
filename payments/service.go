package payments

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tessera-id/tessera/apierr"
)

// ErrPaymentsNotEnabled is returned when a project has no payments
// configuration.
var ErrPaymentsNotEnabled = &apierr.StatusError{
	Status:  http.StatusBadRequest,
	ErrCode: apierr.CodePaymentsOff,
	Message: "Payments are not enabled for this project.",
}

// ErrPricingModelNotFound is returned when a pricing model id is not in the
// project's configuration.
var ErrPricingModelNotFound = &apierr.StatusError{
	Status:  http.StatusNotFound,
	ErrCode: apierr.CodePricingMissing,
	Message: "Pricing model not found.",
}

// ErrItemNotFound is returned when an item id is not in the project's
// configuration.
var ErrItemNotFound = &apierr.StatusError{
	Status:  http.StatusNotFound,
	ErrCode: apierr.CodeItemNotFound,
	Message: "Item ID not found.",
}

// ItemStatus reports the aggregate quantity of an item a billable entity
// currently holds across its subscriptions.
type ItemStatus struct {
	ID       string
	Name     string
	Quantity int
}

type project struct {
	config   ProjectConfig
	provider Provider
}

// Service answers purchase-URL and item-quantity requests for the projects
// payments are configured for. Providers are constructed once per project at
// startup, so the service is safe for concurrent use.
type Service struct {
	projects   map[string]project
	successURL string
	cancelURL  string
	logger     zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithReturnURLs sets the pages the hosted checkout redirects to.
func WithReturnURLs(successURL, cancelURL string) ServiceOption {
	return func(s *Service) {
		s.successURL = successURL
		s.cancelURL = cancelURL
	}
}

// NewService wires each configured project to a provider created by factory.
func NewService(cfg *Config, factory ProviderFactory, logger zerolog.Logger, opts ...ServiceOption) *Service {
	service := &Service{
		projects:   make(map[string]project),
		successURL: "https://example.com/purchase/success",
		cancelURL:  "https://example.com/purchase/cancel",
		logger:     logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	for _, projectID := range cfg.ProjectIDs() {
		projectCfg, _ := cfg.Project(projectID)
		service.projects[projectID] = project{
			config:   projectCfg,
			provider: factory(projectCfg.APIKeys.Secret),
		}
	}
	return service
}

// CreatePurchaseURL creates a hosted checkout page for a pricing model and
// returns its URL.
func (s *Service) CreatePurchaseURL(ctx context.Context, projectID, tenancyID, billableEntityID, pricingModelID string) (string, error) {
	proj, ok := s.projects[projectID]
	if !ok {
		return "", ErrPaymentsNotEnabled
	}
	model, ok := proj.config.PricingModelConfigs[pricingModelID]
	if !ok {
		return "", ErrPricingModelNotFound
	}

	checkoutURL, err := proj.provider.CreateCheckoutSession(ctx, CheckoutParams{
		ProductName:        model.Name,
		PriceUSD:           model.PriceUSD,
		CustomerExternalID: fmt.Sprintf("%s-%s", tenancyID, billableEntityID),
		SuccessURL:         s.successURL,
		CancelURL:          s.cancelURL,
		Metadata: map[string]string{
			MetadataTenancyID:      tenancyID,
			MetadataBillableEntity: billableEntityID,
			MetadataPricingModelID: pricingModelID,
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "[Service.CreatePurchaseURL]")
	}
	return checkoutURL, nil
}

// ItemQuantity sums the quantities of an item granted by the billable
// entity's current subscriptions. Subscriptions whose pricing model has since
// been removed from the configuration are skipped.
func (s *Service) ItemQuantity(ctx context.Context, projectID, billableEntityID, itemID string) (ItemStatus, error) {
	proj, ok := s.projects[projectID]
	if !ok {
		return ItemStatus{}, ErrPaymentsNotEnabled
	}
	item, ok := proj.config.ItemConfigs[itemID]
	if !ok {
		return ItemStatus{}, ErrItemNotFound
	}

	subscriptions, err := proj.provider.ListSubscriptions(ctx)
	if err != nil {
		return ItemStatus{}, errors.Wrap(err, "[Service.ItemQuantity] list subscriptions")
	}

	quantity := 0
	for _, sub := range subscriptions {
		if !sub.Current {
			continue
		}
		if sub.Metadata[MetadataBillableEntity] != billableEntityID {
			continue
		}
		modelID := sub.Metadata[MetadataPricingModelID]
		model, ok := proj.config.PricingModelConfigs[modelID]
		if !ok {
			s.logger.Warn().
				Str("subscriptionId", sub.ID).
				Str("pricingModelId", modelID).
				Msg("subscription references a pricing model that is no longer configured, skipping")
			continue
		}
		for _, ref := range model.Items {
			if ref.ItemConfigID == itemID {
				quantity += ref.Quantity
			}
		}
	}

	return ItemStatus{ID: itemID, Name: item.Name, Quantity: quantity}, nil
}

// Enabled reports whether payments are configured for a project.
func (s *Service) Enabled(projectID string) bool {
	_, ok := s.projects[projectID]
	return ok
}
