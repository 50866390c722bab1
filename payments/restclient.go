package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const defaultBaseURL = "https://app.flowglad.com/api/v1"

// RESTClient is a Provider backed by the payment provider's REST API.
type RESTClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// RESTClientOption configures a RESTClient.
type RESTClientOption func(*RESTClient)

// WithBaseURL overrides the provider API base URL.
func WithBaseURL(baseURL string) RESTClientOption {
	return func(c *RESTClient) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) RESTClientOption {
	return func(c *RESTClient) { c.httpClient = httpClient }
}

// NewRESTClient creates a client authenticated with a project's secret API
// key.
func NewRESTClient(apiKey string, opts ...RESTClientOption) *RESTClient {
	client := &RESTClient{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type checkoutSessionRequest struct {
	CheckoutSession checkoutSessionBody `json:"checkout_session"`
}

type checkoutSessionBody struct {
	Type               string            `json:"type"`
	ProductName        string            `json:"product_name"`
	PriceUSD           float64           `json:"price_usd"`
	CustomerExternalID string            `json:"customer_external_id"`
	SuccessURL         string            `json:"success_url"`
	CancelURL          string            `json:"cancel_url"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

type checkoutSessionResponse struct {
	URL string `json:"url"`
}

// CreateCheckoutSession implements Provider.
func (c *RESTClient) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	reqBody := checkoutSessionRequest{
		CheckoutSession: checkoutSessionBody{
			Type:               "product",
			ProductName:        params.ProductName,
			PriceUSD:           params.PriceUSD,
			CustomerExternalID: params.CustomerExternalID,
			SuccessURL:         params.SuccessURL,
			CancelURL:          params.CancelURL,
			Metadata:           params.Metadata,
		},
	}

	var resp checkoutSessionResponse
	if err := c.do(ctx, http.MethodPost, "/checkout-sessions", reqBody, &resp); err != nil {
		return "", errors.Wrap(err, "[RESTClient.CreateCheckoutSession]")
	}
	if resp.URL == "" {
		return "", errors.New("[RESTClient.CreateCheckoutSession] provider returned no checkout url")
	}
	return resp.URL, nil
}

type subscriptionRecord struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Current  bool              `json:"current"`
	Metadata map[string]string `json:"metadata"`
}

type subscriptionListResponse struct {
	Data       []subscriptionRecord `json:"data"`
	HasMore    bool                 `json:"has_more"`
	NextCursor string               `json:"next_cursor"`
}

// ListSubscriptions implements Provider. The provider paginates with an
// opaque cursor, which is followed until exhausted.
func (c *RESTClient) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	var (
		subscriptions []Subscription
		cursor        string
	)
	for {
		path := "/subscriptions?limit=100"
		if cursor != "" {
			path += "&cursor=" + url.QueryEscape(cursor)
		}

		var page subscriptionListResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, errors.Wrap(err, "[RESTClient.ListSubscriptions]")
		}
		for _, record := range page.Data {
			subscriptions = append(subscriptions, Subscription{
				ID:       record.ID,
				Current:  record.Current,
				Metadata: record.Metadata,
			})
		}
		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return subscriptions, nil
}

func (c *RESTClient) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return errors.Wrap(err, "[RESTClient.do] marshal request")
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return errors.Wrap(err, "[RESTClient.do] create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "[RESTClient.do] send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("[RESTClient.do] %s %s: provider returned %d: %s", method, path, resp.StatusCode, string(payload))
	}
	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return errors.Wrap(err, fmt.Sprintf("[RESTClient.do] decode %s %s response", method, path))
	}
	return nil
}
