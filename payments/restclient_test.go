package payments_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-id/tessera/payments"
)

func TestRESTClientCreateCheckoutSession(t *testing.T) {
	var captured map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout-sessions", r.URL.Path)
		require.Equal(t, "Bearer sk_test_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://checkout.test/s1"})
	}))
	defer upstream.Close()

	client := payments.NewRESTClient("sk_test_key", payments.WithBaseURL(upstream.URL))
	url, err := client.CreateCheckoutSession(context.Background(), payments.CheckoutParams{
		ProductName:        "Team Plan",
		PriceUSD:           49,
		CustomerExternalID: "t-1-team-42",
		SuccessURL:         "https://app.test/ok",
		CancelURL:          "https://app.test/cancel",
		Metadata:           map[string]string{payments.MetadataPricingModelID: "team-plan"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/s1", url)

	session := captured["checkout_session"].(map[string]any)
	assert.Equal(t, "Team Plan", session["product_name"])
	assert.Equal(t, "t-1-team-42", session["customer_external_id"])
}

func TestRESTClientListSubscriptionsFollowsCursor(t *testing.T) {
	pages := map[string]map[string]any{
		"": {
			"data":        []map[string]any{{"id": "sub-1", "current": true, "metadata": map[string]string{"k": "v"}}},
			"has_more":    true,
			"next_cursor": "c2",
		},
		"c2": {
			"data":     []map[string]any{{"id": "sub-2", "current": false}},
			"has_more": false,
		},
	}

	var requests int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, "/subscriptions", r.URL.Path)
		page, ok := pages[r.URL.Query().Get("cursor")]
		require.True(t, ok, "unexpected cursor %q", r.URL.Query().Get("cursor"))
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer upstream.Close()

	client := payments.NewRESTClient("sk_test_key", payments.WithBaseURL(upstream.URL))
	subscriptions, err := client.ListSubscriptions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, requests)
	require.Len(t, subscriptions, 2)
	assert.Equal(t, "sub-1", subscriptions[0].ID)
	assert.True(t, subscriptions[0].Current)
	assert.Equal(t, "v", subscriptions[0].Metadata["k"])
	assert.False(t, subscriptions[1].Current)
}

func TestRESTClientSurfacesUpstreamErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid api key"}`, http.StatusUnauthorized)
	}))
	defer upstream.Close()

	client := payments.NewRESTClient("sk_bad_key", payments.WithBaseURL(upstream.URL))
	_, err := client.ListSubscriptions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
