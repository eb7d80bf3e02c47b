package payments

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
)

func newTestStripe(t *testing.T, h http.HandlerFunc) *Stripe {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripe("sk_test_123", "pk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestListProductsSortedByName(t *testing.T) {
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/products", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","url":"/v1/products","has_more":false,"data":[
			{"id":"prod_p","object":"product","name":"Passport Photos","active":true,"metadata":{"slug":"passport-photos"}},
			{"id":"prod_c","object":"product","name":"Certification Exam Testing","active":true}
		]}`))
	})

	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Certification Exam Testing", products[0].Name)
	assert.Equal(t, "passport-photos", products[1].Metadata["slug"])
	assert.NotNil(t, products[0].Metadata)
}

func TestGetProductNotFound(t *testing.T) {
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such product: 'prod_x'"}}`))
	})

	_, err := s.GetProduct(context.Background(), "prod_x")
	assert.True(t, errors.Is(err, model.ErrNotFound), "got %v", err)
}

func TestNotConfigured(t *testing.T) {
	s := NewStripe("", "", nil)
	_, err := s.ListProducts(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = s.PublishableKey()
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = s.CreateCheckoutSession(context.Background(), CheckoutRequest{PriceID: "price_1"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGroupPrices(t *testing.T) {
	products := []model.Product{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	grouped := GroupPrices(products, map[string][]model.Price{
		"a": {{ID: "p2", UnitAmount: 3500}, {ID: "p1", UnitAmount: 1500}},
	})
	require.Len(t, grouped, 2)
	assert.Equal(t, "p1", grouped[0].Prices[0].ID)
	assert.NotNil(t, grouped[1].Prices)
	assert.Empty(t, grouped[1].Prices)
}
