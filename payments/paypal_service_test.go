package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPayPalServer(t *testing.T, tokenCalls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "expires_in": 3600})
	})

	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		units := body["purchase_units"].([]interface{})
		amount := units[0].(map[string]interface{})["amount"].(map[string]interface{})
		assert.Equal(t, "49.90", amount["value"])
		assert.Equal(t, "USD", amount["currency_code"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"CREATED","links":[{"href":"https://paypal.test/approve/ORDER-1","rel":"approve"}]}`))
	})

	mux.HandleFunc("/v2/checkout/orders/ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"COMPLETED","purchase_units":[{"payments":{"captures":[{"id":"CAP-9","status":"COMPLETED"}]}}]}`))
	})

	mux.HandleFunc("/v2/checkout/orders/ORDER-BAD/capture", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY"}`))
	})

	var flaky int32
	mux.HandleFunc("/v2/checkout/orders/ORDER-FLAKY/capture", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&flaky, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-FLAKY","status":"COMPLETED"}`))
	})

	var revoked int32
	mux.HandleFunc("/v2/checkout/orders/ORDER-REVOKED/capture", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&revoked, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-REVOKED","status":"COMPLETED"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPayPalCreateAndCapture(t *testing.T) {
	var tokenCalls int32
	srv := newPayPalServer(t, &tokenCalls)
	client := NewPayPalClient(PayPalConfig{BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret"})
	ctx := context.Background()

	order, err := client.CreateOrder(ctx, OrderRequest{ReferenceID: "pay-1", Amount: 49.9, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", order.ID)
	assert.Equal(t, "https://paypal.test/approve/ORDER-1", order.ApproveURL)

	captured, err := client.CaptureOrder(ctx, "ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, OrderCompleted, captured.Status)
	assert.Equal(t, "CAP-9", captured.CaptureID)

	assert.EqualValues(t, 1, atomic.LoadInt32(&tokenCalls), "token is cached between calls")
}

func TestPayPalRejectedCapture(t *testing.T) {
	var tokenCalls int32
	srv := newPayPalServer(t, &tokenCalls)
	client := NewPayPalClient(PayPalConfig{BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret"})

	_, err := client.CaptureOrder(context.Background(), "ORDER-BAD")
	assert.ErrorIs(t, err, ErrProviderRejected)
	assert.NotErrorIs(t, err, ErrProviderUnavailable)
}

func TestPayPalServerErrorIsRetryable(t *testing.T) {
	var tokenCalls int32
	srv := newPayPalServer(t, &tokenCalls)
	client := NewPayPalClient(PayPalConfig{BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret"})
	ctx := context.Background()

	_, err := client.CaptureOrder(ctx, "ORDER-FLAKY")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.NotErrorIs(t, err, ErrProviderRejected)

	order, err := client.CaptureOrder(ctx, "ORDER-FLAKY")
	require.NoError(t, err)
	assert.Equal(t, OrderCompleted, order.Status)
}

func TestPayPalRefreshesTokenOnUnauthorized(t *testing.T) {
	var tokenCalls int32
	srv := newPayPalServer(t, &tokenCalls)
	client := NewPayPalClient(PayPalConfig{BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret"})

	order, err := client.CaptureOrder(context.Background(), "ORDER-REVOKED")
	require.NoError(t, err)
	assert.Equal(t, OrderCompleted, order.Status)
	assert.EqualValues(t, 2, atomic.LoadInt32(&tokenCalls), "a fresh token is fetched after a 401")
}

func TestPayPalUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewPayPalClient(PayPalConfig{BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret"})

	_, err := client.CaptureOrder(context.Background(), "ORDER-1")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestPayPalBadCredentials(t *testing.T) {
	var tokenCalls int32
	srv := newPayPalServer(t, &tokenCalls)
	client := NewPayPalClient(PayPalConfig{BaseURL: srv.URL, ClientID: "client", ClientSecret: "wrong"})

	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 1, Currency: "USD"})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestTokenCacheRefreshesAfterExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fetches := 0
	cache := &tokenCache{
		now: func() time.Time { return now },
		fetch: func(ctx context.Context) (string, time.Duration, error) {
			fetches++
			return "t", 10 * time.Minute, nil
		},
	}

	for i := 0; i < 3; i++ {
		_, err := cache.get(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fetches)

	now = now.Add(6 * time.Minute)
	_, err := cache.get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)

	cache.invalidate()
	_, err = cache.get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, fetches)
}
