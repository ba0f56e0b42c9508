// internal/infrastructure/api/fx_rates_client_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/apperrors"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(primaryURL, apiKey string) *FxRatesClient {
	return NewFxRatesClient(primaryURL, apiKey, nil, logger.NewJSONLogger(io.Discard, logger.DebugLevel))
}

func TestFetchPrimary(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		assert.Equal(t, "EUR,GBP", r.URL.Query().Get("currencies"))
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"base":"USD","rates":{"EUR":0.92,"GBP":"0.79","BAD":"n/a","NUL":null,"OBJ":{}}}`))
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL+"/", "secret")

	rates, err := client.FetchPrimary(context.Background(), "USD", "EUR,GBP")

	require.NoError(t, err)
	assert.Len(t, rates, 2)
	assert.InDelta(t, 0.92, rates["EUR"], 1e-12)
	assert.InDelta(t, 0.79, rates["GBP"], 1e-12)
}

func TestFetchPrimaryOmitsEmptyParameters(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "UAH", query.Get("base"))
		assert.False(t, query.Has("currencies"))
		assert.False(t, query.Has("api_key"))
		w.Write([]byte(`{"rates":{"USD":0.024}}`))
	}))
	defer mockServer.Close()

	rates, err := newTestClient(mockServer.URL, "").FetchPrimary(context.Background(), "UAH", "")

	require.NoError(t, err)
	assert.InDelta(t, 0.024, rates["USD"], 1e-12)
}

func TestFetchPrimaryFailures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"server error", http.StatusInternalServerError, `{"rates":{"EUR":0.9}}`, "error status: 500"},
		{"malformed body", http.StatusOK, `{"rates":`, "failed to decode primary response"},
		{"success false", http.StatusOK, `{"success":false,"error":{"message":"invalid api key"}}`, "invalid api key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer mockServer.Close()

			rates, err := newTestClient(mockServer.URL, "").FetchPrimary(context.Background(), "USD", "EUR")

			assert.Nil(t, rates)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}

func TestFetchPrimaryProviderError(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":{"message":"base currency not supported"}}`))
	}))
	defer mockServer.Close()

	_, err := newTestClient(mockServer.URL, "").FetchPrimary(context.Background(), "XXX", "")

	var providerErr *apperrors.ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, "primary", providerErr.Provider)
	assert.Equal(t, "base currency not supported", providerErr.Message)
}

func TestFetchPrimaryNotConfigured(t *testing.T) {
	_, err := newTestClient("", "").FetchPrimary(context.Background(), "USD", "")
	assert.ErrorIs(t, err, apperrors.ErrNotConfigured)
}

func TestFetchPrimaryTimeout(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"rates":{"EUR":0.9}}`))
	}))
	defer mockServer.Close()

	client := NewFxRatesClient(mockServer.URL, "", &http.Client{Timeout: 20 * time.Millisecond},
		logger.NewJSONLogger(io.Discard, logger.InfoLevel))

	_, err := client.FetchPrimary(context.Background(), "USD", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute primary request")
}

func TestFetchFallback(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/latest/USD", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		w.Write([]byte(`{"result":"success","base_code":"USD","rates":{"USD":1,"EUR":0.93,"GBP":0.8}}`))
	}))
	defer mockServer.Close()

	client := newTestClient("", "")
	client.fallbackBaseURL = mockServer.URL + "/v6"

	rates, err := client.FetchFallback(context.Background(), "USD")

	require.NoError(t, err)
	assert.Len(t, rates, 3)
	assert.InDelta(t, 0.93, rates["EUR"], 1e-12)
}

func TestFetchFallbackFailures(t *testing.T) {
	t.Run("result error", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"result":"error","error-type":"unsupported-code"}`))
		}))
		defer mockServer.Close()

		client := newTestClient("", "")
		client.fallbackBaseURL = mockServer.URL

		_, err := client.FetchFallback(context.Background(), "ZZZ")

		var providerErr *apperrors.ProviderError
		require.True(t, errors.As(err, &providerErr))
		assert.Equal(t, "fallback", providerErr.Provider)
		assert.Equal(t, "unsupported-code", providerErr.Message)
	})

	t.Run("missing result", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"rates":{"EUR":0.93}}`))
		}))
		defer mockServer.Close()

		client := newTestClient("", "")
		client.fallbackBaseURL = mockServer.URL

		_, err := client.FetchFallback(context.Background(), "USD")

		var providerErr *apperrors.ProviderError
		assert.True(t, errors.As(err, &providerErr))
	})

	t.Run("bad gateway", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer mockServer.Close()

		client := newTestClient("", "")
		client.fallbackBaseURL = mockServer.URL

		_, err := client.FetchFallback(context.Background(), "USD")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fallback provider returned error status: 502")
	})
}

func TestParseRates(t *testing.T) {
	raw := map[string]json.RawMessage{
		"EUR": json.RawMessage(`0.92`),
		"JPY": json.RawMessage(`1.5e2`),
		"GBP": json.RawMessage(`" 0.79 "`),
		"BAD": json.RawMessage(`"abc"`),
		"BOO": json.RawMessage(`true`),
		"ARR": json.RawMessage(`[1]`),
	}

	rates := parseRates(raw)

	assert.Len(t, rates, 3)
	assert.InDelta(t, 150.0, rates["JPY"], 1e-9)
	assert.InDelta(t, 0.79, rates["GBP"], 1e-12)
}
