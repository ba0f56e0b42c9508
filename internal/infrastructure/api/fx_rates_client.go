package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/apperrors"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

const (
	// FallbackBaseURL is the keyless open exchange rate API used when the primary provider fails
	FallbackBaseURL = "https://open.er-api.com/v6"

	primaryProvider  = "primary"
	fallbackProvider = "fallback"

	// maxBodyBytes bounds how much of a provider response is read
	maxBodyBytes = 4 << 20
)

// FxRatesClient fetches latest exchange rates from the primary provider and the fallback provider
type FxRatesClient struct {
	primaryBaseURL  string
	apiKey          string
	fallbackBaseURL string
	httpClient      *http.Client
	logger          logger.Logger
}

// NewFxRatesClient creates a new client. A nil httpClient gets a 10 second timeout.
func NewFxRatesClient(primaryBaseURL, apiKey string, httpClient *http.Client, log logger.Logger) *FxRatesClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}

	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &FxRatesClient{
		primaryBaseURL:  strings.TrimRight(primaryBaseURL, "/"),
		apiKey:          apiKey,
		fallbackBaseURL: FallbackBaseURL,
		httpClient:      httpClient,
		logger:          log.WithField("component", "fx_rates_client"),
	}
}

// primaryResponse represents the response structure of the primary provider
type primaryResponse struct {
	Success *bool `json:"success"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
	Rates map[string]json.RawMessage `json:"rates"`
}

// fallbackResponse represents the response structure of the fallback provider
type fallbackResponse struct {
	Result    string                     `json:"result"`
	ErrorType string                     `json:"error-type"`
	Rates     map[string]json.RawMessage `json:"rates"`
}

// FetchPrimary retrieves rates for base from the primary provider.
// targets is passed through as the currency filter when non-empty.
func (c *FxRatesClient) FetchPrimary(ctx context.Context, base, targets string) (map[string]float64, error) {
	if c.primaryBaseURL == "" {
		return nil, fmt.Errorf("primary base URL is empty: %w", apperrors.ErrNotConfigured)
	}

	query := url.Values{}
	query.Set("base", base)
	if targets != "" {
		query.Set("currencies", targets)
	}
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	reqURL := c.primaryBaseURL + "/latest?" + query.Encode()

	// Never log the API key
	c.logger.Info("Requesting primary rates", map[string]interface{}{
		"provider": primaryProvider,
		"base":     base,
		"targets":  targets,
	})

	body, err := c.get(ctx, primaryProvider, reqURL)
	if err != nil {
		return nil, err
	}

	var resp primaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", primaryProvider, err)
	}

	if resp.Success != nil && !*resp.Success {
		providerErr := &apperrors.ProviderError{Provider: primaryProvider}
		if resp.Error != nil {
			providerErr.Message = resp.Error.Message
		}
		return nil, providerErr
	}

	rates := parseRates(resp.Rates)

	c.logger.Info("Primary rates received", map[string]interface{}{
		"provider": primaryProvider,
		"base":     base,
		"count":    len(rates),
	})

	return rates, nil
}

// FetchFallback retrieves every rate available for base from the fallback provider
func (c *FxRatesClient) FetchFallback(ctx context.Context, base string) (map[string]float64, error) {
	reqURL := c.fallbackBaseURL + "/latest/" + url.PathEscape(base)

	c.logger.Info("Requesting fallback rates", map[string]interface{}{
		"provider": fallbackProvider,
		"base":     base,
		"url":      reqURL,
	})

	body, err := c.get(ctx, fallbackProvider, reqURL)
	if err != nil {
		return nil, err
	}

	var resp fallbackResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", fallbackProvider, err)
	}

	if resp.Result != "success" {
		return nil, &apperrors.ProviderError{Provider: fallbackProvider, Message: resp.ErrorType}
	}

	rates := parseRates(resp.Rates)

	c.logger.Info("Fallback rates received", map[string]interface{}{
		"provider": fallbackProvider,
		"base":     base,
		"count":    len(rates),
	})

	return rates, nil
}

// get performs a GET and returns the body of a 2xx response
func (c *FxRatesClient) get(ctx context.Context, provider, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", provider, err)
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s request: %w", provider, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Error closing response body", map[string]interface{}{
				"provider": provider,
				"error":    closeErr.Error(),
			})
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response body: %w", provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("Provider returned error status", map[string]interface{}{
			"provider": provider,
			"status":   resp.StatusCode,
			"body":     truncate(string(body), 512),
		})
		return nil, fmt.Errorf("%s provider returned error status: %d", provider, resp.StatusCode)
	}

	return body, nil
}

// parseRates converts every entry that reads as a number, either a JSON number or a
// numeric string, into a float. Other entries are skipped.
func parseRates(raw map[string]json.RawMessage) map[string]float64 {
	rates := make(map[string]float64, len(raw))

	for code, value := range raw {
		text := string(bytes.TrimSpace(value))

		if strings.HasPrefix(text, `"`) {
			if err := json.Unmarshal(value, &text); err != nil {
				continue
			}
			text = strings.TrimSpace(text)
		}

		d, err := decimal.NewFromString(text)
		if err != nil {
			continue
		}

		rate, _ := d.Float64()
		rates[code] = rate
	}

	return rates
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
