package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/retry"
)

// RateProvider fetches the rate to convert one unit of from into to.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fx provider returned status %d: %s", e.Code, e.Body)
}

// StatusCode exposes the HTTP status for retry classification.
func (e *StatusError) StatusCode() int { return e.Code }

// HTTPProvider talks to an exchangerate-api style endpoint:
// GET {baseURL}/{apiKey}/pair/{FROM}/{TO}.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider creates a provider. A nil client gets one with timeout.
func NewHTTPProvider(baseURL, apiKey string, client *http.Client, timeout time.Duration) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

type pairResponse struct {
	Result         string   `json:"result"`
	ConversionRate *float64 `json:"conversion_rate"`
	ErrorType      string   `json:"error-type"`
}

// Rate calls the pair endpoint once. Only a "success" result carrying a
// numeric conversion_rate counts as an answer.
func (p *HTTPProvider) Rate(ctx context.Context, from, to string) (float64, error) {
	endpoint := fmt.Sprintf("%s/%s/pair/%s/%s",
		p.baseURL, url.PathEscape(p.apiKey), url.PathEscape(from), url.PathEscape(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("HTTPProvider.Rate: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTPProvider.Rate %s->%s: %w", from, to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body pairResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return 0, &StatusError{Code: resp.StatusCode, Body: body.ErrorType}
	}

	var body pairResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("HTTPProvider.Rate %s->%s: decode: %w", from, to, err)
	}
	if body.Result != "success" {
		return 0, fmt.Errorf("HTTPProvider.Rate %s->%s: result %q %s", from, to, body.Result, body.ErrorType)
	}
	if body.ConversionRate == nil {
		return 0, fmt.Errorf("HTTPProvider.Rate %s->%s: missing conversion_rate", from, to)
	}
	return *body.ConversionRate, nil
}

// RetryingProvider retries rate-limited lookups of the wrapped provider.
type RetryingProvider struct {
	provider RateProvider
	policy   *retry.Policy
}

// WithRetry wraps provider in policy.
func WithRetry(provider RateProvider, policy *retry.Policy) *RetryingProvider {
	return &RetryingProvider{provider: provider, policy: policy}
}

func (p *RetryingProvider) Rate(ctx context.Context, from, to string) (float64, error) {
	return retry.Call(ctx, p.policy, func(ctx context.Context) (float64, error) {
		return p.provider.Rate(ctx, from, to)
	})
}
