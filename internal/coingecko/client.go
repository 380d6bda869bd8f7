package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"mnm-site/internal/domain"
	"mnm-site/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.coingecko.com/api/v3"
	DefaultTimeout    = 15 * time.Second
	DefaultMaxRetries = 0
	DefaultRetryDelay = 500 * time.Millisecond

	apiKeyHeader = "x-cg-demo-api-key"
	serviceName  = "coingecko"
)

// HTTPClient implements Source over the aggregator REST API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *HTTPClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithAPIKey sends the demo API key header on every request.
func WithAPIKey(key string) ClientOption {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for transport failures.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the delay between retries.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new aggregator client.
func NewHTTPClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    DefaultBaseURL,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Source = (*HTTPClient)(nil)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// get performs a GET request and decodes the JSON body into result.
// Only transport failures and 429/5xx responses are retried.
func (c *HTTPClient) get(ctx context.Context, operation, path string, query url.Values, result interface{}) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordUpstreamCall(serviceName, operation, time.Since(start).Seconds(), err)
	}()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set(apiKeyHeader, c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return lastErr
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// TokenByAddress looks a token up by contract address on a network.
func (c *HTTPClient) TokenByAddress(ctx context.Context, network, address string) (*OnchainToken, error) {
	path := "/onchain/networks/" + url.PathEscape(network) + "/tokens/" + url.PathEscape(address)

	var result onchainTokenResponse
	if err := c.get(ctx, "token_by_address", path, nil, &result); err != nil {
		return nil, err
	}
	if result.Data == nil {
		return nil, nil
	}
	return result.Data.flatten(), nil
}

// Search runs a free-text token search.
func (c *HTTPClient) Search(ctx context.Context, query string) ([]domain.TokenCandidate, error) {
	var result searchResponse
	if err := c.get(ctx, "search", "/search", url.Values{"query": {query}}, &result); err != nil {
		return nil, err
	}

	candidates := make([]domain.TokenCandidate, 0, len(result.Coins))
	for _, coin := range result.Coins {
		candidates = append(candidates, domain.TokenCandidate{
			ID:     coin.ID,
			Name:   coin.Name,
			Symbol: coin.Symbol,
		})
	}
	return candidates, nil
}

// SimplePrice fetches USD price, 24h change, 24h volume and market cap for an id.
// Returns nil if the id is absent from the response.
func (c *HTTPClient) SimplePrice(ctx context.Context, id string) (*SimplePrice, error) {
	query := url.Values{
		"ids":                 {id},
		"vs_currencies":       {"usd"},
		"include_24hr_change": {"true"},
		"include_24hr_vol":    {"true"},
		"include_market_cap":  {"true"},
	}

	var result map[string]SimplePrice
	if err := c.get(ctx, "simple_price", "/simple/price", query, &result); err != nil {
		return nil, err
	}

	price, ok := result[id]
	if !ok {
		return nil, nil
	}
	return &price, nil
}

// MarketChart fetches the USD price and volume series for the last days.
func (c *HTTPClient) MarketChart(ctx context.Context, id string, days int) (*MarketChart, error) {
	query := url.Values{
		"vs_currency": {"usd"},
		"days":        {strconv.Itoa(days)},
	}

	var result MarketChart
	if err := c.get(ctx, "market_chart", "/coins/"+url.PathEscape(id)+"/market_chart", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
