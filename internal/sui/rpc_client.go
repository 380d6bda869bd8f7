package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mr-tron/base58"

	"mnm-site/internal/observability"
)

// Default configuration values.
const (
	DefaultEndpoint    = "https://fullnode.mainnet.sui.io:443"
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 0
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0

	digestLength = 32
	serviceName  = "sui"
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
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

// NewHTTPClient creates a new Sui RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ RPCClient = (*HTTPClient)(nil)

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordUpstreamCall(serviceName, method, time.Since(start).Seconds(), err)
	}()

	reqID := c.requestID.Add(1)
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GetAllCoins lists one page of coin objects owned by an address.
func (c *HTTPClient) GetAllCoins(ctx context.Context, owner, cursor string, limit int) (*CoinPage, error) {
	var cursorParam interface{}
	if cursor != "" {
		cursorParam = cursor
	}
	var limitParam interface{}
	if limit > 0 {
		limitParam = limit
	}

	var result getAllCoinsResult
	if err := c.call(ctx, "suix_getAllCoins", []interface{}{owner, cursorParam, limitParam}, &result); err != nil {
		return nil, err
	}

	page := &CoinPage{
		Data:        make([]Coin, 0, len(result.Data)),
		HasNextPage: result.HasNextPage,
	}
	if result.NextCursor != nil {
		page.NextCursor = *result.NextCursor
	}

	for _, r := range result.Data {
		if err := validateDigest(r.Digest); err != nil {
			return nil, fmt.Errorf("coin %s: %w", r.CoinObjectID, err)
		}
		page.Data = append(page.Data, Coin{
			CoinType:            r.CoinType,
			CoinObjectID:        r.CoinObjectID,
			Version:             r.Version,
			Digest:              r.Digest,
			Balance:             r.Balance,
			PreviousTransaction: r.PreviousTransaction,
		})
	}

	return page, nil
}

// getAllCoinsResult is the raw RPC response for suix_getAllCoins.
type getAllCoinsResult struct {
	Data        []getAllCoinsItem `json:"data"`
	NextCursor  *string           `json:"nextCursor"`
	HasNextPage bool              `json:"hasNextPage"`
}

type getAllCoinsItem struct {
	CoinType            string `json:"coinType"`
	CoinObjectID        string `json:"coinObjectId"`
	Version             string `json:"version"`
	Digest              string `json:"digest"`
	Balance             string `json:"balance"`
	PreviousTransaction string `json:"previousTransaction"`
}

// GetCoinMetadata retrieves metadata for a coin type.
// Returns nil if the node has no metadata.
func (c *HTTPClient) GetCoinMetadata(ctx context.Context, coinType string) (*CoinMetadata, error) {
	var result *getCoinMetadataResult
	if err := c.call(ctx, "suix_getCoinMetadata", []interface{}{coinType}, &result); err != nil {
		return nil, err
	}

	if result == nil {
		return nil, nil
	}

	meta := &CoinMetadata{
		Decimals:    result.Decimals,
		Name:        result.Name,
		Symbol:      result.Symbol,
		Description: result.Description,
	}
	if result.ID != nil {
		meta.ID = *result.ID
	}
	if result.IconURL != nil {
		meta.IconURL = *result.IconURL
	}
	return meta, nil
}

type getCoinMetadataResult struct {
	ID          *string `json:"id"`
	Decimals    int     `json:"decimals"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Description string  `json:"description"`
	IconURL     *string `json:"iconUrl"`
}

// validateDigest checks an object digest is a base58 encoded 32-byte value.
func validateDigest(digest string) error {
	if digest == "" {
		return nil
	}
	decoded, err := base58.Decode(digest)
	if err != nil {
		return fmt.Errorf("decode digest: %w", err)
	}
	if len(decoded) != digestLength {
		return fmt.Errorf("digest length %d, want %d", len(decoded), digestLength)
	}
	return nil
}
