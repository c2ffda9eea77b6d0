// Package basescan is a minimal client for the Basescan HTTP API, covering
// the account, proxy and logs modules the fetch pipeline needs.
package basescan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"aerodrome-lp-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.basescan.org/api"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Client queries the Basescan API over HTTP GET with an API key.
type Client struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new Basescan API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
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

// envelope covers both response shapes the API serves: account and logs
// modules wrap results in status/message, the proxy module passes JSON-RPC
// results through without them.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// apiError is a non-retryable error envelope.
type apiError struct {
	Status  string
	Message string
	Result  string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("basescan status %s: %s: %s", e.Status, e.Message, e.Result)
}

// errNoRecords marks the status-0 "nothing found" envelope, which callers
// translate to an empty result set.
var errNoRecords = errors.New("no records found")

// call performs one API query with retries and exponential backoff. Rate
// limiting surfaces both as HTTP 429 and as status-0 envelopes carrying a
// rate limit message; both are retried. Other API errors are not.
func (c *Client) call(ctx context.Context, query url.Values) (json.RawMessage, error) {
	query.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "?" + query.Encode()
	started := time.Now()

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			observability.RecordAPIRetry()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

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
			observability.RecordRateLimitHit()
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var env envelope
		if err := json.Unmarshal(respBody, &env); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		// Proxy responses carry no status field; "1" is success elsewhere.
		if env.Status == "" || env.Status == "1" {
			observability.RecordAPICall(query.Get("action"), time.Since(started).Seconds())
			return env.Result, nil
		}

		message := strings.ToLower(env.Message)
		result := strings.Trim(string(env.Result), `"`)
		if strings.Contains(message, "rate limit") || strings.Contains(strings.ToLower(result), "rate limit") {
			observability.RecordRateLimitHit()
			lastErr = fmt.Errorf("rate limited: %s", result)
			continue
		}
		if strings.Contains(message, "no transactions found") || strings.Contains(message, "no records found") {
			return nil, errNoRecords
		}
		return nil, &apiError{Status: env.Status, Message: env.Message, Result: result}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// ListTransactions retrieves all transactions sent from or to an address
// between two blocks inclusive, oldest first. A range with no transactions
// returns an empty slice, not an error.
func (c *Client) ListTransactions(ctx context.Context, address string, startBlock, endBlock int64) ([]Transaction, error) {
	query := url.Values{
		"module":     {"account"},
		"action":     {"txlist"},
		"address":    {address},
		"startblock": {strconv.FormatInt(startBlock, 10)},
		"endblock":   {strconv.FormatInt(endBlock, 10)},
		"sort":       {"asc"},
	}

	raw, err := c.call(ctx, query)
	if errors.Is(err, errNoRecords) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var wire []txWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal transactions: %w", err)
	}

	txs := make([]Transaction, 0, len(wire))
	for _, w := range wire {
		tx, err := w.toTransaction()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// GetTransactionReceipt retrieves the receipt for a transaction hash.
// Returns nil if the transaction is unknown to the node.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	query := url.Values{
		"module": {"proxy"},
		"action": {"eth_getTransactionReceipt"},
		"txhash": {txHash},
	}

	raw, err := c.call(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var wire receiptWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}

	receipt := &Receipt{Status: wire.Status}
	for _, lw := range wire.Logs {
		log, err := lw.toLog()
		if err != nil {
			return nil, err
		}
		receipt.Logs = append(receipt.Logs, log)
	}
	return receipt, nil
}

// GetLogs retrieves event logs emitted by a contract in a block range,
// filtered by the first topic. A range with no matching logs returns an
// empty slice.
func (c *Client) GetLogs(ctx context.Context, address string, fromBlock, toBlock int64, topic0 string) ([]Log, error) {
	query := url.Values{
		"module":    {"logs"},
		"action":    {"getLogs"},
		"address":   {address},
		"fromBlock": {strconv.FormatInt(fromBlock, 10)},
		"toBlock":   {strconv.FormatInt(toBlock, 10)},
		"topic0":    {topic0},
	}

	raw, err := c.call(ctx, query)
	if errors.Is(err, errNoRecords) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var wire []logWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal logs: %w", err)
	}

	logs := make([]Log, 0, len(wire))
	for _, lw := range wire {
		log, err := lw.toLog()
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}
