// Package gamma fetches market metadata from the Polymarket Gamma API and
// order books from the CLOB REST API.
package gamma

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/polytrade/polybot/pkg/types"
	"go.uber.org/zap"
)

// Client talks to the Gamma and CLOB REST APIs.
type Client struct {
	gammaURL   string
	clobURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds client configuration.
type Config struct {
	GammaURL string
	ClobURL  string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewClient creates a new REST client.
func NewClient(cfg Config) *Client {
	return &Client{
		gammaURL: cfg.GammaURL,
		clobURL:  cfg.ClobURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: cfg.Logger,
	}
}

// FetchEvents returns the top active events ordered by 24-hour volume,
// descending.
func (c *Client) FetchEvents(ctx context.Context, limit int) ([]types.Event, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("order", "volume24hr")
	params.Set("ascending", "false")

	endpoint := fmt.Sprintf("%s/events?%s", c.gammaURL, params.Encode())

	start := time.Now()
	body, err := c.get(ctx, endpoint)
	RequestDuration.WithLabelValues("events").Observe(time.Since(start).Seconds())
	if err != nil {
		RequestErrorsTotal.WithLabelValues("events").Inc()
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	var events []types.Event
	err = json.Unmarshal(body, &events)
	if err != nil {
		RequestErrorsTotal.WithLabelValues("events").Inc()
		return nil, fmt.Errorf("decode events: %w", err)
	}

	c.logger.Debug("fetched-events", zap.Int("count", len(events)))

	return events, nil
}

// FetchOrderBook returns the order book for a CLOB token.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error) {
	endpoint := fmt.Sprintf("%s/book?token_id=%s", c.clobURL, url.QueryEscape(tokenID))

	start := time.Now()
	body, err := c.get(ctx, endpoint)
	RequestDuration.WithLabelValues("book").Observe(time.Since(start).Seconds())
	if err != nil {
		RequestErrorsTotal.WithLabelValues("book").Inc()
		return nil, fmt.Errorf("fetch order book for %s: %w", tokenID, err)
	}

	var book types.OrderBook
	err = json.Unmarshal(body, &book)
	if err != nil {
		RequestErrorsTotal.WithLabelValues("book").Inc()
		return nil, fmt.Errorf("decode order book for %s: %w", tokenID, err)
	}

	return &book, nil
}

// get performs a GET request and returns the response body.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "polybot/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
