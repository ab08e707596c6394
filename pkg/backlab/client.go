// Package backlab provides a Go client SDK for the backlab-server HTTP API.
package backlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client provides programmatic access to a running backlab-server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new backlab API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// BacktestParams selects what to backtest. Period and Interval may be empty
// to use the server defaults.
type BacktestParams struct {
	Strategy string `json:"strategy"`
	Symbol   string `json:"symbol"`
	Period   string `json:"period,omitempty"`
	Interval string `json:"interval,omitempty"`
}

// RunBacktest runs a backtest on the server and returns the raw result
// document (trades, equity curve, stats).
func (c *Client) RunBacktest(ctx context.Context, params BacktestParams) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/backtest", params)
}

// ListStrategies returns the names of all saved strategies.
func (c *Client) ListStrategies(ctx context.Context) ([]string, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/strategies", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Strategies []string `json:"strategies"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out.Strategies, nil
}

// GetStrategy returns the stored configuration document for name.
func (c *Client) GetStrategy(ctx context.Context, name string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/api/strategies/"+url.PathEscape(name), nil)
}

// SaveStrategy stores the given configuration document under name.
func (c *Client) SaveStrategy(ctx context.Context, name string, cfg any) error {
	_, err := c.do(ctx, http.MethodPut, "/api/strategies/"+url.PathEscape(name), cfg)
	return err
}

// DeleteStrategy removes the configuration stored under name.
func (c *Client) DeleteStrategy(ctx context.Context, name string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/strategies/"+url.PathEscape(name), nil)
	return err
}

// GetBars returns the annotated bar document for a symbol.
func (c *Client) GetBars(ctx context.Context, symbol, period, interval string) (json.RawMessage, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	if interval != "" {
		q.Set("interval", interval)
	}
	path := "/api/bars/" + url.PathEscape(symbol)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

// do performs one API request and returns the response body, converting
// non-2xx responses into errors carrying the server's error message.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return data, nil
}
