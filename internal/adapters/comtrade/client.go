// Package comtrade fetches annual HS trade values from the UN Comtrade
// legacy CSV API.
package comtrade

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/tradeflow/internal/domain/model"
	"github.com/okian/tradeflow/pkg/logger"
)

const (
	defaultTimeout    = 75 * time.Second
	defaultMaxRecords = 50000
	defaultUserAgent  = "tradeflow/0.1"

	maxErrorBody = 512
)

// Fixed request parameters: CSV, commodities, annual, HS, imports and exports.
var fixedParams = url.Values{
	"fmt":  {"csv"},
	"type": {"C"},
	"freq": {"A"},
	"px":   {"HS"},
	"rg":   {"1,2"},
}

// Client issues one GET per query.
type Client struct {
	base       *url.URL
	http       *http.Client
	timeout    time.Duration
	maxRecords int
	userAgent  string
	logger     logger.Logger
}

// New creates a client for the endpoint at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("comtrade: invalid base url %q", baseURL)
	}
	c := &Client{
		base:       u,
		http:       &http.Client{},
		timeout:    defaultTimeout,
		maxRecords: defaultMaxRecords,
		userAgent:  defaultUserAgent,
		logger:     logger.Get().Named("comtrade"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the request URL of q.
func (c *Client) URL(q model.Query) string {
	params := url.Values{}
	for k, v := range fixedParams {
		params[k] = v
	}
	params.Set("max", strconv.Itoa(c.maxRecords))
	for k, v := range q.Values() {
		params[k] = v
	}
	u := *c.base
	u.RawQuery = params.Encode()
	return u.String()
}

// Fetch runs q and parses the answer. Failures wrap ErrConflict (409),
// ErrStatus, ErrTimeout, ErrCanceled, ErrTransport or ErrParse.
func (c *Client) Fetch(ctx context.Context, q model.Query) ([]model.TradeFact, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.URL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(ctx, reqCtx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusConflict {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrConflict
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	facts, err := ParseCSV(resp.Body)
	if err != nil {
		if cerr := c.classify(ctx, reqCtx, err); !errors.Is(cerr, ErrTransport) {
			return nil, cerr
		}
		return nil, err
	}
	c.logger.Debug(ctx, "comtrade fetch done",
		logger.String("signature", q.Signature()),
		logger.Int("facts", len(facts)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return facts, nil
}

// classify maps a transport failure to the caller's cancel, our own
// deadline, or a plain transport error.
func (c *Client) classify(parent, reqCtx context.Context, err error) error {
	switch {
	case parent.Err() != nil && errors.Is(parent.Err(), context.Canceled):
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	case reqCtx.Err() != nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %s: %w", ErrTimeout, c.timeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
}
