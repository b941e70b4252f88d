package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/okian/tradeflow/internal/domain/panel"
	"github.com/okian/tradeflow/pkg/logger"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// getJSON performs a GET and decodes a 200 body into v. The status code is
// returned for any response that arrived.
func (c *HTTPClient) getJSON(ctx context.Context, path string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, body)
	}
	if v != nil {
		if err := json.Unmarshal(body, v); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: decode: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

// panelsPath renders the /panels request of s.
func panelsPath(s Selection) string {
	q := url.Values{}
	q.Set("reporter", s.Reporter)
	q.Set("partner", s.Partner)
	q.Set("year", strconv.Itoa(s.Year))
	return "/panels?" + q.Encode()
}

// requestPanels requests every selection concurrently and verifies each
// successful payload. 5xx answers count as upstream failures.
func requestPanels(ctx context.Context, cfg *Config, client *HTTPClient, selections []Selection, stats *Stats) []error {
	logger.Get().Info(ctx, "requesting panels",
		logger.Int("selections", len(selections)),
		logger.Int("workers", cfg.Workers),
	)

	var (
		requested, succeeded, upstream, failed, panels int64 // guarded by mu

		mu       sync.Mutex
		problems []error
	)

	work := make(chan Selection, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range work {
				start := time.Now()
				var results []panel.Result
				status, err := client.getJSON(ctx, panelsPath(s), &results)
				elapsed := time.Since(start)

				outcome := outcomeOK
				switch {
				case err == nil:
					if verr := verifyPanels(s, results); verr != nil {
						outcome = outcomeFailed
						err = verr
					}
				case status >= http.StatusInternalServerError:
					outcome = outcomeUpstream
				default:
					outcome = outcomeFailed
				}

				mu.Lock()
				requested++
				switch outcome {
				case outcomeOK:
					succeeded++
					panels += int64(len(results))
				case outcomeUpstream:
					upstream++
				default:
					failed++
					problems = append(problems, err)
				}
				if elapsed > stats.SlowestRequestDur {
					stats.SlowestRequestDur = elapsed
					stats.SlowestSelection = s
				}
				mu.Unlock()

				if err != nil && cfg.Verbose {
					logger.Get().Warn(ctx, "panel request failed",
						logger.String("path", panelsPath(s)),
						logger.String("outcome", outcome),
						logger.Error(err),
					)
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, s := range selections {
			select {
			case <-ctx.Done():
				return
			case work <- s:
			}
		}
	}()
	wg.Wait()

	stats.Requested = int(requested)
	stats.Succeeded = int(succeeded)
	stats.UpstreamFailed = int(upstream)
	stats.Failed = int(failed)
	stats.PanelsReceived = int(panels)
	return problems
}
