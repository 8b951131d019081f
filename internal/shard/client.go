package shard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ryzom/shardstatus/internal/logger"
)

// DefaultEndpoint is the portal's shard status page.
const DefaultEndpoint = "http://www.ryzom.com/serverstatus/status.php"

// DefaultTimeout bounds a single fetch. The portal script had none.
const DefaultTimeout = 5 * time.Second

// Observer is notified after every fetch attempt.
type Observer interface {
	ObserveFetch(elapsed time.Duration, skipped int, err error)
}

// Client fetches the status feed
type Client struct {
	endpoint   string
	httpClient *http.Client
	parser     *Parser
	observer   Observer
}

// NewClient creates a client for endpoint. An empty endpoint means
// DefaultEndpoint and a non-positive timeout means DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		parser: NewParser(),
	}
}

// SetAliases replaces the label alias table.
func (c *Client) SetAliases(aliases map[string]string) {
	c.parser = &Parser{Aliases: aliases}
}

// SetObserver installs a fetch observer (metrics).
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// Endpoint returns the status page URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Fetch downloads the feed and returns a fresh report. Malformed lines are
// skipped; only transport and HTTP failures are returned, as *FetchError.
func (c *Client) Fetch(ctx context.Context) (Report, error) {
	start := time.Now()

	body, err := c.doGet(ctx)
	if err != nil {
		c.observe(start, 0, err)
		return Report{}, err
	}

	report, skipped := collect(c.parser.Records(body))
	if skipped > 0 {
		logger.Debug("Skipped malformed status lines", "url", c.endpoint, "count", skipped)
	}

	c.observe(start, skipped, nil)
	return report, nil
}

func (c *Client) observe(start time.Time, skipped int, err error) {
	if c.observer != nil {
		c.observer.ObserveFetch(time.Since(start), skipped, err)
	}
}

func (c *Client) doGet(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return "", &FetchError{URL: c.endpoint, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &FetchError{URL: c.endpoint, Err: err}
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{
			URL:        c.endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d (%s)", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}
	if readErr != nil {
		return "", &FetchError{URL: c.endpoint, Err: fmt.Errorf("read body: %w", readErr)}
	}

	return string(body), nil
}
