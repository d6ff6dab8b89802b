package archiveorg

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

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"opdsapi/internal/logging"
	"opdsapi/internal/metrics"
)

var (
	// ErrNotFound is returned when an identifier has no item.
	ErrNotFound = errors.New("archive.org item not found")
	// ErrCircuitOpen is returned while the breaker for an endpoint is open.
	ErrCircuitOpen = errors.New("archive.org circuit open")
)

// StatusError is an unexpected upstream HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
	S3Access          string
	S3Secret          string
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	auth       string
	limiter    *rate.Limiter
	maxRetries int
	searchCB   *gobreaker.CircuitBreaker[[]byte]
	metadataCB *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 50
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1),
		maxRetries: cfg.MaxRetries,
	}
	if cfg.S3Access != "" {
		c.auth = "LOW " + cfg.S3Access + ":" + cfg.S3Secret
	}
	c.searchCB = newBreaker("archiveorg-search", cfg.BreakerFailures, cfg.BreakerTimeout)
	c.metadataCB = newBreaker("archiveorg-metadata", cfg.BreakerFailures, cfg.BreakerTimeout)
	return c
}

// SearchParams is one advancedsearch.php call.
type SearchParams struct {
	Query    string
	Sort     []string
	Page     int
	Rows     int
	ClientIP string
}

// SearchResponse matches advancedsearch.php?output=json
type SearchResponse struct {
	Response struct {
		NumFound int `json:"numFound"`
		Start    int `json:"start"`
		Docs     []struct {
			Identifier string `json:"identifier"`
		} `json:"docs"`
	} `json:"response"`
}

// Item matches /metadata/{identifier}. Metadata values are strings or lists
// of strings depending on the item.
type Item struct {
	Metadata map[string]any `json:"metadata"`
	Files    []File         `json:"files"`
	IsDark   bool           `json:"is_dark"`
}

type File struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Title  string `json:"title"`
	Length string `json:"length"`
	Size   string `json:"size"`
}

func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	v := url.Values{}
	v.Set("q", p.Query)
	v.Add("fl[]", "identifier")
	v.Set("rows", strconv.Itoa(p.Rows))
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("output", "json")
	v.Set("application_id", "opds")
	for _, s := range p.Sort {
		v.Add("sort[]", s)
	}
	if p.ClientIP != "" {
		v.Set("preferred_client_ip", p.ClientIP)
	}

	body, err := c.call(ctx, c.searchCB, "search", c.baseURL+"/advancedsearch.php?"+v.Encode(), p.ClientIP)
	if err != nil {
		return nil, err
	}
	var res SearchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &res, nil
}

// Metadata fetches one item's metadata and file list.
func (c *Client) Metadata(ctx context.Context, identifier, clientIP string) (*Item, error) {
	u := fmt.Sprintf("%s/metadata/%s", c.baseURL, url.PathEscape(identifier))
	if clientIP != "" {
		u += "?" + url.Values{"preferred_client_ip": {clientIP}}.Encode()
	}

	body, err := c.call(ctx, c.metadataCB, "metadata", u, clientIP)
	if err != nil {
		return nil, err
	}
	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", identifier, err)
	}
	// Unknown identifiers come back as an empty object.
	if len(item.Metadata) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, identifier)
	}
	return &item, nil
}

// DownloadURL is the public URL of one file of an item.
func (c *Client) DownloadURL(identifier, name string) string {
	return fmt.Sprintf("%s/download/%s/%s", c.baseURL, url.PathEscape(identifier), escapeFilePath(name))
}

func escapeFilePath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (c *Client) call(ctx context.Context, cb *gobreaker.CircuitBreaker[[]byte], endpoint, u, clientIP string) ([]byte, error) {
	start := time.Now()
	body, err := cb.Execute(func() ([]byte, error) {
		return c.get(ctx, u, clientIP)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(cb.Name(), "rejected").Inc()
		err = fmt.Errorf("%w: %s", ErrCircuitOpen, cb.Name())
	} else if err != nil {
		metrics.CircuitBreakerRequests.WithLabelValues(cb.Name(), "failure").Inc()
	} else {
		metrics.CircuitBreakerRequests.WithLabelValues(cb.Name(), "success").Inc()
	}
	metrics.RecordUpstream(endpoint, time.Since(start), err)
	return body, err
}

func (c *Client) get(ctx context.Context, u, clientIP string) ([]byte, error) {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1s, 2s, 4s...
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retry, err := c.do(ctx, u, clientIP)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, u, clientIP string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}
	if clientIP != "" {
		req.Header.Set("X-Forwarded-For", clientIP)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, &StatusError{Code: resp.StatusCode}
	default:
		return nil, false, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}

func newBreaker(name string, failures uint32, timeout time.Duration) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= failures
			if trip {
				logging.Warn().Str("breaker", name).Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("opening circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		// Missing items and caller cancellation say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
