// Package fetch retrieves listing pages and ranking JSON from the ranking
// site.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/ffbrank/ffbrank/pkg/logger"
	"github.com/ffbrank/ffbrank/pkg/metrics"
)

// Fetch kinds used as metric labels.
const (
	KindDocument = "document"
	KindAPI      = "api"
)

// Client performs rate-limited GET requests. Non-success responses are
// logged and reported as a nil result without an error; an error means the
// request itself could not be made (or ctx ended).
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	log     logger.Logger

	timeout   time.Duration
	retries   int
	userAgent string
	rps       float64
	burst     int
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets how often transport errors and 5xx/429 responses are
// retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit allows rps requests per second with the given burst.
// rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.rps = rps
		if burst > 0 {
			c.burst = burst
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a fetch client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout:   20 * time.Second,
		userAgent: "ffbrank/1.0",
		rps:       4,
		burst:     2,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Named("fetch")
	}

	limit := rate.Inf
	if c.rps > 0 {
		limit = rate.Limit(c.rps)
	}
	c.limiter = rate.NewLimiter(limit, c.burst)

	c.http = resty.New().
		SetTimeout(c.timeout).
		SetHeader("User-Agent", c.userAgent).
		SetRetryCount(c.retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
	return c
}

// Document fetches url with query and parses the body as HTML.
func (c *Client) Document(ctx context.Context, url string, query map[string]string) (*goquery.Document, error) {
	body, err := c.get(ctx, KindDocument, url, query)
	if err != nil || body == nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.log.Warn(ctx, "unparseable document", logger.String("url", url), logger.Error(err))
		return nil, nil
	}
	return doc, nil
}

// JSON fetches url with query and decodes the body as a JSON object.
// Numbers are kept as json.Number.
func (c *Client) JSON(ctx context.Context, url string, query map[string]string) (map[string]any, error) {
	body, err := c.get(ctx, KindAPI, url, query)
	if err != nil || body == nil {
		return nil, err
	}
	var out map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		c.log.Warn(ctx, "undecodable api response", logger.String("url", url), logger.Error(err))
		return nil, nil
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, kind, url string, query map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(url)
	ms := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordFetch(kind, "transport_error", ms)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if !res.IsSuccess() {
		metrics.RecordFetch(kind, "http_error", ms)
		c.log.Warn(ctx, "request failed",
			logger.String("url", url),
			logger.Int("status", res.StatusCode()),
			logger.String("reason", res.Status()),
		)
		return nil, nil
	}
	metrics.RecordFetch(kind, "ok", ms)
	c.log.Debug(ctx, "fetched", logger.String("url", url), logger.Int("bytes", len(res.Body())))
	return res.Body(), nil
}
