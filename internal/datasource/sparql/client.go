// Package sparql implements datasource.Source over a SPARQL 1.1 query
// endpoint.
//
// Queries are sent as form-encoded POST requests and answers are read as
// application/sparql-results+json. Transient failures (connection errors
// and 5xx responses) are retried with backoff; other non-2xx responses
// fail immediately. An optional token bucket bounds the request rate so a
// wide Expand phase does not flood a shared endpoint.
package sparql

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/ir"
)

// Defaults for client options.
const (
	DefaultTimeout = 30 * time.Second
	DefaultRetries = 3
)

const resultsMediaType = "application/sparql-results+json"

// StatusError is returned for a non-2xx response that is not retried.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sparql endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Client is a SPARQL endpoint data source.
//
// Thread-safety: safe for concurrent use. The underlying HTTP client and
// rate limiter are shared.
type Client struct {
	endpoint   string
	http       *retryablehttp.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	timeout    time.Duration
	retries    int
	httpClient *http.Client
}

var _ datasource.Source = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each HTTP attempt. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetries sets how many times a transient failure is retried.
// Default: 3.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.retries = max(n, 0)
	}
}

// WithRateLimit allows perSecond requests with the given burst.
// perSecond <= 0 disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the pooled client. Its Timeout is left as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the query endpoint URL.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q: scheme must be http or https", endpoint)
	}

	c := &Client{
		endpoint: endpoint,
		logger:   slog.Default(),
		timeout:  DefaultTimeout,
		retries:  DefaultRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = cleanhttp.DefaultPooledClient()
		c.httpClient.Timeout = c.timeout
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = c.httpClient
	rc.RetryMax = c.retries
	rc.RetryWaitMin = 50 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = c.logger
	c.http = rc
	return c, nil
}

// Endpoint returns the endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Select sends a SELECT query and returns its distinct bindings.
func (c *Client) Select(ctx context.Context, query string) (datasource.ResultSet, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	form := url.Values{"query": {query}}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", resultsMediaType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sparql request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return decodeResults(resp.Body)
}

// Evaluate implements datasource.Evaluator.
func (c *Client) Evaluate(ctx context.Context, q *ir.Query) (datasource.ResultSet, error) {
	return c.Select(ctx, ir.Render(q, ir.RenderOptions{Distinct: true}))
}

// Count implements datasource.Evaluator with a COUNT over a DISTINCT
// subselect limited to limit rows.
func (c *Client) Count(ctx context.Context, q *ir.Query, limit int) (int, error) {
	rs, err := c.Select(ctx, ir.Render(q, ir.RenderOptions{CountAs: "n", Limit: max(limit, 0)}))
	if err != nil {
		return 0, err
	}
	n, err := scalar(rs, "n")
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (c *Client) count(ctx context.Context, query string) (int64, error) {
	rs, err := c.Select(ctx, query)
	if err != nil {
		return 0, err
	}
	return scalar(rs, "n")
}

// ClassFrequency implements datasource.Statistics.
func (c *Client) ClassFrequency(ctx context.Context, class ir.Term) (datasource.Frequency, error) {
	typ := ir.IRI(ir.RDFType).String()
	n, err := c.count(ctx, fmt.Sprintf("SELECT (COUNT(DISTINCT ?s) AS ?n) WHERE { ?s %s %s }", typ, class))
	if err != nil {
		return datasource.Frequency{}, fmt.Errorf("class frequency %s: %w", class, err)
	}
	total, err := c.count(ctx, fmt.Sprintf("SELECT (COUNT(DISTINCT ?s) AS ?n) WHERE { ?s %s ?c }", typ))
	if err != nil {
		return datasource.Frequency{}, fmt.Errorf("class frequency total: %w", err)
	}
	return datasource.Frequency{Count: n, Total: total}, nil
}

// PropertyFrequency implements datasource.Statistics.
func (c *Client) PropertyFrequency(ctx context.Context, property ir.Term) (datasource.Frequency, error) {
	n, err := c.count(ctx, fmt.Sprintf("SELECT (COUNT(*) AS ?n) WHERE { ?s %s ?o }", property))
	if err != nil {
		return datasource.Frequency{}, fmt.Errorf("property frequency %s: %w", property, err)
	}
	total, err := c.count(ctx, "SELECT (COUNT(*) AS ?n) WHERE { ?s ?p ?o }")
	if err != nil {
		return datasource.Frequency{}, fmt.Errorf("property frequency total: %w", err)
	}
	return datasource.Frequency{Count: n, Total: total}, nil
}

// BroaderClasses implements datasource.Ontology.
func (c *Client) BroaderClasses(ctx context.Context, class ir.Term) ([]ir.Term, error) {
	return c.broader(ctx, class, ir.RDFSSubClassOf)
}

// BroaderProperties implements datasource.Ontology.
func (c *Client) BroaderProperties(ctx context.Context, property ir.Term) ([]ir.Term, error) {
	return c.broader(ctx, property, ir.RDFSSubPropertyOf)
}

func (c *Client) broader(ctx context.Context, t ir.Term, edge string) ([]ir.Term, error) {
	if t.Kind != ir.KindIRI {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT DISTINCT ?b WHERE { %s %s ?b . FILTER(?b != %s) } ORDER BY ?b",
		t, ir.IRI(edge), t)
	rs, err := c.Select(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("broader %s: %w", t, err)
	}
	out := make([]ir.Term, 0, len(rs))
	for _, b := range rs {
		if v, ok := b["b"]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}
