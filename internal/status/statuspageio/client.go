// Package statuspageio implements status.Provider against the public
// Statuspage v2 components endpoint.
package statuspageio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/statusrelay/statusrelay/internal/provider/resilience"
	"github.com/statusrelay/statusrelay/internal/service"
	"github.com/statusrelay/statusrelay/internal/status"
	"github.com/statusrelay/statusrelay/internal/telemetry"
)

const (
	// ProviderName identifies this provider in logs and metrics.
	ProviderName = "statuspage"

	// DefaultMaxBodyBytes caps how much of a provider body is read.
	DefaultMaxBodyBytes int64 = 5 << 20

	tracerName = "github.com/statusrelay/statusrelay/internal/status/statuspageio"
)

// ErrBodyTooLarge is returned when a provider body exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// ClientConfig holds configuration for the Statuspage client.
type ClientConfig struct {
	// Registry lists the services a client is built for. Required.
	Registry *service.Registry

	// BaseURL replaces "https://{host}" for every service when set.
	// Used to point all lookups at a mirror or a test server.
	BaseURL string

	// Timeout bounds each outbound call. Zero means no timeout.
	Timeout time.Duration

	// CircuitBreaker enables a per-service circuit breaker when non-nil.
	CircuitBreaker *resilience.CircuitBreakerConfig

	// Health receives per-service success/failure records (optional).
	Health *resilience.Registry

	// UserAgent is sent on every request when non-empty.
	UserAgent string

	// MaxBodyBytes caps the body size. Default: DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// ProviderMetrics records OpenTelemetry request metrics (optional).
	ProviderMetrics *telemetry.ProviderMetrics

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches components documents, one resilient HTTP client per service.
type Client struct {
	baseURL      string
	clients      map[string]*resilience.Client
	maxBodyBytes int64
	metrics      *telemetry.ProviderMetrics
	tracer       trace.Tracer
	logger       zerolog.Logger
}

// NewClient creates a Statuspage client for every service in cfg.Registry.
func NewClient(cfg ClientConfig) *Client {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clients:      make(map[string]*resilience.Client, cfg.Registry.Len()),
		maxBodyBytes: maxBody,
		metrics:      cfg.ProviderMetrics,
		tracer:       otel.Tracer(tracerName),
		logger:       cfg.Logger.With().Str("provider", ProviderName).Logger(),
	}

	for _, d := range cfg.Registry.Descriptors() {
		hc := resilience.DefaultClientConfig(d.Key)
		hc.Timeout = cfg.Timeout
		hc.Registry = cfg.Health
		hc.UserAgent = cfg.UserAgent
		if cfg.CircuitBreaker != nil {
			cb := *cfg.CircuitBreaker
			cb.Name = d.Key
			cb.OnStateChange = resilience.LogStateChanges(c.logger)
			hc.CircuitBreaker = &cb
		}
		c.clients[d.Key] = resilience.NewClient(hc)
	}

	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// URL returns the components URL used for svc.
func (c *Client) URL(svc service.Descriptor) string {
	if c.baseURL != "" {
		return c.baseURL + service.ComponentsPath
	}
	return svc.ComponentsURL()
}

// GetComponents issues one GET for svc and parses the body.
// Non-2xx responses are not rejected; their body is parsed like any other.
func (c *Client) GetComponents(ctx context.Context, svc service.Descriptor) (doc *status.Document, err error) {
	url := c.URL(svc)

	ctx, span := c.tracer.Start(ctx, "statuspage.GetComponents",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("service.key", svc.Key),
			attribute.String("http.url", url),
		),
	)
	start := time.Now()
	defer func() {
		c.metrics.RecordRequest(ctx, ProviderName, svc.Key, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	hc, ok := c.clients[svc.Key]
	if !ok {
		hc = resilience.NewClient(resilience.DefaultClientConfig(svc.Key))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &status.RequestError{Service: svc.Key, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, &status.RequestError{Service: svc.Key, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := readWithLimit(resp.Body, c.maxBodyBytes)
	if err != nil {
		return nil, &status.RequestError{Service: svc.Key, Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug().
			Str("service", svc.Key).
			Int("status", resp.StatusCode).
			Msg("non-2xx status from provider, parsing body anyway")
	}

	doc, err = decodeDocument(body)
	if err != nil {
		return nil, &status.ParseError{Service: svc.Key, Err: err}
	}
	return doc, nil
}

func readWithLimit(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}
