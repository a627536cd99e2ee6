// Package upstream talks to the market-data provider: the aggregated ticker,
// the kline endpoints and the spot exchange info.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNoData is returned when the provider answered without usable data.
var ErrNoData = errors.New("upstream returned no usable data")

const (
	successCode      = "000000"
	coldStartHost    = "onrender.com"
	badGatewayWait   = 3 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// Config controls request routing, timeouts and retries.
type Config struct {
	// ProxyURL is tried first with the target passed as ?url=. Empty disables it.
	ProxyURL         string
	ProxyTimeout     time.Duration
	ColdStartTimeout time.Duration
	RequestTimeout   time.Duration
	MaxAttempts      int
	RetryWait        time.Duration
	// RequestsPerSecond paces every outgoing request. Zero means unpaced.
	RequestsPerSecond float64
	Referer           string
}

// Acceptor decides whether a 200 response body carries usable data.
type Acceptor func(body []byte) bool

// AcceptEnvelope accepts provider envelopes with the success code and the
// exchange info document, which carries a symbols array instead.
func AcceptEnvelope(body []byte) bool {
	var env struct {
		Code    string          `json:"code"`
		Symbols json.RawMessage `json:"symbols"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return false
	}
	if env.Code == successCode {
		return true
	}
	return len(env.Symbols) > 0 && string(env.Symbols) != "null"
}

// AcceptJSON accepts any well-formed JSON body.
func AcceptJSON(body []byte) bool {
	return json.Valid(body)
}

type callOptions struct {
	attempts int
	accept   Acceptor
}

// CallOption customises a single call.
type CallOption func(*callOptions)

// WithAttempts overrides the number of attempts for one call.
func WithAttempts(n int) CallOption {
	return func(o *callOptions) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// WithAcceptor overrides the response acceptance rule for one call.
func WithAcceptor(accept Acceptor) CallOption {
	return func(o *callOptions) {
		if accept != nil {
			o.accept = accept
		}
	}
}

// Client fetches JSON documents through an optional proxy with direct fallback.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.ProxyTimeout <= 0 {
		cfg.ProxyTimeout = 30 * time.Second
	}
	if cfg.ColdStartTimeout <= 0 {
		cfg.ColdStartTimeout = 60 * time.Second
	}
	if cfg.RetryWait < 0 {
		cfg.RetryWait = 0
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// GetJSON fetches target and decodes the accepted body into out.
func (c *Client) GetJSON(ctx context.Context, target string, out any, opts ...CallOption) error {
	body, err := c.Get(ctx, target, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Get fetches target, retrying each failed attempt after a constant wait.
func (c *Client) Get(ctx context.Context, target string, opts ...CallOption) ([]byte, error) {
	if target == "" {
		return nil, fmt.Errorf("target url is required")
	}

	o := callOptions{attempts: c.cfg.MaxAttempts, accept: AcceptEnvelope}
	for _, opt := range opts {
		opt(&o)
	}

	var body []byte
	attempt := 0
	operation := func() error {
		b, err := c.attempt(ctx, target, attempt, o.accept)
		attempt++
		if err != nil {
			c.logger.Debug("request attempt failed", zap.String("url", target), zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		body = b
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.RetryWait), uint64(o.attempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("get %s: %w", target, err)
	}
	return body, nil
}

func (c *Client) attempt(ctx context.Context, target string, n int, accept Acceptor) ([]byte, error) {
	if c.cfg.ProxyURL != "" {
		timeout := c.cfg.ProxyTimeout
		if n == 0 && strings.Contains(c.cfg.ProxyURL, coldStartHost) {
			timeout = c.cfg.ColdStartTimeout
		}

		proxied, err := proxyURL(c.cfg.ProxyURL, target)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		body, status, err := c.do(ctx, proxied, timeout)
		switch {
		case err != nil:
			c.logger.Debug("proxy request failed", zap.String("url", target), zap.Error(err))
		case status == http.StatusOK && accept(body):
			return body, nil
		case status == http.StatusBadGateway:
			if err := sleep(ctx, badGatewayWait); err != nil {
				return nil, backoff.Permanent(err)
			}
		}
	}

	body, status, err := c.do(ctx, target, c.cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", status)
	}
	if !accept(body) {
		return nil, ErrNoData
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("Referer", c.cfg.Referer)
		if origin, err := url.Parse(c.cfg.Referer); err == nil {
			req.Header.Set("Origin", origin.Scheme+"://"+origin.Host)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func proxyURL(proxy, target string) (string, error) {
	u, err := url.Parse(proxy)
	if err != nil {
		return "", fmt.Errorf("parse proxy url: %w", err)
	}
	q := u.Query()
	q.Set("url", target)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
