// Package exchange converts group totals using openexchangerates.org rates.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/groupspend/groupspend/internal/cache"
	"github.com/groupspend/groupspend/internal/metrics"
	"github.com/shopspring/decimal"
)

const (
	// BaseCurrency is the currency ledger amounts are recorded in and the
	// base of the upstream rate table.
	BaseCurrency = "USD"

	// ClientTimeout is the total upstream request timeout.
	ClientTimeout = 10 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second

	// maxResponseBytes caps the upstream response body.
	maxResponseBytes = 1 << 20
)

var (
	// ErrNotConfigured indicates no application id was configured.
	ErrNotConfigured = errors.New("exchange rates are not configured")
	// ErrUnknownCurrency indicates the requested code is not in the rate table.
	ErrUnknownCurrency = errors.New("unknown currency")
	// ErrUpstream indicates the rate provider failed or returned garbage.
	ErrUpstream = errors.New("exchange rate provider unavailable")
)

// RateCache stores rate tables between upstream fetches.
type RateCache interface {
	GetRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
	SetRates(ctx context.Context, base string, rates map[string]decimal.Decimal, ttl time.Duration) error
}

// Config configures a Client.
type Config struct {
	AppID   string
	BaseURL string
	TTL     time.Duration
}

// Client fetches exchange rates with a read-through cache.
type Client struct {
	cfg     Config
	http    *http.Client
	cache   RateCache
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewHTTPClient creates an HTTP client for upstream rate requests.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   DialTimeout,
			ResponseHeaderTimeout: ClientTimeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// NewClient creates a rate client. httpClient and rateCache may be nil.
func NewClient(cfg Config, httpClient *http.Client, rateCache RateCache, logger *slog.Logger, recorder metrics.Recorder) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		cache:   rateCache,
		logger:  logger.With("component", "exchange"),
		metrics: recorder,
	}
}

// Rate returns how many units of currency one BaseCurrency unit buys.
func (c *Client) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" || code == BaseCurrency {
		return decimal.NewFromInt(1), nil
	}

	rates, err := c.Rates(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	rate, ok := rates[code]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	return rate, nil
}

// Rates returns the current rate table, from cache when fresh.
func (c *Client) Rates(ctx context.Context) (map[string]decimal.Decimal, error) {
	if c.cfg.AppID == "" {
		return nil, ErrNotConfigured
	}

	if c.cache != nil {
		rates, err := c.cache.GetRates(ctx, BaseCurrency)
		switch {
		case err == nil:
			c.metrics.IncRateCacheHit()
			return rates, nil
		case errors.Is(err, cache.ErrCacheMiss):
		default:
			// Cache unavailable; fall through to upstream
			c.logger.Warn("rate cache read failed", "error", err)
		}
		c.metrics.IncRateCacheMiss()
	}

	rates, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetRates(ctx, BaseCurrency, rates, c.cfg.TTL); err != nil {
			c.logger.Warn("rate cache write failed", "error", err)
		}
	}
	return rates, nil
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (c *Client) fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	endpoint := c.cfg.BaseURL + "/latest.json?" + url.Values{"app_id": {c.cfg.AppID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveRateFetchDuration(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty rate table", ErrUpstream)
	}
	if body.Base != "" && body.Base != BaseCurrency {
		return nil, fmt.Errorf("%w: unexpected base %s", ErrUpstream, body.Base)
	}

	c.logger.Debug("exchange rates fetched", "count", len(body.Rates), "duration", time.Since(start))
	return body.Rates, nil
}
