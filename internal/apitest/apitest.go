// Package apitest runs the full HTTP API over in-memory stores for tests.
package apitest

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/groupspend/groupspend/internal/auth"
	"github.com/groupspend/groupspend/internal/exchange"
	"github.com/groupspend/groupspend/internal/handler"
	"github.com/groupspend/groupspend/internal/metrics"
	"github.com/groupspend/groupspend/internal/repository/memstore"
	"github.com/groupspend/groupspend/internal/service"
)

// TestServiceKey signs session tokens in tests.
const TestServiceKey = "test-service-key-0123456789abcdef"

// Rates is a settable rate source.
type Rates struct {
	mu    sync.Mutex
	rates map[string]decimal.Decimal
	err   error
}

// Set replaces the rate for currency.
func (r *Rates) Set(currency, rate string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rates[currency] = decimal.RequireFromString(rate)
}

// Fail makes every lookup return err; nil restores normal lookups.
func (r *Rates) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Rate implements service.RateSource.
func (r *Rates) Rate(_ context.Context, currency string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return decimal.Zero, r.err
	}
	rate, ok := r.rates[currency]
	if !ok {
		return decimal.Zero, exchange.ErrUnknownCurrency
	}
	return rate, nil
}

// Env is a running API server and its backing fakes.
type Env struct {
	Server  *httptest.Server
	Store   *memstore.Store
	Metrics *metrics.InMemoryRecorder
	Rates   *Rates
}

// URL returns the server base URL.
func (e *Env) URL() string {
	return e.Server.URL
}

type options struct {
	publicKey string
}

// Option customizes the test server.
type Option func(*options)

// WithPublicKey requires the apikey header on API routes.
func WithPublicKey(key string) Option {
	return func(o *options) { o.publicKey = key }
}

// NewServer starts the API on an httptest server closed at test cleanup.
func NewServer(t testing.TB, opts ...Option) *Env {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	recorder := metrics.NewInMemory()
	rates := &Rates{rates: map[string]decimal.Decimal{"EUR": decimal.RequireFromString("0.9134")}}

	hasher := auth.NewPasswordHasher(auth.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	tokens := auth.NewTokenManager(TestServiceKey, time.Hour)

	identity := service.NewIdentityService(store, store, hasher, tokens, logger, recorder)
	groups := service.NewGroupService(store, store, logger, recorder)
	expenses := service.NewExpenseService(store, store, rates, logger, recorder)

	router := handler.NewRouter(handler.RouterConfig{
		Logger:        logger,
		Verifier:      identity,
		PublicKey:     o.publicKey,
		IsDevelopment: true,
		Root:          handler.New(),
		Health:        handler.NewHealthHandler(handler.Dependency{Name: "store", Checker: store}),
		Metrics:       handler.NewMetricsHandler(recorder),
		Auth:          handler.NewAuthHandler(identity, logger),
		Groups:        handler.NewGroupHandler(groups, logger),
		Expenses:      handler.NewExpenseHandler(expenses, logger),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &Env{
		Server:  srv,
		Store:   store,
		Metrics: recorder,
		Rates:   rates,
	}
}
