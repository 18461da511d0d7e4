package exchange

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/groupspend/groupspend/internal/cache"
	"github.com/groupspend/groupspend/internal/metrics"
	"github.com/shopspring/decimal"
)

type memRateCache struct {
	mu     sync.Mutex
	tables map[string]map[string]decimal.Decimal
	getErr error
}

func (m *memRateCache) GetRates(_ context.Context, base string) (map[string]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	t, ok := m.tables[base]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return t, nil
}

func (m *memRateCache) SetRates(_ context.Context, base string, rates map[string]decimal.Decimal, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tables == nil {
		m.tables = make(map[string]map[string]decimal.Decimal)
	}
	m.tables[base] = rates
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRatesServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/latest.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("app_id") != "test-app" {
			t.Errorf("app_id = %q, want test-app", r.URL.Query().Get("app_id"))
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

const sampleRates = `{"base":"USD","rates":{"EUR":0.9134,"GBP":0.7812,"USD":1}}`

func TestClient_RateFetchesAndCaches(t *testing.T) {
	t.Parallel()

	srv, hits := newRatesServer(t, http.StatusOK, sampleRates)
	rec := metrics.NewInMemory()
	c := NewClient(Config{AppID: "test-app", BaseURL: srv.URL + "/", TTL: time.Hour}, srv.Client(), &memRateCache{}, discardLogger(), rec)

	for i := 0; i < 3; i++ {
		rate, err := c.Rate(context.Background(), "eur")
		if err != nil {
			t.Fatalf("Rate failed: %v", err)
		}
		if !rate.Equal(decimal.RequireFromString("0.9134")) {
			t.Errorf("rate = %s, want 0.9134", rate)
		}
	}

	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("upstream hits = %d, want 1", got)
	}
	snap := rec.Snapshot()
	if snap.RateCacheMisses != 1 || snap.RateCacheHits != 2 {
		t.Errorf("cache hits/misses = %d/%d, want 2/1", snap.RateCacheHits, snap.RateCacheMisses)
	}
}

func TestClient_BaseCurrencyNeedsNoFetch(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{}, nil, nil, discardLogger(), nil)
	for _, code := range []string{"", "USD", " usd "} {
		rate, err := c.Rate(context.Background(), code)
		if err != nil {
			t.Fatalf("Rate(%q) failed: %v", code, err)
		}
		if !rate.Equal(decimal.NewFromInt(1)) {
			t.Errorf("Rate(%q) = %s, want 1", code, rate)
		}
	}
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		appID    string
		currency string
		want     error
	}{
		{"not configured", http.StatusOK, sampleRates, "", "EUR", ErrNotConfigured},
		{"unknown currency", http.StatusOK, sampleRates, "test-app", "XYZ", ErrUnknownCurrency},
		{"upstream 500", http.StatusInternalServerError, `{}`, "test-app", "EUR", ErrUpstream},
		{"bad json", http.StatusOK, `not json`, "test-app", "EUR", ErrUpstream},
		{"empty table", http.StatusOK, `{"base":"USD","rates":{}}`, "test-app", "EUR", ErrUpstream},
		{"wrong base", http.StatusOK, `{"base":"EUR","rates":{"GBP":0.85}}`, "test-app", "GBP", ErrUpstream},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv, _ := newRatesServer(t, tt.status, tt.body)
			c := NewClient(Config{AppID: tt.appID, BaseURL: srv.URL, TTL: time.Hour}, srv.Client(), nil, discardLogger(), nil)

			_, err := c.Rate(context.Background(), tt.currency)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_CacheFailureFallsBackToUpstream(t *testing.T) {
	t.Parallel()

	srv, hits := newRatesServer(t, http.StatusOK, sampleRates)
	broken := &memRateCache{getErr: errors.New("redis down")}
	c := NewClient(Config{AppID: "test-app", BaseURL: srv.URL, TTL: time.Hour}, srv.Client(), broken, discardLogger(), nil)

	rate, err := c.Rate(context.Background(), "GBP")
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("0.7812")) {
		t.Errorf("rate = %s, want 0.7812", rate)
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Errorf("expected one upstream request")
	}
}
