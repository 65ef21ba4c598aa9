package price

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"nodemonitor/pkg/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	price decimal.Decimal
	err   error
}

func (f *fakeFeed) Quote(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	return f.price, f.err
}

type memoryStore struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
}

func (m *memoryStore) SetLastPrice(ctx context.Context, tokenID string, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prices == nil {
		m.prices = make(map[string]decimal.Decimal)
	}
	m.prices[tokenID] = price
	return nil
}

func (m *memoryStore) GetLastPrice(ctx context.Context, tokenID string) (decimal.Decimal, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prices[tokenID]
	return p, ok, nil
}

func TestQuoter(t *testing.T) {
	ctx := context.Background()
	feed := &fakeFeed{price: decimal.RequireFromString("0.52")}
	store := &memoryStore{}
	q := NewQuoter(feed, store, "nosana", 0.46)

	live := q.Quote(ctx)
	assert.Equal(t, SourceLive, live.Source)
	assert.True(t, decimal.RequireFromString("0.52").Equal(live.USD))

	feed.err = errors.New("rate limited")
	stale := q.Quote(ctx)
	assert.Equal(t, SourceLastGood, stale.Source)
	assert.True(t, decimal.RequireFromString("0.52").Equal(stale.USD))

	fresh := NewQuoter(feed, &memoryStore{}, "nosana", 0.46)
	fallback := fresh.Quote(ctx)
	assert.Equal(t, SourceFallback, fallback.Source)
	assert.True(t, decimal.RequireFromString("0.46").Equal(fallback.USD))
}

func TestQuoter_NonPositiveLivePriceIsIgnored(t *testing.T) {
	q := NewQuoter(&fakeFeed{price: decimal.Zero}, nil, "nosana", 0.46)
	quote := q.Quote(context.Background())
	assert.Equal(t, SourceFallback, quote.Source)
}

func TestCoinGecko_Quote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "nosana", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		_, _ = io.WriteString(w, `{"nosana":{"usd":0.476626}}`)
	}))
	defer server.Close()

	c := NewCoinGecko(config.PriceConfig{BaseURL: server.URL, Timeout: time.Second})
	usd, err := c.Quote(context.Background(), "nosana")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.476626").Equal(usd))
}

func TestCoinGecko_MissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	c := NewCoinGecko(config.PriceConfig{BaseURL: server.URL, Timeout: time.Second})
	_, err := c.Quote(context.Background(), "nosana")
	assert.Error(t, err)
}
