package price

import (
	"context"

	"nodemonitor/pkg/logger"

	"github.com/shopspring/decimal"
)

// Source reports where a quoted price came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceLastGood Source = "last_good"
	SourceFallback Source = "fallback"
)

// Feed is a live price source.
type Feed interface {
	Quote(ctx context.Context, tokenID string) (decimal.Decimal, error)
}

// LastGoodStore remembers the most recent successful quote.
type LastGoodStore interface {
	SetLastPrice(ctx context.Context, tokenID string, price decimal.Decimal) error
	GetLastPrice(ctx context.Context, tokenID string) (decimal.Decimal, bool, error)
}

// Quote is a price with its provenance.
type Quote struct {
	USD    decimal.Decimal `json:"usd"`
	Source Source          `json:"source"`
}

// Quoter fetches a live price per call and degrades to the last good price,
// then to a fixed fallback. It never fails.
type Quoter struct {
	feed     Feed
	store    LastGoodStore
	tokenID  string
	fallback decimal.Decimal
}

// NewQuoter creates a quoter. store may be nil.
func NewQuoter(feed Feed, store LastGoodStore, tokenID string, fallback float64) *Quoter {
	return &Quoter{
		feed:     feed,
		store:    store,
		tokenID:  tokenID,
		fallback: decimal.NewFromFloat(fallback),
	}
}

// Quote returns the current token price.
func (q *Quoter) Quote(ctx context.Context) Quote {
	usd, err := q.feed.Quote(ctx, q.tokenID)
	if err == nil && usd.IsPositive() {
		if q.store != nil {
			if sErr := q.store.SetLastPrice(ctx, q.tokenID, usd); sErr != nil {
				logger.WarnCtx(ctx, "failed to store last good price: %v", sErr)
			}
		}
		return Quote{USD: usd, Source: SourceLive}
	}
	logger.WarnCtx(ctx, "live %s price unavailable: %v", q.tokenID, err)

	if q.store != nil {
		last, ok, sErr := q.store.GetLastPrice(ctx, q.tokenID)
		if sErr != nil {
			logger.WarnCtx(ctx, "failed to read last good price: %v", sErr)
		}
		if ok && last.IsPositive() {
			return Quote{USD: last, Source: SourceLastGood}
		}
	}

	return Quote{USD: q.fallback, Source: SourceFallback}
}
