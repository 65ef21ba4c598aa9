package interfaces

import (
	"context"
	"time"

	"nodemonitor/pkg/dashboard"
	"nodemonitor/pkg/lock"
	"nodemonitor/pkg/price"
	"nodemonitor/pkg/solana"
)

// AccountLookup reads on-chain account state.
type AccountLookup interface {
	Lookup(ctx context.Context, address string) (*solana.AccountState, error)
}

// PageScraper fetches a node's dashboard page.
type PageScraper interface {
	Scrape(ctx context.Context, address string) (*dashboard.Page, error)
}

// PriceQuoter returns the current token price. It never fails.
type PriceQuoter interface {
	Quote(ctx context.Context) price.Quote
}

// LoginAttemptStore tracks failed logins per account.
type LoginAttemptStore interface {
	RecordFailure(ctx context.Context, email string, at time.Time, window time.Duration) error
	CountFailures(ctx context.Context, email string, since time.Time) (int64, error)
	Reset(ctx context.Context, email string) error
}

// AlertStore deduplicates alerts across instances.
type AlertStore interface {
	// Claim reports whether the caller won the right to send this alert
	// within the cooldown.
	Claim(ctx context.Context, key string, cooldown time.Duration) (bool, error)
}

// Locker creates named distributed locks.
type Locker interface {
	NewLock(key string) lock.DistributedLock
}
