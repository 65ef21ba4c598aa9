package service

import (
	"context"
	"sync/atomic"
	"time"

	"nodemonitor/pkg/interfaces"
	"nodemonitor/pkg/logger"

	"github.com/remeh/sizedwaitgroup"
)

// SweepResult summarizes one sweep over all users
type SweepResult struct {
	Users     int
	Skipped   int64 // users whose refresh lock was held
	Failed    int64
	Refreshed int64
	Duration  time.Duration
}

// Sweeper periodically reconciles every node of every user. Users run
// concurrently up to the configured limit, each user's nodes in turn.
type Sweeper struct {
	users       interfaces.UserRepository
	reconciler  *Reconciler
	concurrency int
}

// NewSweeper creates a sweeper
func NewSweeper(users interfaces.UserRepository, reconciler *Reconciler, concurrency int) *Sweeper {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Sweeper{users: users, reconciler: reconciler, concurrency: concurrency}
}

// Run sweeps all users with at least one node
func (s *Sweeper) Run(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	userIDs, err := s.users.ListIDsWithNodes(ctx)
	if err != nil {
		return nil, err
	}

	var skipped, failed, refreshed atomic.Int64
	swg := sizedwaitgroup.New(s.concurrency)
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			break
		}
		swg.Add()
		go func(userID string) {
			defer swg.Done()
			resp, err := s.reconciler.RefreshUser(ctx, userID)
			switch {
			case IsRefreshInProgress(err):
				skipped.Add(1)
			case err != nil:
				logger.ErrorCtx(ctx, "sweep failed for user %s: %v", userID, err)
				failed.Add(1)
			default:
				failed.Add(int64(resp.Failed))
				refreshed.Add(int64(resp.Refreshed))
			}
		}(userID)
	}
	swg.Wait()

	return &SweepResult{
		Users:     len(userIDs),
		Skipped:   skipped.Load(),
		Failed:    failed.Load(),
		Refreshed: refreshed.Load(),
		Duration:  time.Since(start),
	}, ctx.Err()
}
