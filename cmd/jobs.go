package main

import (
	"context"
	"fmt"
	"time"

	"nodemonitor/internal/jobs"
	"nodemonitor/internal/service"
	"nodemonitor/pkg/lock"
	"nodemonitor/pkg/logger"
)

func (app *Application) initJobs() error {
	if app.sweeper == nil || app.notificationService == nil {
		logger.WarnCtx(app.ctx, "Service layer not fully initialized yet, skipping background task registration")
		return nil
	}

	manager := jobs.NewManager(app.ctx)

	interval := app.config.Monitor.PollInterval

	// The sweep lock is renewed while a long sweep runs.
	sweepLock := app.locks.NewLock("sweep:node-status-lock")
	linkCodeLock := app.locks.NewLock("cleanup:link-code-lock")

	manager.Register(newNodeStatusSweepJob(interval, app.sweeper, sweepLock))
	manager.Register(newLinkCodeCleanupJob(time.Hour, app.notificationService, linkCodeLock))

	app.jobsManager = manager
	return nil
}

// nodeStatusSweepJob reconciles every monitored node.
type nodeStatusSweepJob struct {
	interval        time.Duration
	sweeper         *service.Sweeper
	distributedLock lock.DistributedLock
}

func newNodeStatusSweepJob(interval time.Duration, sweeper *service.Sweeper, lock lock.DistributedLock) jobs.ExclusiveJob {
	return &nodeStatusSweepJob{
		interval:        interval,
		sweeper:         sweeper,
		distributedLock: lock,
	}
}

func (j *nodeStatusSweepJob) Name() string {
	return "node-status-sweep"
}

func (j *nodeStatusSweepJob) Interval() time.Duration {
	return j.interval
}

func (j *nodeStatusSweepJob) Lock() jobs.Locker {
	if j.distributedLock == nil {
		return nil
	}
	return j.distributedLock
}

func (j *nodeStatusSweepJob) Run(ctx context.Context) error {
	if j.sweeper == nil {
		return fmt.Errorf("sweeper not configured")
	}

	result, err := j.sweeper.Run(ctx)
	if err != nil {
		return err
	}
	logger.InfoCtx(ctx, "node status sweep done, users: %d, refreshed: %d, failed: %d, skipped: %d, took: %v",
		result.Users, result.Refreshed, result.Failed, result.Skipped, result.Duration.Round(time.Millisecond))
	return nil
}

// linkCodeCleanupJob deletes expired Telegram link codes.
type linkCodeCleanupJob struct {
	interval            time.Duration
	notificationService *service.NotificationService
	distributedLock     lock.DistributedLock
}

func newLinkCodeCleanupJob(interval time.Duration, svc *service.NotificationService, lock lock.DistributedLock) jobs.ExclusiveJob {
	return &linkCodeCleanupJob{
		interval:            interval,
		notificationService: svc,
		distributedLock:     lock,
	}
}

func (j *linkCodeCleanupJob) Name() string {
	return "link-code-cleanup"
}

func (j *linkCodeCleanupJob) Interval() time.Duration {
	return j.interval
}

func (j *linkCodeCleanupJob) Lock() jobs.Locker {
	if j.distributedLock == nil {
		return nil
	}
	return j.distributedLock
}

func (j *linkCodeCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.notificationService.CleanupLinkCodes(ctx)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logger.InfoCtx(ctx, "deleted %d expired telegram link codes", deleted)
	}
	return nil
}
