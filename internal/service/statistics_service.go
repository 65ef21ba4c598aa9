package service

import (
	"context"
	"fmt"
	"time"

	"nodemonitor/internal/model"
	"nodemonitor/pkg/interfaces"
	mysqlModel "nodemonitor/pkg/store/mysql/model"
)

// StatisticsService aggregates application-wide counters for operators
type StatisticsService struct {
	users    interfaces.UserRepository
	nodes    interfaces.NodeRepository
	earnings interfaces.EarningsRepository
	prefs    interfaces.PreferencesRepository
	tokens   interfaces.DeviceTokenRepository
	telegram interfaces.TelegramRepository
	now      func() time.Time
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(
	users interfaces.UserRepository,
	nodes interfaces.NodeRepository,
	earnings interfaces.EarningsRepository,
	prefs interfaces.PreferencesRepository,
	tokens interfaces.DeviceTokenRepository,
	telegram interfaces.TelegramRepository,
) *StatisticsService {
	return &StatisticsService{
		users:    users,
		nodes:    nodes,
		earnings: earnings,
		prefs:    prefs,
		tokens:   tokens,
		telegram: telegram,
		now:      time.Now,
	}
}

// GetAppStatistics collects the current totals
func (s *StatisticsService) GetAppStatistics(ctx context.Context) (*model.AppStatistics, error) {
	stats := &model.AppStatistics{GeneratedAt: s.now().UTC()}

	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	stats.Users = users

	byStatus, err := s.nodes.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count nodes by status: %w", err)
	}
	stats.NodesByStatus = byStatus
	for _, n := range byStatus {
		stats.Nodes += n
	}

	byJob, err := s.nodes.CountByJobStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count nodes by job status: %w", err)
	}
	stats.NodesByJob = byJob
	stats.JobsRunning = byJob[mysqlModel.JobStatusRunning]

	totals, err := s.earnings.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to total earnings: %w", err)
	}
	stats.JobsRecorded = totals.JobCount
	stats.EarningsUSD = totals.USD
	stats.EarningsNOS = totals.NOS

	if stats.TelegramLinked, err = s.telegram.CountUsers(ctx); err != nil {
		return nil, fmt.Errorf("failed to count telegram users: %w", err)
	}
	if stats.DeviceTokens, err = s.tokens.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count device tokens: %w", err)
	}

	counts, err := s.prefs.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count preferences: %w", err)
	}
	stats.Preferences = model.PreferenceStatistics{
		Offline:      counts.Offline,
		Online:       counts.Online,
		JobStarted:   counts.JobStarted,
		JobCompleted: counts.JobCompleted,
		LowBalance:   counts.LowBalance,
	}
	return stats, nil
}
