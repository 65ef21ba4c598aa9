package service

import (
	"context"
	"testing"
	"time"

	"nodemonitor/internal/model"
	"nodemonitor/pkg/config"
	mysqlModel "nodemonitor/pkg/store/mysql/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsService_GetAppStatistics(t *testing.T) {
	env := newTestEnv(config.EarningsModeTransition)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, "ops@example.com", "Secret123", "")
	require.NoError(t, err)
	uid := reg.User.ID

	node := env.addNode(uid, "n1", addrA, mysqlModel.NodeStatusOnline, mysqlModel.JobStatusRunning)
	env.addNode(uid, "n2", addrB, mysqlModel.NodeStatusOffline, mysqlModel.JobStatusIdle)
	env.addNode(uid, "n3", addrC, mysqlModel.NodeStatusOnline, mysqlModel.JobStatusRunning)

	now := time.Now()
	require.NoError(t, env.earnings.Record(ctx, env.earnings.NewEntry(node, nil, now, 3600, hourJob(t, env)), now))
	require.NoError(t, env.notifications.RegisterToken(ctx, uid, "tok", "ios"))
	off := false
	_, err = env.notifications.UpdatePreferences(ctx, uid, &model.PreferencesRequest{NotifyJobStarted: &off})
	require.NoError(t, err)

	stats, err := env.statistics.GetAppStatistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(3), stats.Nodes)
	assert.Equal(t, int64(2), stats.NodesByStatus[mysqlModel.NodeStatusOnline])
	assert.Equal(t, int64(2), stats.JobsRunning)
	assert.Equal(t, int64(1), stats.JobsRecorded)
	assert.InDelta(t, 0.176, stats.EarningsUSD, 1e-9)
	assert.InDelta(t, 0.4, stats.EarningsNOS, 1e-9)
	assert.Equal(t, int64(1), stats.DeviceTokens)
	assert.Equal(t, int64(0), stats.TelegramLinked)
	assert.Equal(t, int64(1), stats.Preferences.Offline)
	assert.Equal(t, int64(0), stats.Preferences.JobStarted)
}
