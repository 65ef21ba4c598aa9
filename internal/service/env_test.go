package service

import (
	"context"
	"time"

	"nodemonitor/pkg/config"
	"nodemonitor/pkg/earnings"
	"nodemonitor/pkg/lock"
	"nodemonitor/pkg/notification"
	"nodemonitor/pkg/store/mysql/model"

	"github.com/shopspring/decimal"
)

const (
	addrA = "nosXBVoaCTtYdLvKY6Csb4AC8JCdQKKAaWYtx2ZMoo7"
	addrB = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	addrC = "So11111111111111111111111111111111111111112"
)

type testEnv struct {
	store    *memStore
	tracking *mockTrackingRepository
	accounts *mockAccounts
	scraper  *mockScraper
	queue    *recordingQueue
	alerts   *mockAlertStore
	hub      *StatusHub
	locks    *lock.Factory

	auth          *AuthService
	nodes         *NodeService
	earnings      *EarningsService
	notifications *NotificationService
	reconciler    *Reconciler
	statistics    *StatisticsService
}

func newTestEnv(mode string) *testEnv {
	st := newMemStore()
	env := &testEnv{
		store:    st,
		tracking: &mockTrackingRepository{memStore: st},
		accounts: &mockAccounts{},
		scraper:  &mockScraper{},
		queue:    &recordingQueue{},
		alerts:   &mockAlertStore{},
		hub:      NewStatusHub(),
		locks:    lock.NewFactory(nil),
	}

	users := mockUserRepository{st}
	nodes := mockNodeRepository{st}
	earningsRepo := mockEarningsRepository{st}
	scraped := mockScrapedJobRepository{st}
	prefs := mockPreferencesRepository{st}
	tokens := mockDeviceTokenRepository{st}
	telegram := mockTelegramRepository{st}

	env.auth = NewAuthService(users, prefs, newMockLoginAttempts(), mockTx{st}, config.AuthConfig{
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
		MaxFailedLogins: 5,
		LockoutWindow:   15 * time.Minute,
	})
	env.nodes = NewNodeService(nodes, earningsRepo, env.tracking, scraped, mockTx{st}, 3)

	calc := earnings.NewCalculator(earnings.NewRateTable(config.DefaultRates(), "3090"))
	quoter := fixedQuoter{usd: decimal.RequireFromString("0.44")}
	env.earnings = NewEarningsService(earningsRepo, env.tracking, scraped, nodes, mockTx{st},
		env.scraper, quoter, calc, mode, time.UTC)

	env.notifications = NewNotificationService(prefs, tokens, telegram,
		notification.Templates{DashboardBase: "https://dashboard.nosana.com/host/"})
	env.notifications.SetQueue(env.queue)

	env.reconciler = NewReconciler(nodes, env.accounts, env.scraper, quoter, env.earnings,
		env.notifications, env.alerts, env.locks, env.hub,
		config.MonitorConfig{LowBalanceThreshold: 0.006, AlertCooldown: 24 * time.Hour},
		"https://dashboard.nosana.com/host/")

	env.statistics = NewStatisticsService(users, nodes, earningsRepo, prefs, tokens, telegram)
	return env
}

func (e *testEnv) addNode(userID, id, address, status, jobStatus string) *model.Node {
	n := &model.Node{
		ID:        id,
		UserID:    userID,
		Address:   address,
		Name:      "node-" + id,
		GPUType:   "NVIDIA RTX 3090",
		Status:    status,
		JobStatus: jobStatus,
		CreatedAt: time.Now().UTC(),
	}
	_ = mockNodeRepository{e.store}.Create(context.Background(), n)
	return n
}

func (e *testEnv) node(id string) *model.Node {
	e.store.mu.RLock()
	defer e.store.mu.RUnlock()
	cp := *e.store.nodes[id]
	return &cp
}

func (e *testEnv) entries() []*model.JobEarning {
	e.store.mu.RLock()
	defer e.store.mu.RUnlock()
	return append([]*model.JobEarning(nil), e.store.earnings...)
}
