package main

import (
	"fmt"
	"net/http"
	"time"

	"nodemonitor/app/handler"
	"nodemonitor/app/router"
	"nodemonitor/internal/jobs"
	"nodemonitor/internal/service"
	"nodemonitor/pkg/config"
	"nodemonitor/pkg/dashboard"
	"nodemonitor/pkg/earnings"
	"nodemonitor/pkg/interfaces"
	"nodemonitor/pkg/lock"
	"nodemonitor/pkg/logger"
	"nodemonitor/pkg/notification"
	"nodemonitor/pkg/price"
	"nodemonitor/pkg/queue"
	"nodemonitor/pkg/solana"
	mysqlstore "nodemonitor/pkg/store/mysql"
	redisstore "nodemonitor/pkg/store/redis"

	"github.com/gin-gonic/gin"
)

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(app.config.Logger); err != nil {
		return err
	}
	app.registerCleanup(func() {
		logger.InfoCtx(app.ctx, "Logging system has been closed")
		_ = logger.Sync()
	})
	return nil
}

// initMySQL initializes MySQL and migrates the schema
func (app *Application) initMySQL() error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		app.config.MySQL.User,
		app.config.MySQL.Password,
		app.config.MySQL.Host,
		app.config.MySQL.Port,
		app.config.MySQL.Database,
	)

	repo, err := mysqlstore.NewRepository(dsn)
	if err != nil {
		return err
	}
	if err := repo.Migrate(app.ctx); err != nil {
		repo.Close()
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	app.mysqlRepo = repo
	app.registerCleanup(func() {
		repo.Close()
		logger.InfoCtx(app.ctx, "MySQL connection has been closed")
	})

	return nil
}

// initRedis initializes Redis
func (app *Application) initRedis() error {
	client, err := redisstore.NewRedisClient(app.config.Redis)
	if err != nil {
		return err
	}

	app.redisClient = client
	app.locks = lock.NewFactory(client.GetClient())
	app.registerCleanup(func() {
		client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})

	return nil
}

// initClients initializes the chain, dashboard and price clients
func (app *Application) initClients() error {
	app.solanaClient = solana.NewClient(app.config.Solana)
	app.scraper = dashboard.NewScraper(app.config.Dashboard)
	app.quoter = price.NewQuoter(
		price.NewCoinGecko(app.config.Price),
		redisstore.NewPriceCache(app.redisClient),
		app.config.Price.TokenID,
		app.config.Price.FallbackPrice,
	)
	return nil
}

// initServices initializes service layer
func (app *Application) initServices() error {
	repo := app.mysqlRepo
	tx := repo.GetDatastore()

	loc, err := time.LoadLocation(app.config.Monitor.Timezone)
	if err != nil {
		return fmt.Errorf("invalid monitor.timezone: %w", err)
	}

	app.authService = service.NewAuthService(
		repo.User,
		repo.Preferences,
		redisstore.NewLoginAttemptStore(app.redisClient),
		tx,
		app.config.Auth,
	)

	app.nodeService = service.NewNodeService(
		repo.Node,
		repo.Earnings,
		repo.Tracking,
		repo.ScrapedJob,
		tx,
		app.config.Monitor.MaxNodesPerUser,
	)

	calc := earnings.NewCalculator(earnings.NewRateTable(app.config.Earnings.Rates, app.config.Earnings.DefaultTier))
	app.earningsService = service.NewEarningsService(
		repo.Earnings,
		repo.Tracking,
		repo.ScrapedJob,
		repo.Node,
		tx,
		app.scraper,
		app.quoter,
		calc,
		app.config.Earnings.Mode,
		loc,
	)

	senders := []interfaces.NotificationSender{
		notification.NewTelegramNotifier(app.config.Notification.Telegram),
		notification.NewPushNotifier(app.config.Notification.Push),
	}
	discord, err := notification.NewDiscordNotifier(app.config.Notification.Discord)
	if err != nil {
		return err
	}
	if discord != nil {
		senders = append(senders, discord)
	}

	app.notificationService = service.NewNotificationService(
		repo.Preferences,
		repo.DeviceToken,
		repo.Telegram,
		notification.Templates{DashboardBase: app.config.Dashboard.BaseURL},
		senders...,
	)

	app.statisticsService = service.NewStatisticsService(
		repo.User,
		repo.Node,
		repo.Earnings,
		repo.Preferences,
		repo.DeviceToken,
		repo.Telegram,
	)

	app.statusHub = service.NewStatusHub()
	app.reconciler = service.NewReconciler(
		repo.Node,
		app.solanaClient,
		app.scraper,
		app.quoter,
		app.earningsService,
		app.notificationService,
		redisstore.NewAlertStore(app.redisClient),
		app.locks,
		app.statusHub,
		app.config.Monitor,
		app.config.Dashboard.BaseURL,
	)
	app.sweeper = service.NewSweeper(repo.User, app.reconciler, app.config.Monitor.SweepConcurrency)

	return nil
}

// initQueue initializes notification delivery. Dispatch enqueues and the
// queue hands each message back to the notification service.
func (app *Application) initQueue() error {
	q, err := queue.NewNotificationQueue(app.config, app.notificationService.Deliver)
	if err != nil {
		return err
	}
	app.notificationService.SetQueue(q)
	app.notificationQueue = q
	app.registerCleanup(func() {
		q.Stop()
		logger.InfoCtx(app.ctx, "Notification queue has been stopped")
	})
	return nil
}

// initHandlers initializes handler layer
func (app *Application) initHandlers() error {
	base := app.config.Dashboard.BaseURL
	var jobStats func() []jobs.RunStats
	if app.jobsManager != nil {
		jobStats = app.jobsManager.Stats
	}
	app.handlers = router.Handlers{
		Auth:         handler.NewAuthHandler(app.authService),
		Node:         handler.NewNodeHandler(app.nodeService, app.reconciler, base),
		Earnings:     handler.NewEarningsHandler(app.earningsService, app.nodeService),
		Notification: handler.NewNotificationHandler(app.notificationService),
		Statistics:   handler.NewStatisticsHandler(app.statisticsService, jobStats),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"mysql": app.mysqlRepo.GetDatastore(),
			"redis": app.redisClient,
		}),
		Stream: handler.NewStreamHandler(app.statusHub),
	}
	return nil
}

// initHTTPServer initializes HTTP server
func (app *Application) initHTTPServer() error {
	gin.SetMode(app.config.Server.Mode)
	app.ginEngine = gin.New()

	app.router = router.NewRouter(app.handlers, app.authService, app.config.Server, app.config.RateLimit)
	app.router.Setup(app.ginEngine)
	app.registerCleanup(app.router.Stop)

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return nil
}
