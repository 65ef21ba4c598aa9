package router

import (
	"time"

	"nodemonitor/app/handler"
	"nodemonitor/app/middleware"
	"nodemonitor/pkg/config"

	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Auth         *handler.AuthHandler
	Node         *handler.NodeHandler
	Earnings     *handler.EarningsHandler
	Notification *handler.NotificationHandler
	Statistics   *handler.StatisticsHandler
	Health       *handler.HealthHandler
	Stream       *handler.StreamHandler
}

// Router Router
type Router struct {
	h        Handlers
	verifier middleware.TokenVerifier
	server   config.ServerConfig

	registerLimiter *middleware.RateLimiter
	loginLimiter    *middleware.RateLimiter
	nodeAddLimiter  *middleware.RateLimiter
}

// NewRouter creates a new Router
func NewRouter(h Handlers, verifier middleware.TokenVerifier, server config.ServerConfig, limits config.RateLimitConfig) *Router {
	return &Router{
		h:               h,
		verifier:        verifier,
		server:          server,
		registerLimiter: middleware.NewRateLimiter(limits.RegisterPerHour, time.Hour),
		loginLimiter:    middleware.NewRateLimiter(limits.LoginPerMinute, time.Minute),
		nodeAddLimiter:  middleware.NewRateLimiter(limits.NodeAddPerMinute, time.Minute),
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())
	engine.Use(middleware.SecurityHeaders())
	engine.Use(middleware.CORS(r.server.AllowedOrigins))

	api := engine.Group("/api")
	api.GET("/health", r.h.Health.Health)

	auth := api.Group("/auth")
	{
		auth.POST("/register", r.registerLimiter.Middleware(), r.h.Auth.Register)
		auth.POST("/login", r.loginLimiter.Middleware(), r.h.Auth.Login)
		auth.GET("/me", middleware.JWTAuth(r.verifier, false), r.h.Auth.Me)
	}

	// Browsers cannot set headers on a WebSocket handshake
	api.GET("/nodes/stream", middleware.JWTAuth(r.verifier, true), r.h.Stream.Stream)

	user := api.Group("", middleware.JWTAuth(r.verifier, false))

	nodes := user.Group("/nodes")
	{
		nodes.GET("", r.h.Node.List)
		nodes.POST("", r.nodeAddLimiter.Middleware(), r.h.Node.Create)
		nodes.POST("/refresh-all-status", r.h.Node.RefreshAll)
		nodes.GET("/status/all", r.h.Node.StatusAll)
		nodes.GET("/:id", r.h.Node.Get)
		nodes.PUT("/:id", r.h.Node.Update)
		nodes.DELETE("/:id", r.h.Node.Delete)
		nodes.POST("/:id/check-status", r.h.Node.CheckStatus)
	}

	earnings := user.Group("/earnings")
	{
		earnings.GET("/summary", r.h.Earnings.Summary)
		earnings.GET("/daily", r.h.Earnings.Daily)
		earnings.GET("/monthly", r.h.Earnings.Monthly)
		earnings.GET("/yearly", r.h.Earnings.Yearly)
		earnings.GET("/nodes/:id", r.h.Earnings.Node)
		earnings.POST("/nodes/:id/sync", r.h.Earnings.Sync)
	}

	notifications := user.Group("/notifications")
	{
		notifications.GET("/preferences", r.h.Notification.GetPreferences)
		notifications.PUT("/preferences", r.h.Notification.UpdatePreferences)
		notifications.POST("/register-token", r.h.Notification.RegisterToken)
		notifications.DELETE("/register-token", r.h.Notification.UnregisterToken)
		notifications.GET("/telegram/status", r.h.Notification.TelegramStatus)
		notifications.POST("/telegram/link", r.h.Notification.LinkTelegram)
		notifications.DELETE("/telegram/link", r.h.Notification.UnlinkTelegram)
		notifications.POST("/test", r.h.Notification.SendTest)
	}

	admin := api.Group("/admin", middleware.APIKeyAuth(r.server.APIKey))
	{
		admin.GET("/statistics", r.h.Statistics.GetAppStatistics)
		admin.GET("/jobs", r.h.Statistics.GetJobStats)
	}
}

// Stop stops the rate limiter cleanup loops
func (r *Router) Stop() {
	r.registerLimiter.Stop()
	r.loginLimiter.Stop()
	r.nodeAddLimiter.Stop()
}
