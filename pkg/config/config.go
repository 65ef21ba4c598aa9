package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Redis        RedisConfig        `yaml:"redis"`
	MySQL        MySQLConfig        `yaml:"mysql"`
	Queue        QueueConfig        `yaml:"queue"`
	Logger       LoggerConfig       `yaml:"logger"`
	Auth         AuthConfig         `yaml:"auth"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Monitor      MonitorConfig      `yaml:"monitor"`
	Solana       SolanaConfig       `yaml:"solana"`
	Dashboard    DashboardConfig    `yaml:"dashboard"`
	Price        PriceConfig        `yaml:"price"`
	Earnings     EarningsConfig     `yaml:"earnings"`
	Notification NotificationConfig `yaml:"notification"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Mode           string   `yaml:"mode"`            // debug, release
	APIKey         string   `yaml:"api_key"`         // admin API key (admin routes disabled when empty)
	AllowedOrigins []string `yaml:"allowed_origins"` // CORS origins, "*" allows any

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// QueueConfig notification queue configuration
type QueueConfig struct {
	Enabled     bool `yaml:"enabled"`      // deliver notifications through asynq
	Concurrency int  `yaml:"concurrency"`  // queue processing concurrency
	TaskTimeout int  `yaml:"task_timeout"` // delivery timeout (seconds)
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig user authentication configuration
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	MaxFailedLogins int           `yaml:"max_failed_logins"`
	LockoutWindow   time.Duration `yaml:"lockout_window"`
}

// RateLimitConfig per-IP request limits
type RateLimitConfig struct {
	RegisterPerHour  int `yaml:"register_per_hour"`
	LoginPerMinute   int `yaml:"login_per_minute"`
	NodeAddPerMinute int `yaml:"node_add_per_minute"`
}

// MonitorConfig node polling configuration
type MonitorConfig struct {
	PollInterval        time.Duration `yaml:"poll_interval"`
	SweepConcurrency    int           `yaml:"sweep_concurrency"`
	MaxNodesPerUser     int           `yaml:"max_nodes_per_user"`
	LowBalanceThreshold float64       `yaml:"low_balance_threshold"` // SOL
	AlertCooldown       time.Duration `yaml:"alert_cooldown"`
	Timezone            string        `yaml:"timezone"` // reference timezone for day buckets
}

// SolanaConfig RPC configuration
type SolanaConfig struct {
	RPCURL  string        `yaml:"rpc_url"`
	NOSMint string        `yaml:"nos_mint"`
	Timeout time.Duration `yaml:"timeout"`
}

// DashboardConfig dashboard scraper configuration
type DashboardConfig struct {
	BaseURL   string        `yaml:"base_url"`
	RenderURL string        `yaml:"render_url"` // optional headless rendering endpoint
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// PriceConfig token price configuration
type PriceConfig struct {
	BaseURL       string        `yaml:"base_url"`
	TokenID       string        `yaml:"token_id"`
	FallbackPrice float64       `yaml:"fallback_price"`
	Timeout       time.Duration `yaml:"timeout"`
}

// EarningsConfig earnings computation configuration
type EarningsConfig struct {
	Mode        string             `yaml:"mode"`         // transition or scrape
	Rates       map[string]float64 `yaml:"rates"`        // GPU label -> USD/hour
	DefaultTier string             `yaml:"default_tier"` // key into Rates
}

// NotificationConfig notification channels configuration
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Push     PushConfig     `yaml:"push"`
	Discord  DiscordConfig  `yaml:"discord"`
}

// TelegramConfig Telegram bot configuration
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	APIURL   string `yaml:"api_url"`
}

// PushConfig FCM push configuration
type PushConfig struct {
	ServerKey string `yaml:"server_key"`
	URL       string `yaml:"url"`
}

// DiscordConfig Discord webhook configuration
type DiscordConfig struct {
	WebhookID    string `yaml:"webhook_id"`
	WebhookToken string `yaml:"webhook_token"`
}

const (
	EarningsModeTransition = "transition"
	EarningsModeScrape     = "scrape"
)

// DefaultRates returns the default GPU rate table (USD/hour).
func DefaultRates() map[string]float64 {
	return map[string]float64{
		"3090": 0.176,
		"4090": 0.294,
		"a100": 0.40,
		"h100": 0.40,
	}
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := Load(configPath)
	if err != nil {
		return err
	}

	GlobalConfig = cfg
	return nil
}

// Load reads and validates a config file without touching GlobalConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	validateAndApplyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration populated only with defaults.
func Default() *Config {
	cfg := &Config{}
	validateAndApplyDefaults(cfg)
	return cfg
}

func validateAndApplyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}

	if cfg.Queue.Concurrency <= 0 {
		cfg.Queue.Concurrency = 5
	}
	if cfg.Queue.TaskTimeout <= 0 {
		cfg.Queue.TaskTimeout = 30
	}

	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Auth.MaxFailedLogins <= 0 {
		cfg.Auth.MaxFailedLogins = 5
	}
	if cfg.Auth.LockoutWindow <= 0 {
		cfg.Auth.LockoutWindow = 15 * time.Minute
	}

	if cfg.RateLimit.RegisterPerHour <= 0 {
		cfg.RateLimit.RegisterPerHour = 5
	}
	if cfg.RateLimit.LoginPerMinute <= 0 {
		cfg.RateLimit.LoginPerMinute = 10
	}
	if cfg.RateLimit.NodeAddPerMinute <= 0 {
		cfg.RateLimit.NodeAddPerMinute = 20
	}

	if cfg.Monitor.PollInterval <= 0 {
		cfg.Monitor.PollInterval = 5 * time.Minute
	}
	if cfg.Monitor.SweepConcurrency <= 0 {
		cfg.Monitor.SweepConcurrency = 4
	}
	if cfg.Monitor.MaxNodesPerUser <= 0 {
		cfg.Monitor.MaxNodesPerUser = 100
	}
	if cfg.Monitor.LowBalanceThreshold <= 0 {
		cfg.Monitor.LowBalanceThreshold = 0.006
	}
	if cfg.Monitor.AlertCooldown <= 0 {
		cfg.Monitor.AlertCooldown = 24 * time.Hour
	}
	if _, err := time.LoadLocation(cfg.Monitor.Timezone); cfg.Monitor.Timezone == "" || err != nil {
		cfg.Monitor.Timezone = "UTC"
	}

	if cfg.Solana.RPCURL == "" {
		cfg.Solana.RPCURL = "https://api.mainnet-beta.solana.com"
	}
	if cfg.Solana.NOSMint == "" {
		cfg.Solana.NOSMint = "nosXBVoaCTtYdLvKY6Csb4AC8JCdQKKAaWYtx2ZMoo7"
	}
	if cfg.Solana.Timeout <= 0 {
		cfg.Solana.Timeout = 10 * time.Second
	}

	if cfg.Dashboard.BaseURL == "" {
		cfg.Dashboard.BaseURL = "https://dashboard.nosana.com/host/"
	}
	if cfg.Dashboard.UserAgent == "" {
		cfg.Dashboard.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if cfg.Dashboard.Timeout <= 0 {
		cfg.Dashboard.Timeout = 30 * time.Second
	}

	if cfg.Price.BaseURL == "" {
		cfg.Price.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Price.TokenID == "" {
		cfg.Price.TokenID = "nosana"
	}
	if cfg.Price.FallbackPrice <= 0 {
		cfg.Price.FallbackPrice = 0.46
	}
	if cfg.Price.Timeout <= 0 {
		cfg.Price.Timeout = 10 * time.Second
	}

	if cfg.Earnings.Mode != EarningsModeTransition && cfg.Earnings.Mode != EarningsModeScrape {
		cfg.Earnings.Mode = EarningsModeTransition
	}
	if len(cfg.Earnings.Rates) == 0 {
		cfg.Earnings.Rates = DefaultRates()
	}
	for label, rate := range cfg.Earnings.Rates {
		if rate <= 0 {
			delete(cfg.Earnings.Rates, label)
		}
	}
	if len(cfg.Earnings.Rates) == 0 {
		cfg.Earnings.Rates = DefaultRates()
	}
	if _, ok := cfg.Earnings.Rates[cfg.Earnings.DefaultTier]; !ok {
		cfg.Earnings.DefaultTier = "3090"
		if _, ok := cfg.Earnings.Rates["3090"]; !ok {
			cfg.Earnings.Rates["3090"] = DefaultRates()["3090"]
		}
	}

	if cfg.Notification.Telegram.APIURL == "" {
		cfg.Notification.Telegram.APIURL = "https://api.telegram.org"
	}
	if cfg.Notification.Push.URL == "" {
		cfg.Notification.Push.URL = "https://fcm.googleapis.com/fcm/send"
	}
}
