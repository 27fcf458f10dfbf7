package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	goPortal "github.com/MrEthical07/goPortal"
)

// hostConfig is resolved from defaults, then the TOML file, then GOPORTAL_*
// environment variables, then command-line flags.
type hostConfig struct {
	HTTPAddr        string        `toml:"http_addr"`
	Locale          string        `toml:"locale"`
	TimeZone        string        `toml:"time_zone"`
	Store           string        `toml:"store"`
	RedisAddr       string        `toml:"redis_addr"`
	RedisPrefix     string        `toml:"redis_prefix"`
	SQLitePath      string        `toml:"sqlite_path"`
	TokenKey        string        `toml:"token_key"`
	SecureCookie    bool          `toml:"secure_cookie"`
	IdleTimeout     time.Duration `toml:"idle_timeout"`
	SweepInterval   time.Duration `toml:"sweep_interval"`
	NotificationTTL time.Duration `toml:"notification_ttl"`
	SubmitLatency   time.Duration `toml:"submit_latency"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	Audit           bool          `toml:"audit"`
	Metrics         bool          `toml:"metrics"`
	OTel            bool          `toml:"otel"`
	LogLevel        string        `toml:"log_level"`
}

const (
	storeMemory    = "memory"
	storeMiniredis = "miniredis"
	storeRedis     = "redis"
	storeSQLite    = "sqlite"
)

func defaultHostConfig() hostConfig {
	portal := goPortal.DefaultConfig()
	return hostConfig{
		HTTPAddr:        ":8080",
		Locale:          portal.Locale,
		TimeZone:        portal.TimeZone,
		Store:           storeMemory,
		RedisAddr:       "127.0.0.1:6379",
		RedisPrefix:     "goportal",
		SQLitePath:      "goportal.db",
		IdleTimeout:     30 * time.Minute,
		SweepInterval:   time.Minute,
		NotificationTTL: portal.Notifications.TTL,
		SubmitLatency:   portal.Forms.SubmitLatency,
		ShutdownTimeout: 10 * time.Second,
		Audit:           true,
		Metrics:         true,
		LogLevel:        "info",
	}
}

func bindFlags(fs *pflag.FlagSet, c *hostConfig) {
	fs.StringVar(&c.HTTPAddr, "http-addr", c.HTTPAddr, "listen address")
	fs.StringVar(&c.Locale, "locale", c.Locale, "message locale (id, en)")
	fs.StringVar(&c.TimeZone, "time-zone", c.TimeZone, "IANA zone used to display login times")
	fs.StringVar(&c.Store, "store", c.Store, "preference store: memory, miniredis, redis or sqlite")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "redis address for --store=redis")
	fs.StringVar(&c.RedisPrefix, "redis-prefix", c.RedisPrefix, "redis key prefix")
	fs.StringVar(&c.SQLitePath, "sqlite-path", c.SQLitePath, "database file for --store=sqlite")
	fs.StringVar(&c.TokenKey, "token-key", c.TokenKey, "HS256 key signing context cookies (random when empty)")
	fs.BoolVar(&c.SecureCookie, "secure-cookie", c.SecureCookie, "mark cookies Secure")
	fs.DurationVar(&c.IdleTimeout, "idle-timeout", c.IdleTimeout, "forget browsing contexts idle this long, as if the tab closed (0 keeps them)")
	fs.DurationVar(&c.SweepInterval, "sweep-interval", c.SweepInterval, "how often idle contexts are swept")
	fs.DurationVar(&c.NotificationTTL, "notification-ttl", c.NotificationTTL, "notification display time")
	fs.DurationVar(&c.SubmitLatency, "submit-latency", c.SubmitLatency, "simulated form submission latency")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "graceful shutdown limit")
	fs.BoolVar(&c.Audit, "audit", c.Audit, "log audit events")
	fs.BoolVar(&c.Metrics, "metrics", c.Metrics, "collect metrics")
	fs.BoolVar(&c.OTel, "otel", c.OTel, "serve OpenTelemetry instruments at /metrics/otel")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
}

// loadConfig resolves the host configuration. env is os.Getenv in
// production.
func loadConfig(args []string, env func(string) string) (hostConfig, error) {
	var configPath string
	parsed := defaultHostConfig()

	flagSet := pflag.NewFlagSet("goportal-server", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "TOML configuration file (default $GOPORTAL_CONFIG)")
	bindFlags(flagSet, &parsed)
	if err := flagSet.Parse(args); err != nil {
		return hostConfig{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return hostConfig{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}

	cfg := defaultHostConfig()
	if configPath == "" {
		configPath = env("GOPORTAL_CONFIG")
	}
	if configPath != "" {
		if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
			return hostConfig{}, fmt.Errorf("read %s: %w", configPath, err)
		}
	}

	applyEnv(&cfg, env)

	// Only flags given on the command line override the file and env.
	target := pflag.NewFlagSet("goportal-server", pflag.ContinueOnError)
	bindFlags(target, &cfg)
	var applyErr error
	flagSet.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || applyErr != nil {
			return
		}
		applyErr = target.Set(f.Name, f.Value.String())
	})
	if applyErr != nil {
		return hostConfig{}, applyErr
	}

	if err := cfg.validate(); err != nil {
		return hostConfig{}, err
	}
	return cfg, nil
}

func applyEnv(c *hostConfig, env func(string) string) {
	c.HTTPAddr = getenv(env, "GOPORTAL_HTTP_ADDR", c.HTTPAddr)
	c.Locale = getenv(env, "GOPORTAL_LOCALE", c.Locale)
	c.TimeZone = getenv(env, "GOPORTAL_TIME_ZONE", c.TimeZone)
	c.Store = getenv(env, "GOPORTAL_STORE", c.Store)
	c.RedisAddr = getenv(env, "GOPORTAL_REDIS_ADDR", c.RedisAddr)
	c.RedisPrefix = getenv(env, "GOPORTAL_REDIS_PREFIX", c.RedisPrefix)
	c.SQLitePath = getenv(env, "GOPORTAL_SQLITE_PATH", c.SQLitePath)
	c.TokenKey = getenvKey(env, "GOPORTAL_TOKEN_KEY", c.TokenKey)
	c.SecureCookie = getenvBool(env, "GOPORTAL_SECURE_COOKIE", c.SecureCookie)
	c.IdleTimeout = getenvDuration(env, "GOPORTAL_IDLE_TIMEOUT", c.IdleTimeout)
	c.SweepInterval = getenvDuration(env, "GOPORTAL_SWEEP_INTERVAL", c.SweepInterval)
	c.NotificationTTL = getenvDuration(env, "GOPORTAL_NOTIFICATION_TTL", c.NotificationTTL)
	c.SubmitLatency = getenvDuration(env, "GOPORTAL_SUBMIT_LATENCY", c.SubmitLatency)
	c.ShutdownTimeout = getenvDuration(env, "GOPORTAL_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.Audit = getenvBool(env, "GOPORTAL_AUDIT", c.Audit)
	c.Metrics = getenvBool(env, "GOPORTAL_METRICS", c.Metrics)
	c.OTel = getenvBool(env, "GOPORTAL_OTEL", c.OTel)
	c.LogLevel = getenv(env, "GOPORTAL_LOG_LEVEL", c.LogLevel)
}

func getenv(env func(string) string, key, fallback string) string {
	if val := env(key); val != "" {
		return val
	}
	return fallback
}

func getenvBool(env func(string) string, key string, fallback bool) bool {
	if val := env(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(env func(string) string, key string, fallback time.Duration) time.Duration {
	if val := env(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := env(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getenvKey prefers the contents of the file named by key_FILE.
func getenvKey(env func(string) string, key, fallback string) string {
	if file := env(key + "_FILE"); file != "" {
		if data, err := os.ReadFile(file); err == nil {
			return string(data)
		}
	}
	return getenv(env, key, fallback)
}

func (c hostConfig) validate() error {
	switch c.Store {
	case storeMemory, storeMiniredis, storeRedis, storeSQLite:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Store == storeRedis && c.RedisAddr == "" {
		return errors.New("redis store requires redis_addr")
	}
	if c.Store == storeSQLite && c.SQLitePath == "" {
		return errors.New("sqlite store requires sqlite_path")
	}
	if c.TokenKey != "" && len(c.TokenKey) < 32 {
		return errors.New("token key must be at least 32 bytes")
	}
	if c.IdleTimeout < 0 {
		return errors.New("idle timeout must be >= 0")
	}
	if c.IdleTimeout > 0 && c.SweepInterval <= 0 {
		return errors.New("sweep interval must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be > 0")
	}
	if _, err := c.logLevel(); err != nil {
		return err
	}
	portal := c.portalConfig()
	return portal.Validate()
}

func (c hostConfig) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// portalConfig maps the host settings onto the Controller configuration.
func (c hostConfig) portalConfig() goPortal.Config {
	cfg := goPortal.DefaultConfig()
	cfg.Locale = c.Locale
	cfg.TimeZone = c.TimeZone
	cfg.Notifications.TTL = c.NotificationTTL
	cfg.Forms.SubmitLatency = c.SubmitLatency
	cfg.Audit.Enabled = c.Audit
	cfg.Metrics.Enabled = c.Metrics
	cfg.Metrics.EnableLatencyHistograms = c.Metrics
	return cfg
}
