package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Events   EventsConfig   `mapstructure:"events"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Leader   LeaderConfig   `mapstructure:"leader"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Instance InstanceConfig `mapstructure:"instance"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// EventsConfig selects the bus domain events are published on.
type EventsConfig struct {
	Backend string `mapstructure:"backend"`
	Channel string `mapstructure:"channel"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type MonitorConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type CacheConfig struct {
	TierTTL time.Duration `mapstructure:"tier_ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	BackendRedis = "redis"
	BackendNATS  = "nats"
	BackendNone  = "none"
)

var envBindings = map[string]string{
	"server.port":                "MARKETPLACE_SERVER_PORT",
	"server.host":                "MARKETPLACE_SERVER_HOST",
	"server.shutdown_timeout":    "MARKETPLACE_SERVER_SHUTDOWN_TIMEOUT",
	"database.driver":            "MARKETPLACE_DATABASE_DRIVER",
	"database.dsn":               "MARKETPLACE_DATABASE_DSN",
	"database.max_open_conns":    "MARKETPLACE_DATABASE_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "MARKETPLACE_DATABASE_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "MARKETPLACE_DATABASE_CONN_MAX_LIFETIME",
	"redis.address":              "MARKETPLACE_REDIS_ADDRESS",
	"redis.password":             "MARKETPLACE_REDIS_PASSWORD",
	"redis.db":                   "MARKETPLACE_REDIS_DB",
	"nats.url":                   "MARKETPLACE_NATS_URL",
	"nats.subject_prefix":        "MARKETPLACE_NATS_SUBJECT_PREFIX",
	"events.backend":             "MARKETPLACE_EVENTS_BACKEND",
	"events.channel":             "MARKETPLACE_EVENTS_CHANNEL",
	"auth.jwt_secret":            "MARKETPLACE_AUTH_JWT_SECRET",
	"leader.ttl":                 "MARKETPLACE_LEADER_TTL",
	"monitor.enabled":            "MARKETPLACE_MONITOR_ENABLED",
	"monitor.schedule":           "MARKETPLACE_MONITOR_SCHEDULE",
	"cache.tier_ttl":             "MARKETPLACE_CACHE_TIER_TTL",
	"instance.id":                "MARKETPLACE_INSTANCE_ID",
	"log.level":                  "MARKETPLACE_LOG_LEVEL",
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set default values
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.dsn", "marketplace_user:marketplace_pass@tcp(localhost:3306)/marketplace_db?parseTime=true")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "auction.events")
	v.SetDefault("events.backend", BackendRedis)
	v.SetDefault("events.channel", "auction_events")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("leader.ttl", 30*time.Second)
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.schedule", "@every 1m")
	v.SetDefault("cache.tier_ttl", 5*time.Minute)
	v.SetDefault("instance.id", "")
	v.SetDefault("log.level", "info")

	// Environment variable mappings
	for key, env := range envBindings {
		v.BindEnv(key, env)
	}

	return v
}

// Load reads defaults, an optional config.yaml and MARKETPLACE_* environment variables.
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/auction-marketplace/")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", configPath, err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	config.Database.Driver = strings.ToLower(config.Database.Driver)
	config.Events.Backend = strings.ToLower(config.Events.Backend)
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Events.Backend {
	case BackendRedis, BackendNATS, BackendNone:
	default:
		return fmt.Errorf("unsupported events backend %q", c.Events.Backend)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must be set")
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn must be set")
	}
	return nil
}

// Address is the host:port the HTTP server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s, Database: %s, Redis: %s, Events: %s, Instance: %s",
		c.Address(),
		c.Database.Driver,
		c.Redis.Address,
		c.Events.Backend,
		c.Instance.ID,
	)
}
