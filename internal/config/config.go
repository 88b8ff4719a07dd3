// Package config loads toiler settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"toiler/internal/db"
)

// DefaultPath is where serve and the CLI look for a config file
var DefaultPath = filepath.Join(db.DataDir, "config.yaml")

type Config struct {
	Database DatabaseConfig `yaml:"database" json:"database"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Notifier NotifierConfig `yaml:"notifier" json:"notifier"`
	Cache    CacheConfig    `yaml:"cache" json:"cache"`
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" json:"driver"`
	DSN    string `yaml:"dsn" json:"dsn"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// NotifierConfig selects where change events go. Disabled means the log.
type NotifierConfig struct {
	Enabled bool        `yaml:"enabled" json:"enabled"`
	Channel string      `yaml:"channel" json:"channel"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"-"`
	DB       int    `yaml:"db" json:"db"`
}

type CacheConfig struct {
	Backend string `yaml:"backend" json:"backend"`
}

type ScheduleConfig struct {
	TopActivityLimit int           `yaml:"top_activity_limit" json:"top_activity_limit"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"

	FormatText = "text"
	FormatJSON = "json"
)

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Database: DatabaseConfig{Driver: db.DriverSQLite, DSN: filepath.Join(db.DataDir, db.DBFileName)},
		Server:   ServerConfig{Addr: ":8000"},
		Notifier: NotifierConfig{Channel: "changes"},
		Cache:    CacheConfig{Backend: CacheMemory},
		Schedule: ScheduleConfig{TopActivityLimit: 10, Timeout: 30 * time.Second},
		Log:      LogConfig{Level: "info", Format: FormatText},
	}
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.ApplyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// ApplyDefaults fills fields a partial file left empty
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Database.Driver == "" {
		c.Database.Driver = d.Database.Driver
	}
	if c.Database.DSN == "" && c.Database.Driver == d.Database.Driver {
		c.Database.DSN = d.Database.DSN
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Notifier.Channel == "" {
		c.Notifier.Channel = d.Notifier.Channel
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = d.Cache.Backend
	}
	if c.Schedule.TopActivityLimit == 0 {
		c.Schedule.TopActivityLimit = d.Schedule.TopActivityLimit
	}
	if c.Schedule.Timeout == 0 {
		c.Schedule.Timeout = d.Schedule.Timeout
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

func (c *Config) applyEnv() {
	if val := os.Getenv("TOILER_DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("TOILER_DB_DSN"); val != "" {
		c.Database.DSN = val
	}
	if val := os.Getenv("TOILER_HTTP_ADDR"); val != "" {
		c.Server.Addr = val
	}
	if val := os.Getenv("TOILER_REDIS_ADDR"); val != "" {
		c.Notifier.Redis.Addr = val
		c.Notifier.Enabled = true
	}
	if val := os.Getenv("TOILER_REDIS_PASSWORD"); val != "" {
		c.Notifier.Redis.Password = val
	}
	if val := os.Getenv("TOILER_NOTIFY_CHANNEL"); val != "" {
		c.Notifier.Channel = val
	}
	if val := os.Getenv("TOILER_CACHE_BACKEND"); val != "" {
		c.Cache.Backend = val
	}
	if val := getEnvInt("TOILER_TOP_ACTIVITY_LIMIT"); val > 0 {
		c.Schedule.TopActivityLimit = val
	}
	if val := getEnvDuration("TOILER_SCHEDULE_TIMEOUT"); val > 0 {
		c.Schedule.Timeout = val
	}
	if val := os.Getenv("TOILER_LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("TOILER_LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("database.driver: unsupported %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("cache.backend: unsupported %q", c.Cache.Backend)
	}
	if c.UsesRedis() && c.Notifier.Redis.Addr == "" {
		return errors.New("notifier.redis.addr is required when redis is in use")
	}
	if c.Schedule.TopActivityLimit < 1 {
		return fmt.Errorf("schedule.top_activity_limit must be at least 1, got %d", c.Schedule.TopActivityLimit)
	}
	if c.Schedule.Timeout <= 0 {
		return fmt.Errorf("schedule.timeout must be positive, got %s", c.Schedule.Timeout)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("log.format: unsupported %q", c.Log.Format)
	}
	return nil
}

// UsesRedis reports whether the notifier or the cache needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.Notifier.Enabled || c.Cache.Backend == CacheRedis
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

func getEnvDuration(key string) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0
	}
	return d
}
