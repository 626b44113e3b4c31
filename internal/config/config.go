package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents runtime configuration for the upload server and the dashboard.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Pinning   PinningConfig   `mapstructure:"pinning"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
}

type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// PinningConfig describes the content-addressed storage the upload endpoint forwards files to.
type PinningConfig struct {
	JWT       string        `mapstructure:"jwt"`
	UploadURL string        `mapstructure:"upload_url"`
	Network   string        `mapstructure:"network"`
	Gateway   string        `mapstructure:"gateway"`
	CIDPath   string        `mapstructure:"cid_path"`
	URLExpiry time.Duration `mapstructure:"url_expiry"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Workers   int           `mapstructure:"workers"`
	QueueSize int           `mapstructure:"queue_size"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DashboardConfig points the client-side components at their backends.
type DashboardConfig struct {
	UploadBaseURL   string        `mapstructure:"upload_base_url"`
	BackendBaseURL  string        `mapstructure:"backend_base_url"`
	InsightsBaseURL string        `mapstructure:"insights_base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig selects where dashboard session state lives.
type SessionConfig struct {
	Store string        `mapstructure:"store"`
	TTL   time.Duration `mapstructure:"ttl"`
}

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

const envPrefix = "COINPAL"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.max_upload_bytes", int64(10<<20))

	v.SetDefault("pinning.jwt", "")
	v.SetDefault("pinning.upload_url", "https://uploads.pinata.cloud/v3/files")
	v.SetDefault("pinning.network", "public")
	v.SetDefault("pinning.gateway", "")
	v.SetDefault("pinning.cid_path", "$.data.cid")
	v.SetDefault("pinning.url_expiry", time.Hour)
	v.SetDefault("pinning.timeout", time.Minute)
	v.SetDefault("pinning.workers", 4)
	v.SetDefault("pinning.queue_size", 16)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("cors.exposed_headers", []string{})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("dashboard.upload_base_url", "http://127.0.0.1:3000")
	v.SetDefault("dashboard.backend_base_url", "http://127.0.0.1:3001")
	v.SetDefault("dashboard.insights_base_url", "http://localhost:3001")
	v.SetDefault("dashboard.timeout", 30*time.Second)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.store", SessionStoreMemory)
	v.SetDefault("session.ttl", 24*time.Hour)
}

// Load reads configuration from the optional YAML file at path. Every key can be
// overridden with COINPAL_<SECTION>_<KEY> environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	secondsAsDuration(v, "pinning.url_expiry")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// secondsAsDuration reads a bare integer at key as whole seconds, the unit of
// the gateway expires parameter. Duration strings such as "1h" pass through.
func secondsAsDuration(v *viper.Viper, key string) {
	switch n := v.Get(key).(type) {
	case int:
		v.Set(key, time.Duration(n)*time.Second)
	case int64:
		v.Set(key, time.Duration(n)*time.Second)
	}
}

func (c *Config) validate() error {
	if c.Pinning.Workers <= 0 {
		return errors.New("pinning.workers must be positive")
	}
	if c.Pinning.QueueSize < 0 {
		return errors.New("pinning.queue_size cannot be negative")
	}
	if c.Pinning.URLExpiry < 0 {
		return errors.New("pinning.url_expiry cannot be negative")
	}
	if c.Pinning.URLExpiry > 0 && c.Pinning.URLExpiry < time.Second {
		return fmt.Errorf("pinning.url_expiry %s is below one second", c.Pinning.URLExpiry)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}
	switch strings.ToLower(c.Session.Store) {
	case SessionStoreMemory, SessionStoreRedis:
		c.Session.Store = strings.ToLower(c.Session.Store)
	default:
		return fmt.Errorf("unsupported session store: %s", c.Session.Store)
	}
	return nil
}

// Enabled reports whether pinning credentials are configured.
func (c PinningConfig) Enabled() bool {
	return strings.TrimSpace(c.JWT) != "" && strings.TrimSpace(c.Gateway) != ""
}
