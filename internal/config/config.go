package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is loaded once at startup and passed by value afterwards.
// It is never mutated at runtime.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	SMTP        SMTPConfig        `mapstructure:"smtp"`
	Reservation ReservationConfig `mapstructure:"reservation"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Notifier    NotifierConfig    `mapstructure:"notifier"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type ReservationConfig struct {
	HoldTTLSeconds int `mapstructure:"hold_ttl_seconds"`
}

// HoldTTL returns the hold lifetime, defaulting to five minutes.
func (c ReservationConfig) HoldTTL() time.Duration {
	if c.HoldTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.HoldTTLSeconds) * time.Second
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type NotifierConfig struct {
	// Embedded runs the expiry notifier inside the API process. Disable it
	// when a dedicated worker (cmd/worker) owns the subscription, otherwise
	// each expiry produces one freed event per running process.
	Embedded bool `mapstructure:"embedded"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("booking")
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("reservation.hold_ttl_seconds", 300)
	viper.SetDefault("rate_limit.rps", 50)
	viper.SetDefault("rate_limit.burst", 100)
	viper.SetDefault("notifier.embedded", true)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
