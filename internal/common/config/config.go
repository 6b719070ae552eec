package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StoreDriverBolt     = "bolt"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Discord struct {
		Token string `env:"DISCORD_TOKEN,required,notEmpty"`
		// Register commands in a single guild instead of globally (instant updates while developing)
		GuildID string `env:"DISCORD_GUILD_ID"`
	}

	Store struct {
		Driver  string        `env:"STORE_DRIVER" envDefault:"bolt"` // bolt, postgres
		Timeout time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	}

	Bolt struct {
		Path string `env:"BOLT_PATH" envDefault:"data/giveaways.db"`
	}

	Postgres struct {
		Host            string        `env:"DB_HOST" envDefault:"localhost"`
		Port            int           `env:"DB_PORT" envDefault:"5432"`
		User            string        `env:"DB_USER" envDefault:"postgres"`
		Password        string        `env:"DB_PASSWORD"`
		Database        string        `env:"DB_NAME" envDefault:"giveaways"`
		SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
		AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	}

	Redis struct {
		Enabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
		Host     string        `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int           `env:"REDIS_PORT" envDefault:"6379"`
		Password string        `env:"REDIS_PASSWORD" envDefault:""`
		DB       int           `env:"REDIS_DB" envDefault:"0"`
		LockTTL  time.Duration `env:"REDIS_LOCK_TTL" envDefault:"15s"`
		CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	}

	HTTP struct {
		Enabled  bool   `env:"HTTP_ENABLED" envDefault:"true"`
		Port     int    `env:"PORT" envDefault:"8080"`
		Origin   string `env:"ORIGIN" envDefault:"*"`
		APIToken string `env:"HTTP_API_TOKEN"`
	}

	Scanner struct {
		Interval      time.Duration `env:"SCANNER_INTERVAL" envDefault:"5s"`
		MaxConcurrent int           `env:"SCANNER_MAX_CONCURRENT" envDefault:"10"`
	}

	Vouch struct {
		Keyword          string        `env:"VOUCH_KEYWORD" envDefault:"vouch"`
		DefaultChannelID string        `env:"DEFAULT_VOUCH_CHANNEL_ID"`
		ReplyTTL         time.Duration `env:"VOUCH_REPLY_TTL" envDefault:"8s"`
	}
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	// .env is optional, production sets variables directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverBolt, StoreDriverPostgres:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Scanner.Interval <= 0 {
		return fmt.Errorf("SCANNER_INTERVAL must be positive")
	}
	if c.Scanner.MaxConcurrent <= 0 {
		return fmt.Errorf("SCANNER_MAX_CONCURRENT must be positive")
	}
	return nil
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	p := c.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// StoreTimeout returns the per-call store deadline, never zero.
func (c *Config) StoreTimeout() time.Duration {
	if c == nil || c.Store.Timeout <= 0 {
		return 5 * time.Second
	}
	return c.Store.Timeout
}
