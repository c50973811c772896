package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
)

const (
	ChangeFeedPostgres = "postgres"
	ChangeFeedRedis    = "redis"
	ChangeFeedMemory   = "memory"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required,notEmpty"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	LoginRateWindowMinutes int `env:"LOGIN_RATE_WINDOW_MINUTES" envDefault:"10"`
	LoginRateMax           int `env:"LOGIN_RATE_MAX" envDefault:"5"`

	ChangeFeedDriver      string `env:"CHANGEFEED_DRIVER" envDefault:"postgres"`
	ChangeFeedChannel     string `env:"CHANGEFEED_CHANNEL" envDefault:"row_changes"`
	ChangeFeedRedisPrefix string `env:"CHANGEFEED_REDIS_PREFIX" envDefault:"youtrait:changes"`

	AvatarBucket        string `env:"AVATAR_BUCKET"`
	AvatarPublicBaseURL string `env:"AVATAR_PUBLIC_BASE_URL" envDefault:"https://storage.googleapis.com"`

	FilterExtraWords []string `env:"FILTER_EXTRA_WORDS" envSeparator:","`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.ChangeFeedDriver = strings.ToLower(strings.TrimSpace(cfg.ChangeFeedDriver))
	switch cfg.ChangeFeedDriver {
	case ChangeFeedPostgres, ChangeFeedMemory:
	case ChangeFeedRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("CHANGEFEED_DRIVER=redis requires REDIS_ADDR")
		}
	default:
		return nil, fmt.Errorf("unknown CHANGEFEED_DRIVER %q", cfg.ChangeFeedDriver)
	}
	return &cfg, nil
}
