package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	TZ          string `envconfig:"TZ" default:"Local"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	Quota struct {
		KeyPrefix      string        `envconfig:"QUOTA_KEY_PREFIX" default:"posterr:quota"`
		KeyTTL         time.Duration `envconfig:"QUOTA_KEY_TTL" default:"48h"`
		BreakerTrips   uint32        `envconfig:"QUOTA_BREAKER_TRIPS" default:"5"`
		BreakerTimeout time.Duration `envconfig:"QUOTA_BREAKER_TIMEOUT" default:"30s"`
	} `envconfig:""`

	Cache struct {
		AuthorTTL time.Duration `envconfig:"AUTHOR_CACHE_TTL" default:"5m"`
	} `envconfig:""`

	Stats struct {
		ReconcileSpec string `envconfig:"STATS_RECONCILE_SPEC" default:"@every 1h"`
	} `envconfig:""`

	Seed bool `envconfig:"SEED" default:"false"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Parse читает конфиг из окружения и возвращает ошибку вместо завершения процесса.
func Parse() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Location возвращает часовой пояс для ключей дневной квоты.
func (c AppConfig) Location() (*time.Location, error) {
	if c.TZ == "" || c.TZ == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TZ)
}
