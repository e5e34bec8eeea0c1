package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	// AdminSecret подписывает токены модераторов. Пустое значение закрывает /admin.
	AdminSecret string `envconfig:"ADMIN_JWT_SECRET"`

	Store struct {
		// Backend: memory, redis или postgres.
		Backend   string `envconfig:"STORE_BACKEND" default:"memory"`
		KeyPrefix string `envconfig:"STORE_KEY_PREFIX" default:"tiktroq"`
		Seed      bool   `envconfig:"STORE_SEED" default:"true"`
		// SeedOwner владеет демонстрационной перепиской.
		SeedOwner string `envconfig:"STORE_SEED_OWNER" default:"me"`
	} `envconfig:""`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`
	RabbitURL string `envconfig:"RABBITMQ_URL"`

	Queue struct {
		// Backend: memory, redis или rabbitmq. Пустое значение отключает очередь модерации.
		// С memory api сам разбирает очередь.
		Backend string `envconfig:"REVIEW_QUEUE_BACKEND"`
		Review  string `envconfig:"REVIEW_QUEUE_KEY" default:"review_jobs"`
	} `envconfig:""`

	Telegram struct {
		Token         string        `envconfig:"TG_BOT_TOKEN"`
		ModeratorChat int64         `envconfig:"TG_MODERATOR_CHAT_ID"`
		AlertTTL      time.Duration `envconfig:"TG_ALERT_DEDUPE_TTL" default:"24h"`
	} `envconfig:""`

	Roulette struct {
		SpinInterval    time.Duration `envconfig:"ROULETTE_SPIN_INTERVAL" default:"100ms"`
		MinSpins        int           `envconfig:"ROULETTE_MIN_SPINS" default:"20"`
		SpinJitter      int           `envconfig:"ROULETTE_SPIN_JITTER" default:"15"`
		DecisionWindow  time.Duration `envconfig:"ROULETTE_DECISION_WINDOW" default:"30s"`
		ClosedRetention time.Duration `envconfig:"ROULETTE_CLOSED_RETENTION" default:"10m"`
	} `envconfig:""`

	Limits struct {
		DefaultRadiusKm float64 `envconfig:"DEFAULT_RADIUS_KM" default:"5"`
		DefaultCity     string  `envconfig:"DEFAULT_CITY" default:"Paris 11e"`
	} `envconfig:""`
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
