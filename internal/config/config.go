package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPPort    string `envconfig:"APP_PORT" default:"8080"`
	LogFile     string `envconfig:"LOG_FILE" default:"transfer.log"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	DB          DBConfig
	JWT         JWTConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Fraud       FraudConfig
	Restoration RestorationConfig
	Features    FeatureConfig
	Pin         PinConfig
}

type DBConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"     required:"true"`
	Port     string `envconfig:"POSTGRES_PORT"     required:"true"`
	User     string `envconfig:"POSTGRES_USER"     required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DB"       required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE"  default:"disable"`
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

type RedisConfig struct {
	Enabled    bool          `envconfig:"REDIS_ENABLED" default:"true"`
	Addr       string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password   string        `envconfig:"REDIS_PASSWORD" default:""`
	DB         int           `envconfig:"REDIS_DB" default:"0"`
	FeatureTTL time.Duration `envconfig:"REDIS_FEATURE_TTL" default:"10m"`
	Timeout    time.Duration `envconfig:"REDIS_TIMEOUT" default:"2s"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"transfer-notifications"`
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"true"`

	Workers     int           `envconfig:"NOTIFY_WORKERS" default:"2"`
	QueueSize   int           `envconfig:"NOTIFY_QUEUE_SIZE" default:"512"`
	SendTimeout time.Duration `envconfig:"KAFKA_SEND_TIMEOUT" default:"5s"`
}

// FraudConfig пороги принятия решения о блокировке перевода.
// OverrideRatio настраивается независимо от порогов эвристики (5x/10x/20x).
type FraudConfig struct {
	ModelDir        string  `envconfig:"FRAUD_MODEL_DIR" default:"ml_models"`
	Threshold       float64 `envconfig:"FRAUD_THRESHOLD" default:"0.3"`
	ReauthThreshold float64 `envconfig:"FRAUD_REAUTH_THRESHOLD" default:"0.95"`
	ReauthBypass    bool    `envconfig:"FRAUD_REAUTH_BYPASS" default:"true"`
	OverrideRatio   float64 `envconfig:"FRAUD_OVERRIDE_RATIO" default:"15"`
}

type RestorationConfig struct {
	DefaultLimit string        `envconfig:"RESTORATION_DEFAULT_LIMIT" default:"5000"`
	Window       time.Duration `envconfig:"RESTORATION_WINDOW" default:"35h"`
}

type FeatureConfig struct {
	Workers       int           `envconfig:"FEATURE_WORKERS" default:"4"`
	QueueSize     int           `envconfig:"FEATURE_QUEUE_SIZE" default:"256"`
	UpdateTimeout time.Duration `envconfig:"FEATURE_UPDATE_TIMEOUT" default:"10s"`
}

type PinConfig struct {
	MaxAttempts int           `envconfig:"PIN_MAX_ATTEMPTS" default:"3"`
	Lockout     time.Duration `envconfig:"PIN_LOCKOUT" default:"30m"`
}

func NewConfig() (*Config, error) {
	envFile := "config.env"

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("warning: не удалось загрузить файл %s, используются только системные переменные окружения: %v", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	if cfg.Fraud.Threshold <= 0 || cfg.Fraud.Threshold >= 1 {
		return nil, fmt.Errorf("FRAUD_THRESHOLD должен быть в интервале (0, 1), получено %v", cfg.Fraud.Threshold)
	}
	if cfg.Features.Workers < 1 {
		cfg.Features.Workers = 1
	}
	if cfg.Kafka.Workers < 1 {
		cfg.Kafka.Workers = 1
	}

	return &cfg, nil
}

func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (d *DBConfig) MigrationURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}
