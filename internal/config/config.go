package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env     string  `yaml:"env" env:"ENV" env-default:"local"`
	HTTP    HTTP    `yaml:"http"`
	DB      DB      `yaml:"db"`
	Auth    Auth    `yaml:"auth"`
	Stripe  Stripe  `yaml:"stripe"`
	Redis   Redis   `yaml:"redis"`
	Kafka   Kafka   `yaml:"kafka"`
	Tracing Tracing `yaml:"tracing"`
	Log     Log     `yaml:"log"`
}

type HTTP struct {
	Port      string `yaml:"port" env:"PORT" env-default:":8080"`
	BodyLimit int    `yaml:"body_limit" env:"HTTP_BODY_LIMIT" env-default:"1048576"`
	// BaseURL is where the payment gateway sends the customer back to.
	BaseURL string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
}

type DB struct {
	// DSN is a sqlite file path (or :memory:) unless it starts with postgres://.
	DSN string `yaml:"dsn" env:"DB_DSN" env-default:"freshmart.db"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"2h"`
}

type Stripe struct {
	SecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	Currency      string `yaml:"currency" env:"STRIPE_CURRENCY" env-default:"usd"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_ORDERS_TOPIC" env-default:"orders"`
}

type Tracing struct {
	Endpoint string `yaml:"endpoint" env:"OTEL_EXPORTER_ENDPOINT"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

const defaultPath = "./config/local.yaml"

// Load reads .env (if any), then the YAML file at CONFIG_PATH when it exists,
// then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultPath
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		if c.Env == "prod" {
			return errors.New("JWT_SECRET is required in prod")
		}
		c.Auth.JWTSecret = "dev-only-secret"
	}
	return nil
}
