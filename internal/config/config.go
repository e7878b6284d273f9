package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	App      App      `yaml:"app"`
	HTTP     HTTP     `yaml:"http"`
	Log      Log      `yaml:"log"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Snapshot Snapshot `yaml:"snapshot"`
	Consumer Consumer `yaml:"consumer"`
}

type App struct {
	Name    string `yaml:"name" env:"APP_NAME" env-default:"shipment-dispatch"`
	Version string `yaml:"version" env:"APP_VERSION" env-default:"1.0.0"`
}

type HTTP struct {
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-default:"user"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-default:"dispatch"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Kafka struct {
	Brokers      []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	Topic        string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"logistics.shipments.v1"`
	DLTTopic     string   `yaml:"dlt_topic" env:"KAFKA_DLT_TOPIC" env-default:"logistics.shipments.v1.DLT"`
	GroupID      string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"dispatch-orchestrator-consumer"`
	StartOffset  string   `yaml:"start_offset" env:"KAFKA_START_OFFSET" env-default:"earliest"`
	Partitions   int      `yaml:"partitions" env:"KAFKA_PARTITIONS" env-default:"3"`
	EnsureTopics bool     `yaml:"ensure_topics" env:"KAFKA_ENSURE_TOPICS" env-default:"false"`
}

type Snapshot struct {
	TTL       time.Duration `yaml:"ttl" env:"SNAPSHOT_TTL" env-default:"4h"`
	KeyPrefix string        `yaml:"key_prefix" env:"SNAPSHOT_KEY_PREFIX" env-default:"ship:event:"`
}

type Consumer struct {
	Workers         int           `yaml:"workers" env:"CONSUMER_WORKERS" env-default:"4"`
	LaneBuffer      int           `yaml:"lane_buffer" env:"CONSUMER_LANE_BUFFER" env-default:"16"`
	FetchRetryDelay time.Duration `yaml:"fetch_retry_delay" env:"CONSUMER_FETCH_RETRY_DELAY" env-default:"1s"`
	RecordCacheTTL  time.Duration `yaml:"record_cache_ttl" env:"CONSUMER_RECORD_CACHE_TTL" env-default:"2s"`
}

// New loads .env (if any), then config.yaml (or CONFIG_PATH) with env
// overrides, falling back to env vars alone when no file is found.
func New() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	cfg := &Config{}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		// fallback to env vars if file not found
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
