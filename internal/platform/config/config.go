package config

import (
	"os"
	"strings"
	"time"

	platformstrings "fleetaudit/pkg/platform/strings"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// PostgresDSN selects the durable ledger store when set; empty means the
	// in-memory store (dev and tests).
	PostgresDSN string

	Redis RedisConfig

	// KafkaBrokers enables the append fan-out sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// ReasonCatalogPath points at a JSON file mapping reason codes to
	// display metadata. Empty means built-in defaults only.
	ReasonCatalogPath string

	// ExportTTL bounds how long rendered export artifacts stay retrievable.
	ExportTTL time.Duration
}

// RedisConfig holds connection settings for the artifact store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FLEETAUDIT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	cfg := Server{
		Addr:        addr,
		PostgresDSN: os.Getenv("FLEETAUDIT_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("FLEETAUDIT_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		KafkaTopic:        os.Getenv("FLEETAUDIT_KAFKA_TOPIC"),
		ReasonCatalogPath: os.Getenv("FLEETAUDIT_REASON_CATALOG"),
		ExportTTL:         24 * time.Hour,
	}

	if brokers := os.Getenv("FLEETAUDIT_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "audit.events"
	}
	if ttl := os.Getenv("FLEETAUDIT_EXPORT_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.ExportTTL = d
		}
	}

	return cfg
}
