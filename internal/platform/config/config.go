package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "cnpjd/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration
	DatabaseURL     string
	CompanyCacheTTL time.Duration
	Redis           RedisConfig
	Kafka           KafkaConfig

	// problems collects values that could not be parsed and were replaced
	// by defaults; Validate reports them.
	problems []error
}

// RedisConfig configures the optional company cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit event sink. No brokers keeps audit events
// in memory.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// Enabled reports whether a Kafka cluster is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) Server {
	cfg := Server{
		Addr:        stringOr(getenv("CNPJD_ADDR"), ":8080"),
		LogLevel:    stringOr(getenv("LOG_LEVEL"), "info"),
		DatabaseURL: getenv("DATABASE_URL"),
		Kafka: KafkaConfig{
			Brokers:    platformstrings.SplitList(getenv("KAFKA_BROKERS"), ","),
			AuditTopic: stringOr(getenv("KAFKA_AUDIT_TOPIC"), "cnpjd.audit"),
		},
	}
	cfg.ShutdownTimeout = cfg.duration(getenv, "SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.CompanyCacheTTL = cfg.duration(getenv, "COMPANY_CACHE_TTL", 5*time.Minute)
	cfg.Redis = RedisConfig{
		URL:          getenv("REDIS_URL"),
		PoolSize:     cfg.integer(getenv, "REDIS_POOL_SIZE", 10),
		MinIdleConns: cfg.integer(getenv, "REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  cfg.duration(getenv, "REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  cfg.duration(getenv, "REDIS_READ_TIMEOUT", time.Second),
		WriteTimeout: cfg.duration(getenv, "REDIS_WRITE_TIMEOUT", time.Second),
	}
	return cfg
}

// Validate reports unparsable values and inconsistent settings.
func (s Server) Validate() error {
	errs := append([]error(nil), s.problems...)
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL: unknown level %q", s.LogLevel))
	}
	if s.CompanyCacheTTL <= 0 {
		errs = append(errs, errors.New("COMPANY_CACHE_TTL: must be positive"))
	}
	if s.Kafka.Enabled() && s.Kafka.AuditTopic == "" {
		errs = append(errs, errors.New("KAFKA_AUDIT_TOPIC: required when KAFKA_BROKERS is set"))
	}
	return errors.Join(errs...)
}

func (s *Server) duration(getenv func(string) string, key string, def time.Duration) time.Duration {
	raw := getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		s.problems = append(s.problems, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (s *Server) integer(getenv func(string) string, key string, def int) int {
	raw := getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.problems = append(s.problems, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
