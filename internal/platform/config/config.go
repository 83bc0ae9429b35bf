package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration. WriteTimeout must leave
// room for a full delegation walk, which can take several DNS and HTTP round
// trips on an uncached check.
type Server struct {
	Addr          string
	JWTSigningKey string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
}

// Postgres captures database connectivity. An empty DSN switches the wiring
// to in-memory stores, which keeps local development dependency-free.
type Postgres struct {
	DSN          string
	MaxOpenConns int
}

// Redis captures the badge cache backend. Empty URL disables it.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the check-log broker. Empty brokers disables publishing;
// checks still work, they just are not logged externally.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Resolver bounds the carbon.txt delegation walk.
type Resolver struct {
	MaxHops       int
	LookupTimeout time.Duration
	FetchTimeout  time.Duration
}

// Cache controls green domain retention.
type Cache struct {
	TTL             time.Duration
	MaintenanceTick time.Duration
}

// Config is the full service configuration assembled from the environment.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Resolver Resolver
	Cache    Cache
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("GREENCHECK_ADDR", ":8080"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			ReadTimeout:   envDurationOr("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  envDurationOr("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:   envDurationOr("SERVER_IDLE_TIMEOUT", 2*time.Minute),
		},
		Postgres: Postgres{
			DSN:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envIntOr("DATABASE_MAX_OPEN_CONNS", 25),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_CHECK_TOPIC", "greencheck.logs"),
		},
		Resolver: Resolver{
			MaxHops:       envIntOr("RESOLVER_MAX_HOPS", 5),
			LookupTimeout: envDurationOr("RESOLVER_LOOKUP_TIMEOUT", 2*time.Second),
			FetchTimeout:  envDurationOr("RESOLVER_FETCH_TIMEOUT", 5*time.Second),
		},
		Cache: Cache{
			TTL:             envDurationOr("GREEN_DOMAIN_TTL", 365*24*time.Hour),
			MaintenanceTick: envDurationOr("CACHE_MAINTENANCE_TICK", time.Hour),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if part := v[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}
