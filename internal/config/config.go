package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr             string
	ServiceName      string
	DatabaseURL      string
	JWTSecret        string
	RunMigrations    bool
	RedisAddr        string
	CartCacheTTL     time.Duration
	KafkaBrokers     []string
	OrderEventsTopic string
	AdminRoles       []string
	AdminEmails      []string
}

func Load() Config {
	return Config{
		Addr:             getenv("STOREFRONT_ADDR", ":8080"),
		ServiceName:      getenv("SERVICE_NAME", "storefront-api"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		RunMigrations:    getbool("RUN_MIGRATIONS", true),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		CartCacheTTL:     getduration("CART_CACHE_TTL", 10*time.Minute),
		KafkaBrokers:     getlist("KAFKA_BROKERS", ""),
		OrderEventsTopic: getenv("ORDER_EVENTS_TOPIC", "storefront.orders"),
		AdminRoles:       getlist("ADMIN_ROLES", "admin,org:admin"),
		AdminEmails:      getlist("ADMIN_EMAILS", ""),
	}
}

// Validate reports every missing required setting in one error.
func (c Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getduration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getlist(key, def string) []string {
	raw := getenv(key, def)
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
