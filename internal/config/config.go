package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port            string
	StoreDriver     string // memory | mongo
	MongoURI        string
	MongoDB         string
	JWTSecret       string
	RedisAddr       string
	RateLimitPerMin int
	RabbitURL       string
	SweepInterval   int // seconds
	ProdLog         bool
}

func Load() Config {
	return Config{
		Port:            getenv("APP_PORT", "8084"),
		StoreDriver:     getenv("STORE_DRIVER", "memory"),
		MongoURI:        getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getenv("MONGO_DB", "foodshare_db"),
		JWTSecret:       getenv("JWT", "default_secret_key"),
		RedisAddr:       getenv("REDIS_ADDR", ""),
		RateLimitPerMin: atoi(getenv("RATE_LIMIT_PER_MIN", "30")),
		RabbitURL:       getenv("RABBIT_URL", ""),
		SweepInterval:   atoi(getenv("SWEEP_INTERVAL_SECONDS", "60")),
		ProdLog:         getenv("PROD_LOG", "") == "true",
	}
}

func atoi(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
