package storage

import (
	"log"
	"os"

	"github.com/go-redis/redis/v8"
)

// Redis backs the reception dashboard cache and the public form rate
// limiter. Both degrade gracefully when the server is unreachable, so a
// missing REDIS_URL is not fatal.
var Redis *redis.Client

func InitializeRedis() {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "localhost:6379"
		log.Println("⚠️  REDIS_URL not set, using localhost:6379 (development mode)")
	}

	Redis = redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: "",
		DB:       0,
	})

	log.Println("🔧 Redis initialized with address:", redisURL)
}
