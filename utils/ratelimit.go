package utils

import (
	"context"
	"net"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/pascal1010100/nomada-fantasma-sub001/storage"
)

// AllowRequest checks a fixed-window counter in Redis. Fails open: if
// Redis is down the public forms keep working.
func AllowRequest(key string, max int, window time.Duration) bool {
	if storage.Redis == nil {
		return true
	}
	ctx := context.Background()
	n, err := storage.Redis.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	if n == 1 {
		storage.Redis.Expire(ctx, key, window)
	}
	return n <= int64(max)
}

func ClientIP(ctx iris.Context) string {
	if ip := ctx.GetHeader("X-Forwarded-For"); ip != "" {
		return ip
	}
	ip, _, _ := net.SplitHostPort(ctx.RemoteAddr())
	return ip
}
