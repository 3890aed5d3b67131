package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig allows RequestsPerWindow hits per client within Window
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyPrefix         string
}

// fixedWindow counts hits under prefix:client. The counter and its TTL are
// read in one MULTI so a fresh key always gets its expiry.
type fixedWindow struct {
	client *redis.Client
	cfg    RateLimitConfig
}

func (fw fixedWindow) hit(ctx context.Context, clientID string) (int64, time.Duration, error) {
	key := fw.cfg.KeyPrefix + ":" + clientID
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := fw.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		if err := fw.client.PExpire(ctx, key, fw.cfg.Window).Err(); err != nil {
			return incr.Val(), fw.cfg.Window, err
		}
		remaining = fw.cfg.Window
	}
	return incr.Val(), remaining, nil
}

// RateLimitMiddleware keys on the authenticated user when known, else the
// remote host. Redis failures let the request through.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	window := fixedWindow{client: redisClient, cfg: config}
	limit := strconv.Itoa(config.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientHost(r.RemoteAddr)
			if userID, ok := GetUserID(r.Context()); ok {
				clientID = userID.String()
			}

			count, ttl, err := window.hit(r.Context(), clientID)
			if err != nil {
				logger.Error("Rate limiter unavailable", zap.String("client_id", clientID), zap.Error(err))
				if count == 0 {
					next.ServeHTTP(w, r)
					return
				}
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			if count <= int64(config.RequestsPerWindow) {
				h.Set("X-RateLimit-Remaining", strconv.FormatInt(int64(config.RequestsPerWindow)-count, 10))
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("Rate limit exceeded",
				zap.String("client_id", clientID),
				zap.String("path", r.URL.Path),
				zap.Int64("count", count),
			)
			h.Set("X-RateLimit-Remaining", "0")
			h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
			h.Set("Retry-After", strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
			RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		})
	}
}

func clientHost(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
