package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lorenzocolitta/brotherhood-kos/internal/repository"
	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/response"
)

// Counter is the fixed-window counter backing the rate limiter.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit throttles clients per IP with a fixed window. Without a working
// counter the limiter fails open.
func RateLimit(counter Counter, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), time.Now().Unix()/int64(window.Seconds()))
		count, err := counter.Incr(c.Request.Context(), key, window)
		if err != nil {
			if !errors.Is(err, repository.ErrCacheMiss) {
				logger.Warn("rate limit counter unavailable", zap.Error(err))
			}
			c.Next()
			return
		}

		if count > int64(limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}

		c.Next()
	}
}
