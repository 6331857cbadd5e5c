package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Consumer is satisfied by *Limiter.
type Consumer interface {
	Consume(ctx context.Context, scope, subject string) (Decision, error)
}

// Middleware rejects requests over the limit with 429. The subject is the
// :userId path parameter, falling back to the client IP. Redis failures let
// the request through.
func Middleware(c Consumer, scope string, logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		subject := ctx.Param("userId")
		if subject == "" {
			subject = ctx.ClientIP()
		}

		d, err := c.Consume(ctx.Request.Context(), scope, subject)
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", "scope", scope, "error", err)
			ctx.Next()
			return
		}
		if d.Limit > 0 {
			ctx.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			ctx.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, d.Limit-d.Count)))
		}
		if !d.Allowed {
			ctx.Header("Retry-After", strconv.Itoa(d.RetryAfter))
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Too many requests, please retry later",
			})
			return
		}
		ctx.Next()
	}
}
