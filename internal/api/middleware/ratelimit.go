package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sharemycard/sharemycard-backend/internal/ratelimit"
)

// ClientIP is the key rate limiting and lead provenance use. It honours
// gin's trusted proxy settings.
func ClientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// RateLimit admits at most the limiter's quota of requests per client IP.
// A limiter error lets the request through.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ClientIP(c)
		res, err := limiter.Allow(c.Request.Context(), ip)
		if err != nil {
			log.Printf("⚠️ [RateLimit] check failed for %s: %v", ip, err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			retry := res.RetryAfter(time.Now())
			c.Header("Retry-After", strconv.Itoa(int(retry/time.Second)))
			log.Printf("⚠️ [RateLimit] %s over limit on %s", ip, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
