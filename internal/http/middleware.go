package http

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tazhibayda/foodshare-service/internal/listing"
	"github.com/tazhibayda/foodshare-service/internal/metrics"
	"github.com/tazhibayda/foodshare-service/internal/queue"
	"github.com/tazhibayda/foodshare-service/internal/repo"
	"github.com/tazhibayda/foodshare-service/internal/security"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("X-Request-ID", id)
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(queue.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.InFlight.Inc()
		c.Next()
		metrics.InFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// AuthJWT resolves the caller from the auth service's access token and puts
// uid/role/name into the gin context. Everything behind it can assume an
// authenticated actor.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer"})
			return
		}
		tok := strings.TrimSpace(h[len("Bearer "):])
		claims, err := security.ParseAccess(secret, tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		uid := claims.UID
		if uid == "" && claims.Subject != "" {
			uid = claims.Subject
		}
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no uid"})
			return
		}
		c.Set("uid", uid)
		c.Set("role", claims.Role)
		c.Set("name", claims.Name)
		c.Next()
	}
}

func actorFrom(c *gin.Context) listing.Actor {
	return listing.Actor{
		ID:   c.GetString("uid"),
		Name: c.GetString("name"),
		Role: c.GetString("role"),
	}
}

type bucket struct {
	tokens  int
	updated time.Time
}

// RateLimiter is the in-process fixed-window limiter, used when Redis is not
// configured. One bucket per client ip.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*bucket), rate: rate, window: window}
}

func (rl *RateLimiter) Allow(ip string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[ip]
	if !ok || now.Sub(b.updated) > rl.window {
		rl.buckets[ip] = &bucket{tokens: 1, updated: now}
		return true
	}
	if b.tokens < rl.rate {
		b.tokens++
		b.updated = now
		return true
	}
	return false
}

func ClientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}

// RateLimitMutations guards the mutating endpoints. Redis counter when
// available (shared across replicas), in-memory bucket otherwise. Rate 0
// disables the limit.
func RateLimitMutations(rds *repo.Redis, perMin int) gin.HandlerFunc {
	rl := NewRateLimiter(perMin, time.Minute)
	return func(c *gin.Context) {
		if perMin <= 0 {
			c.Next()
			return
		}
		ip := ClientIP(c)
		if rds != nil {
			n, err := rds.Incr(c.Request.Context(), "rl:"+ip, time.Minute)
			// redis недоступен — пропускаем, лимитер не должен ронять запросы
			if err == nil && n > int64(perMin) {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
				return
			}
			c.Next()
			return
		}
		if !rl.Allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
