package httpapi

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	rateLimitMessage = "Rate limit exceeded. Please try again later."

	// maxTrackedClients bounds the limiter table. When it is full, idle
	// clients go first and then the least recently seen one.
	maxTrackedClients = 10_000
)

// RateLimits configures the per-client token buckets. A bucket holds a full
// window's worth of requests and refills at that rate per Window.
type RateLimits struct {
	Authenticated int
	Anonymous     int
	Window        time.Duration
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// buckets is one token bucket per client key. Entries idle for two windows
// are dropped.
type buckets struct {
	mu        sync.Mutex
	perWindow int
	window    time.Duration
	entries   map[string]*bucket
	lastSweep time.Time
}

func newBuckets(perWindow int, window time.Duration) *buckets {
	return &buckets{perWindow: perWindow, window: window, entries: make(map[string]*bucket)}
}

// take spends one token of key's bucket and reports whether it was there,
// plus the tokens left.
func (b *buckets) take(key string, now time.Time) (bool, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) > b.window || len(b.entries) >= maxTrackedClients {
		b.sweep(now)
	}
	e, ok := b.entries[key]
	if !ok {
		if len(b.entries) >= maxTrackedClients {
			b.evictOldest()
		}
		every := b.window / time.Duration(b.perWindow)
		e = &bucket{limiter: rate.NewLimiter(rate.Every(every), b.perWindow)}
		b.entries[key] = e
	}
	e.seen = now
	allowed := e.limiter.AllowN(now, 1)
	left := int(math.Floor(e.limiter.TokensAt(now)))
	return allowed, max(left, 0)
}

func (b *buckets) sweep(now time.Time) {
	for k, e := range b.entries {
		if now.Sub(e.seen) > 2*b.window {
			delete(b.entries, k)
		}
	}
	b.lastSweep = now
}

func (b *buckets) evictOldest() {
	var oldest string
	var at time.Time
	for k, e := range b.entries {
		if oldest == "" || e.seen.Before(at) {
			oldest, at = k, e.seen
		}
	}
	delete(b.entries, oldest)
}

// RateLimiter rejects clients that exceed their request budget with 429.
// Signed-in requests are counted per user, the rest per client IP.
type RateLimiter struct {
	users  *buckets
	ips    *buckets
	logger *zap.Logger
	now    func() time.Time
}

func NewRateLimiter(l RateLimits, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		users:  newBuckets(l.Authenticated, l.Window),
		ips:    newBuckets(l.Anonymous, l.Window),
		logger: logger,
		now:    time.Now,
	}
}

// ByIP limits unauthenticated routes.
func (r *RateLimiter) ByIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.limit(c, r.ips, "ip:"+c.ClientIP())
	}
}

// ByUser must follow Authenticate.
func (r *RateLimiter) ByUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.limit(c, r.users, "user:"+c.GetString(ctxUserID))
	}
}

func (r *RateLimiter) limit(c *gin.Context, b *buckets, key string) {
	allowed, left := b.take(key, r.now())
	c.Header("X-RateLimit-Limit", strconv.Itoa(b.perWindow))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(left))
	if !allowed {
		retry := b.window / time.Duration(b.perWindow)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
		r.logger.Warn("rate limit exceeded",
			zap.String("client", key),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: rateLimitMessage})
		return
	}
	c.Next()
}
