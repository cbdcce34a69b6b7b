package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines a token bucket holding Requests tokens that refills
// completely over Window
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// KeyFunc identifies the caller; defaults to the user id, then the client IP
	KeyFunc func(c echo.Context) string
	Message string
	// Now is the clock, overridable in tests
	Now func() time.Time
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// pruneThreshold is the number of tracked keys after which idle limiters are dropped
const pruneThreshold = 1024

// RateLimiter keeps one token bucket per caller
type RateLimiter struct {
	config    RateLimitConfig
	entries   map[string]*limiterEntry
	lastPrune time.Time
	mu        sync.Mutex
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = callerKey
	}
	if config.Message == "" {
		config.Message = "Too many requests. Please try again later."
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RateLimiter{config: config, entries: make(map[string]*limiterEntry)}
}

func callerKey(c echo.Context) string {
	if user := GetCurrentUser(c); user != nil {
		return "user:" + user.ID
	}
	return "ip:" + c.RealIP()
}

// prune drops buckets idle for a full window, at most once per window.
// Idle buckets are full again after one window.
func (rl *RateLimiter) prune(now time.Time) {
	if len(rl.entries) < pruneThreshold || now.Sub(rl.lastPrune) < rl.config.Window {
		return
	}
	rl.lastPrune = now
	for k, e := range rl.entries {
		if now.Sub(e.lastUse) >= rl.config.Window {
			delete(rl.entries, k)
		}
	}
}

func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	e, ok := rl.entries[key]
	if !ok {
		rl.prune(now)
		every := rl.config.Window / time.Duration(rl.config.Requests)
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(every), rl.config.Requests)}
		rl.entries[key] = e
	}
	e.lastUse = now
	return e.limiter
}

// Allow takes a token for key and reports whether one was available,
// with the wait until the next token otherwise
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.config.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	r := rl.limiterFor(key, now).ReserveN(now, 1)
	if !r.OK() {
		return false, rl.config.Window
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, retryAfter := rl.Allow(rl.config.KeyFunc(c))
			if !allowed {
				seconds := int(retryAfter.Round(time.Second) / time.Second)
				c.Response().Header().Set("Retry-After", strconv.Itoa(max(1, seconds)))
				return echo.NewHTTPError(http.StatusTooManyRequests, rl.config.Message)
			}
			return next(c)
		}
	}
}

// IntakeRateLimiter limits ticket intake to 5 per 10 minutes per caller
var IntakeRateLimiter = NewRateLimiter(RateLimitConfig{
	Requests: 5,
	Window:   10 * time.Minute,
	Message:  "Too many consultation requests. Please wait before opening another ticket.",
})

// TriageRateLimiter limits the stateless classifier endpoints to 60 per minute per caller
var TriageRateLimiter = NewRateLimiter(RateLimitConfig{
	Requests: 60,
	Window:   time.Minute,
	Message:  "Rate limit exceeded. Please slow down your requests.",
})
