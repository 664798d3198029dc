package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"meal-companion/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 單一用戶端的令牌桶
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		lastTime: time.Now(),
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow() bool {
	return rl.allowAt(time.Now())
}

func (rl *RateLimiter) allowAt(now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.tokens += now.Sub(rl.lastTime).Seconds() * rl.rate
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.lastTime = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// idle 超過一個時間窗未使用的限流器已回滿，可以直接丟棄
func (rl *RateLimiter) idle(now time.Time, window time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return now.Sub(rl.lastTime) > window
}

// ipLimiters 每個用戶端 IP 一個限流器，閒置的定期清除
type ipLimiters struct {
	requests int
	window   time.Duration

	mu        sync.Mutex
	limiters  map[string]*RateLimiter
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiters(requests int, window time.Duration) *ipLimiters {
	return &ipLimiters{
		requests: requests,
		window:   window,
		limiters: make(map[string]*RateLimiter),
		now:      time.Now,
	}
}

func (l *ipLimiters) allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) > l.window {
		for k, rl := range l.limiters {
			if rl.idle(now, l.window) {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}
	rl, ok := l.limiters[ip]
	if !ok {
		rl = NewRateLimiter(l.requests, l.window)
		rl.lastTime = now
		l.limiters[ip] = rl
	}
	l.mu.Unlock()

	return rl.allowAt(now)
}

func (l *ipLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// RateLimit 依用戶端 IP 限流的中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return newIPLimiters(requests, window).middleware()
}

func (l *ipLimiters) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			common.LogWarn("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(l.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ToErrorResponse(common.ErrTooManyRequests))
			return
		}

		c.Next()
	}
}
