package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.POST("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r *gin.Engine, method, body string) int {
	req := httptest.NewRequest(method, "/echo", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestDeduplication(t *testing.T) {
	d := NewDeduplicator(time.Second)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	r := newEngine(d.Middleware())

	if code := do(r, http.MethodPost, `{"count":1}`); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if code := do(r, http.MethodPost, `{"count":1}`); code != http.StatusTooManyRequests {
		t.Errorf("Expected duplicate rejected, got %d", code)
	}
	if code := do(r, http.MethodPost, `{"count":2}`); code != http.StatusOK {
		t.Errorf("Expected different body allowed, got %d", code)
	}
	if code := do(r, http.MethodGet, ""); code != http.StatusOK {
		t.Errorf("Expected GET untouched, got %d", code)
	}

	now = now.Add(2 * time.Second)
	if code := do(r, http.MethodPost, `{"count":1}`); code != http.StatusOK {
		t.Errorf("Expected request allowed after window, got %d", code)
	}
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(2, time.Hour))

	for i := 0; i < 2; i++ {
		if code := do(r, http.MethodGet, ""); code != http.StatusOK {
			t.Fatalf("Expected 200 for request %d, got %d", i+1, code)
		}
	}
	if code := do(r, http.MethodGet, ""); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", code)
	}
}

func TestRateLimitPrunesIdleClients(t *testing.T) {
	l := newIPLimiters(2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if !l.allow(ip) {
			t.Fatalf("Expected first request from %s allowed", ip)
		}
	}
	if got := l.size(); got != 3 {
		t.Fatalf("Expected 3 tracked clients, got %d", got)
	}

	now = now.Add(2 * time.Minute)
	if !l.allow("10.0.0.4") {
		t.Fatal("Expected request allowed")
	}
	if got := l.size(); got != 1 {
		t.Errorf("Expected idle clients pruned, got %d tracked", got)
	}

	// 同一個 IP 在時間窗內仍然受限
	l.allow("10.0.0.4")
	if l.allow("10.0.0.4") {
		t.Error("Expected third request within window to be limited")
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(8))
	if code := do(r, http.MethodPost, `{"too":"large body"}`); code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", code)
	}
}
