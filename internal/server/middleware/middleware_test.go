package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests must pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request inside the window must be rejected")
	}
	if !rl.Allow("b") {
		t.Fatal("other key must not be affected")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("a") {
		t.Fatal("request after the window must pass")
	}
}

func TestPrune(t *testing.T) {
	base := time.Unix(1000, 0)
	times := []time.Time{base, base.Add(time.Second), base.Add(2 * time.Second)}
	got := prune(times, base.Add(time.Second))
	if len(got) != 1 || !got[0].Equal(base.Add(2*time.Second)) {
		t.Fatalf("prune = %v", got)
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Close()

	r := gin.New()
	r.Use(CaptureContext())
	r.GET("/x", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := []int{}
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}

func TestRecoveryReturns500(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); body != `{"error":"server_error"}` {
		t.Fatalf("body = %s", body)
	}
}

func TestCaptureContext(t *testing.T) {
	r := gin.New()
	r.Use(CaptureContext())
	var ip, ua, device string
	r.GET("/", func(c *gin.Context) {
		ip, ua, device = RequestMeta(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Device-Id", "dev-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if ip != "10.0.0.7" || ua != "test-agent" || device != "dev-1" {
		t.Fatalf("meta = %q %q %q", ip, ua, device)
	}
}
