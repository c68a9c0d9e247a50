package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	pkgredis "github.com/angelmondragon/farmconnect-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T) (*pkgredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return pkgredis.FromRaw(raw), mr
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	limiter, _ := newLimiter(t)
	policy := RateLimitPolicy{Name: "place-order", Limit: 2, Window: time.Minute}
	handler := RateLimit(policy, limiter, nil)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/order/place-order", nil)
		req = req.WithContext(WithUserID(req.Context(), "user-1"))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected first two requests allowed, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third request, got %v", codes)
	}
}

func TestRateLimitIsPerCaller(t *testing.T) {
	limiter, _ := newLimiter(t)
	policy := RateLimitPolicy{Name: "place-order", Limit: 1, Window: time.Minute}
	handler := RateLimit(policy, limiter, nil)(okHandler())

	for _, user := range []string{"user-1", "user-2"} {
		req := httptest.NewRequest(http.MethodPost, "/order/place-order", nil)
		req = req.WithContext(WithUserID(req.Context(), user))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", user, resp.Code)
		}
	}
}

func TestRateLimitWindowResets(t *testing.T) {
	limiter, mr := newLimiter(t)
	policy := RateLimitPolicy{Name: "place-order", Limit: 1, Window: time.Minute}
	handler := RateLimit(policy, limiter, nil)(okHandler())

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/order/place-order", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp.Code
	}
	if code := send(); code != http.StatusOK {
		t.Fatalf("expected 200 got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", code)
	}
	mr.FastForward(2 * time.Minute)
	if code := send(); code != http.StatusOK {
		t.Fatalf("expected 200 after window got %d", code)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	handler := RateLimit(RateLimitPolicy{}, nil, nil)(okHandler())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
