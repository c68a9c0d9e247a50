package routes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	"github.com/angelmondragon/farmconnect-backend/internal/orders"
	"github.com/angelmondragon/farmconnect-backend/pkg/auth"
	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessions struct {
	revoked bool
}

func (s stubSessions) IsRevoked(context.Context, string) (bool, error) {
	return s.revoked, nil
}

func (stubSessions) Revoke(context.Context, string, time.Time) error {
	return nil
}

type stubLimiter struct {
	allow bool
}

func (s stubLimiter) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return s.allow, 1, nil
}

type stubCartService struct {
	cart.Service
}

func (stubCartService) Get(_ context.Context, owner cart.Owner) (*cart.View, error) {
	return &cart.View{UserID: owner.UserID.String(), Items: []cart.ItemView{}}, nil
}

type stubOrdersService struct {
	orders.Service
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
			CookieName:        "token",
		},
		Idempotency: config.IdempotencyConfig{TTL: time.Hour},
		RateLimit:   config.RateLimitConfig{PlaceOrderLimit: 5, PlaceOrderWindow: time.Minute},
	}
}

func testDependencies() Dependencies {
	return Dependencies{
		Postgres:    stubPinger{},
		Mongo:       stubPinger{},
		Redis:       stubPinger{},
		Sessions:    stubSessions{},
		RateLimiter: stubLimiter{allow: true},
		Cart:        stubCartService{},
		Orders:      stubOrdersService{},
	}
}

func newTestRouter(cfg *config.Config, deps Dependencies) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(cfg, logg, deps)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), testDependencies())
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-FarmConnect-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	deps := testDependencies()
	deps.Mongo = stubPinger{err: errors.New("no reachable servers")}
	router := newTestRouter(testConfig(), deps)

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "farmconnect_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	deps := testDependencies()
	deps.Metrics = reg
	router := newTestRouter(testConfig(), deps)

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "farmconnect_test_total 1") {
		t.Fatalf("expected counter in body, got %s", resp.Body.String())
	}
}

func TestPrivateRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), testDependencies())
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/cart/my-cart"},
		{http.MethodPost, "/order/place-order"},
		{http.MethodGet, "/order/all"},
		{http.MethodGet, "/wishlist/my-wishlist"},
		{http.MethodPost, "/auth/logout"},
	}
	for _, tc := range paths {
		resp := serve(router, httptest.NewRequest(tc.method, tc.path, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestCartRouteSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, testDependencies())

	req := httptest.NewRequest(http.MethodGet, "/cart/my-cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBuyer))
	resp := serve(router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCookieTokenIsAccepted(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, testDependencies())

	req := httptest.NewRequest(http.MethodGet, "/cart/my-cart", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: buildToken(t, cfg, enums.UserRoleFarmer)})
	resp := serve(router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRevokedSessionIsRejected(t *testing.T) {
	cfg := testConfig()
	deps := testDependencies()
	deps.Sessions = stubSessions{revoked: true}
	router := newTestRouter(cfg, deps)

	req := httptest.NewRequest(http.MethodGet, "/cart/my-cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBuyer))
	resp := serve(router, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminListingRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, testDependencies())

	req := httptest.NewRequest(http.MethodGet, "/order/all", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBuyer))
	resp := serve(router, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestPlaceOrderIsRateLimited(t *testing.T) {
	cfg := testConfig()
	deps := testDependencies()
	deps.RateLimiter = stubLimiter{allow: false}
	router := newTestRouter(cfg, deps)

	req := httptest.NewRequest(http.MethodPost, "/order/place-order", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBuyer))
	resp := serve(router, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	router := newTestRouter(testConfig(), testDependencies())
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
