package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/farmconnect-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/farmconnect-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/farmconnect-backend/api/controllers/orders"
	wishlistcontrollers "github.com/angelmondragon/farmconnect-backend/api/controllers/wishlist"
	"github.com/angelmondragon/farmconnect-backend/api/middleware"
	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/farmconnect-backend/internal/checkout"
	"github.com/angelmondragon/farmconnect-backend/internal/orders"
	"github.com/angelmondragon/farmconnect-backend/internal/wishlist"
	"github.com/angelmondragon/farmconnect-backend/pkg/auth/session"
	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/farmconnect-backend/pkg/redis"
)

// Sessions checks and revokes access tokens.
type Sessions interface {
	session.RevocationChecker
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// Dependencies groups everything the router hands to middleware and controllers.
// Nil services make their routes answer 500 rather than panic.
type Dependencies struct {
	Postgres controllers.Pinger
	Mongo    controllers.Pinger
	Redis    controllers.Pinger

	Sessions    Sessions
	Idempotency pkgredis.IdempotencyStore
	RateLimiter pkgredis.RateLimiter
	Metrics     prometheus.Gatherer

	Cart     cart.Service
	Wishlist wishlist.Service
	Orders   orders.Service
	Checkout checkoutsvc.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS(cfg.App.CORSOrigins))

	r.Get("/health/live", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
		"postgres": deps.Postgres,
		"mongo":    deps.Mongo,
		"redis":    deps.Redis,
	}))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	idempotency := middleware.Idempotency(deps.Idempotency, cfg.Idempotency.TTL, logg)
	placeOrderLimit := middleware.RateLimit(middleware.RateLimitPolicy{
		Name:   "place-order",
		Limit:  cfg.RateLimit.PlaceOrderLimit,
		Window: cfg.RateLimit.PlaceOrderWindow,
	}, deps.RateLimiter, logg)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Post("/auth/logout", controllers.AuthLogout(deps.Sessions, cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Post("/add", cartcontrollers.Add(deps.Cart, logg))
			r.Get("/my-cart", cartcontrollers.Mine(deps.Cart, logg))
			r.Put("/update", cartcontrollers.Update(deps.Cart, logg))
			r.Delete("/item/{id}", cartcontrollers.RemoveItem(deps.Cart, logg))
			r.Delete("/clear", cartcontrollers.Clear(deps.Cart, logg))
			r.Get("/summary", cartcontrollers.Summary(deps.Cart, logg))
			r.Get("/cart-expiry", cartcontrollers.Expiry(deps.Cart, logg))
		})

		r.Route("/order", func(r chi.Router) {
			r.With(placeOrderLimit, idempotency).Post("/place-order", ordercontrollers.PlaceOrder(deps.Checkout, logg))
			r.Get("/user-orders", ordercontrollers.Mine(deps.Orders, logg))
			r.Get("/item/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Put("/update-status/{orderId}", ordercontrollers.UpdateStatus(deps.Orders, logg))
			r.Put("/cancel/{orderId}", ordercontrollers.Cancel(deps.Orders, logg))
			r.Get("/supplier-orders", ordercontrollers.SupplierOrders(deps.Orders, logg))
			r.Get("/all", ordercontrollers.AdminList(deps.Orders, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Post("/add", wishlistcontrollers.Add(deps.Wishlist, logg))
			r.Get("/my-wishlist", wishlistcontrollers.Mine(deps.Wishlist, logg))
			r.Delete("/item/{productId}", wishlistcontrollers.Remove(deps.Wishlist, logg))
			r.Delete("/clear", wishlistcontrollers.Clear(deps.Wishlist, logg))
			r.With(idempotency).Post("/addtocart", wishlistcontrollers.MoveToCart(deps.Wishlist, logg))
		})
	})

	return r
}
