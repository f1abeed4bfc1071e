package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/boiler360/storefront-backend/api/controllers"
	"github.com/boiler360/storefront-backend/api/middleware"
	cartsvc "github.com/boiler360/storefront-backend/internal/cart"
	"github.com/boiler360/storefront-backend/internal/catalog"
	"github.com/boiler360/storefront-backend/internal/identity"
	"github.com/boiler360/storefront-backend/internal/orders"
	"github.com/boiler360/storefront-backend/pkg/config"
	"github.com/boiler360/storefront-backend/pkg/db"
	"github.com/boiler360/storefront-backend/pkg/logger"
	"github.com/boiler360/storefront-backend/pkg/metrics"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DBPinger db.Pinger
	Limiter  RateLimiterStore
	Metrics  *metrics.HTTPMetrics

	Identity identity.Service
	Catalog  catalog.Service
	Cart     cartsvc.Service
	Orders   orders.Service
}

// RateLimiterStore is the counter backend for the auth throttles, nil when
// rate limiting is disabled.
type RateLimiterStore = middleware.RateLimiterStore

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUserLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterUserLimit,
	)

	requireAuth := middleware.Auth(cfg.JWT, logg)
	requireLiveAccount := middleware.RequireLiveAccount(deps.Identity, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DBPinger, logg))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Limiter, logg)).
			Post("/register", controllers.AuthRegister(deps.Identity, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Limiter, logg)).
			Post("/login", controllers.AuthLogin(deps.Identity, logg))
		r.Get("/github/callback", controllers.AuthGitHubCallback(deps.Identity, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", controllers.AuthMe(deps.Identity, logg))
			r.Post("/password", controllers.AuthUpdatePassword(deps.Identity, logg))
		})
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(deps.Catalog, logg))
		r.Get("/{id}", controllers.ProductsGet(deps.Catalog, logg))
		r.With(requireAuth, middleware.RequireAdmin(logg)).
			Post("/", controllers.ProductsCreate(deps.Catalog, logg))
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(requireAuth, requireLiveAccount)
		mountCartRoutes(r, deps.Cart, controllers.AccountCartResolver, logg)
	})

	// The anonymous surface shares one communal cart.
	r.Route("/api/guest-cart", func(r chi.Router) {
		mountCartRoutes(r, deps.Cart, controllers.GuestCartResolver, logg)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(requireAuth, requireLiveAccount)
		r.Post("/", controllers.OrdersPlace(deps.Orders, deps.Cart, deps.Metrics, logg))
		r.Get("/", controllers.OrdersList(deps.Orders, logg))
		r.Get("/{id}", controllers.OrdersGet(deps.Orders, logg))
	})

	return r
}

func mountCartRoutes(r chi.Router, svc cartsvc.Service, resolve controllers.CartResolver, logg *logger.Logger) {
	r.Get("/", controllers.CartGet(svc, resolve, logg))
	r.Post("/items", controllers.CartAddItem(svc, resolve, logg))
	r.Patch("/items/{productID}", controllers.CartUpdateItem(svc, resolve, logg))
	r.Delete("/items/{productID}", controllers.CartRemoveItem(svc, resolve, logg))
}
