package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khetihal/khetihal-backend/api/controllers"
	"github.com/khetihal/khetihal-backend/api/middleware"
	"github.com/khetihal/khetihal-backend/internal/auth"
	"github.com/khetihal/khetihal-backend/internal/cart"
	"github.com/khetihal/khetihal-backend/internal/catalog"
	"github.com/khetihal/khetihal-backend/internal/mirror"
	"github.com/khetihal/khetihal-backend/internal/orders"
	"github.com/khetihal/khetihal-backend/internal/shipping"
	"github.com/khetihal/khetihal-backend/pkg/auth/session"
	"github.com/khetihal/khetihal-backend/pkg/config"
	"github.com/khetihal/khetihal-backend/pkg/db"
	"github.com/khetihal/khetihal-backend/pkg/logger"
	"github.com/khetihal/khetihal-backend/pkg/metrics"
	"github.com/khetihal/khetihal-backend/pkg/redis"
	"github.com/khetihal/khetihal-backend/pkg/sheets"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	dbP db.Pinger,
	redisClient *redis.Client,
	sheetsP sheets.Pinger,
	sessionManager session.AccessSessionChecker,
	authService auth.Service,
	registerService auth.RegisterService,
	profileService auth.ProfileService,
	catalogService catalog.Service,
	catalogAdmin catalog.AdminService,
	catalogImporter catalog.Importer,
	cartService cart.Service,
	shippingService shipping.Service,
	ordersService orders.Service,
	mirrorService mirror.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, sheetsP))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(registerService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminAuthLogin(authService, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(catalogService, logg))
		r.Get("/{productID}", controllers.ProductGet(catalogService, logg))
	})

	r.Get("/api/v1/mirror/products", controllers.MirrorProductList(mirrorService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(profileService, logg))
			r.Put("/", controllers.ProfileUpdate(profileService, logg))
			r.Post("/password", controllers.ProfileChangePassword(profileService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(cartService, logg))
			r.Post("/items", controllers.CartAdd(cartService, logg))
			r.Post("/items/adjust", controllers.CartAdjust(cartService, logg))
			r.Delete("/items/{productID}", controllers.CartRemove(cartService, logg))
			r.Get("/count", controllers.CartCount(cartService, logg))
		})

		r.Route("/shipping", func(r chi.Router) {
			r.Get("/", controllers.ShippingGet(shippingService, logg))
			r.Put("/", controllers.ShippingSave(shippingService, logg))
		})

		r.Post("/checkout", controllers.OrderPlace(ordersService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderID}", controllers.OrderGet(ordersService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(ordersService, logg))
			r.Put("/{orderID}/status", controllers.AdminOrderUpdateStatus(ordersService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(catalogAdmin, logg))
			r.Put("/{productID}", controllers.AdminProductUpdate(catalogAdmin, logg))
			r.Post("/import", controllers.AdminProductImport(catalogImporter, logg))
		})

		r.Route("/mirror", func(r chi.Router) {
			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.MirrorProductAdd(mirrorService, logg))
				r.Put("/{rowID}", controllers.MirrorProductUpdate(mirrorService, logg))
				r.Delete("/{rowID}", controllers.MirrorProductDelete(mirrorService, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.MirrorOrderList(mirrorService, logg))
				r.Put("/{rowID}/status", controllers.MirrorOrderUpdateStatus(mirrorService, logg))
			})
		})
	})

	return r
}
