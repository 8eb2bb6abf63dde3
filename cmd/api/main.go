package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/khetihal/khetihal-backend/api/routes"
	"github.com/khetihal/khetihal-backend/internal/auth"
	"github.com/khetihal/khetihal-backend/internal/cart"
	"github.com/khetihal/khetihal-backend/internal/catalog"
	"github.com/khetihal/khetihal-backend/internal/mirror"
	"github.com/khetihal/khetihal-backend/internal/orders"
	"github.com/khetihal/khetihal-backend/internal/shipping"
	"github.com/khetihal/khetihal-backend/internal/users"
	"github.com/khetihal/khetihal-backend/pkg/auth/session"
	"github.com/khetihal/khetihal-backend/pkg/config"
	"github.com/khetihal/khetihal-backend/pkg/db"
	"github.com/khetihal/khetihal-backend/pkg/logger"
	"github.com/khetihal/khetihal-backend/pkg/metrics"
	"github.com/khetihal/khetihal-backend/pkg/migrate"
	"github.com/khetihal/khetihal-backend/pkg/redis"
	"github.com/khetihal/khetihal-backend/pkg/sheets"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	if err := auth.EnsureAdmin(context.Background(), dbClient, cfg.Admin, cfg.Password, logg); err != nil {
		logg.Error(context.Background(), "failed to seed admin account", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	shippingRepo := shipping.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
	mirrorMetrics := metrics.NewMirrorMetrics(prometheus.DefaultRegisterer)

	var (
		sheetsP       sheets.Pinger
		mirrorService mirror.Service
	)
	if cfg.Sheets.Enabled() {
		sheetsClient, err := sheets.NewClient(context.Background(), cfg.Sheets, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap sheets client", err)
			os.Exit(1)
		}
		sheetsP = sheetsClient
		mirrorService, err = mirror.NewService(sheetsClient, cfg.Sheets, logg, mirrorMetrics)
		if err != nil {
			logg.Error(context.Background(), "failed to create mirror service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "sheets mirror disabled, sheet endpoints will be unavailable")
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	profileService, err := auth.NewProfileService(auth.ProfileServiceParams{
		UserRepo:       usersRepo,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	catalogAdmin, err := catalog.NewAdminService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog admin service", err)
		os.Exit(1)
	}

	catalogImporter, err := catalog.NewImporter(dbClient, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog importer", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:     cartRepo,
		Products: catalogRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	shippingService, err := shipping.NewService(shippingRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

	ordersParams := orders.ServiceParams{
		Tx:           dbClient,
		Repo:         ordersRepo,
		CartRepo:     cartRepo,
		ShippingRepo: shippingRepo,
		CatalogRepo:  catalogRepo,
		Users:        usersRepo,
		Logger:       logg,
	}
	if mirrorService != nil && cfg.Sheets.MirrorOnCheckout {
		ordersParams.Mirror = mirrorService
		ordersParams.MirrorTimeout = cfg.Sheets.CallTimeout
	}
	ordersService, err := orders.NewService(ordersParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			httpMetrics,
			dbClient,
			redisClient,
			sheetsP,
			sessionManager,
			authService,
			registerService,
			profileService,
			catalogService,
			catalogAdmin,
			catalogImporter,
			cartService,
			shippingService,
			ordersService,
			mirrorService,
		),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
