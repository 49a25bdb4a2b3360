package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oneridetho/internal/config"
	handlers "oneridetho/internal/handlers/shared"
	"oneridetho/internal/middleware"
	"oneridetho/internal/repositories/mongodb"
	"oneridetho/internal/services"
	"oneridetho/pkg/cache"
	"oneridetho/pkg/database"
	"oneridetho/pkg/logger"
	"oneridetho/pkg/websocket"
	"oneridetho/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional outside development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		AppName:    cfg.App.Name,
		Version:    cfg.App.Version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	tz, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", cfg.App.Timezone, err)
	}

	// Database
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("Failed to close MongoDB")
		}
	}()

	if cfg.Database.RunMigrations {
		if err := database.NewMigrator(db.Database, log.Infof).Up(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return err
	}
	defer redisCache.Close()

	// Repositories
	userRepo := mongodb.NewUserRepository(db.Database, redisCache)
	accountRepo := mongodb.NewAccountRepository(db.Database)
	sessionRepo := mongodb.NewSessionRepository(db.Database)
	rideRepo := mongodb.NewRideRepository(db.Database)
	driverRepo := mongodb.NewDriverRepository(db.Database)
	locationRepo := mongodb.NewDriverLocationRepository(db.Database, redisCache)
	ratingRepo := mongodb.NewRatingRepository(db.Database)
	tx := mongodb.NewTransactor(db)

	// External providers
	mapsProvider, err := newMapsProvider(cfg.Maps)
	if err != nil {
		return err
	}
	store, err := newStorageProvider(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}
	smsProvider := newSMSProvider(ctx, cfg.SMS, log)
	mailer := newMailer(cfg.SMTP, log)
	pushSender := newPushSender(ctx, cfg.Push, log)
	gateways := newPaymentGateways(cfg.Payment)
	if len(gateways) == 0 {
		log.Warn("No payment gateway configured, card checkout disabled")
	}

	// Services
	fares := services.NewFareCalculator(cfg.Booking)
	routeService := services.NewRouteService(mapsProvider, fares, cfg.Booking.MaxStops, tz, log)
	notifier := services.NewNotificationService(driverRepo, smsProvider, mailer, pushSender, cfg.Notification, log)
	bookingService := services.NewBookingService(rideRepo, userRepo, driverRepo, redisCache, routeService, fares, notifier, cfg.Booking, tz, log)
	checkoutService := services.NewCheckoutService(gateways, redisCache, rideRepo, cfg.Payment, log)
	ratingService := services.NewRatingService(rideRepo, driverRepo, ratingRepo, tx, log)
	poller := services.NewRidePoller(rideRepo, locationRepo, cfg.Tracking, log)
	authService := services.NewAuthService(userRepo, accountRepo, sessionRepo, tx, redisCache, newGoogleOAuth(cfg.OAuth), cfg.Security, log)
	resetService := services.NewPasswordResetService(userRepo, accountRepo, redisCache, notifier, cfg.Security, log)
	profileService := services.NewProfileService(userRepo, store, cfg.Storage.MaxImageSize, cfg.Storage.MaxImageEdge, log)
	driverService := services.NewDriverService(driverRepo, locationRepo, log)

	ws := cfg.Tracking.WebSocket
	streamer := websocket.NewStreamer(websocket.Config{
		ReadBufferSize:    ws.ReadBufferSize,
		WriteBufferSize:   ws.WriteBufferSize,
		HandshakeTimeout:  ws.HandshakeTimeout,
		PingInterval:      ws.PingInterval,
		PongTimeout:       ws.PongTimeout,
		WriteTimeout:      ws.WriteTimeout,
		EnableCompression: ws.EnableCompression,
		AllowedOrigins:    ws.AllowedOrigins,
	}, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, resetService, log)
	mapsHandler := handlers.NewMapsHandler(routeService, log)
	rideHandler := handlers.NewRideHandler(bookingService, ratingService, poller, streamer, cfg.Tracking.DefaultPollInterval, log)
	paymentHandler := handlers.NewPaymentHandler(checkoutService, log)
	userHandler := handlers.NewUserHandler(profileService, log)
	driverHandler := handlers.NewDriverHandler(driverService, log)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	authRequired := middleware.AuthRequired(authService)

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, authHandler, authRequired)
		routes.SetupMapsRoutes(v1, mapsHandler)
		routes.SetupRideRoutes(v1, rideHandler, authRequired)
		routes.SetupPaymentRoutes(v1, paymentHandler, authRequired)
		routes.SetupUserRoutes(v1, userHandler, authRequired)
		routes.SetupDriverRoutes(v1, driverHandler, authRequired)
	}

	if cfg.Storage.Provider == "local" {
		router.Static("/uploads", cfg.Storage.Local.BasePath)
	}

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(pingCtx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		} else if err := redisCache.Ping(pingCtx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": cfg.App.Version,
		})
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
