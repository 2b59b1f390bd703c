// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hellofixo-service/internal/config"
	"hellofixo-service/internal/db"
	authHandler "hellofixo-service/internal/handlers/auth"
	bookingHandler "hellofixo-service/internal/handlers/booking"
	catalogHandler "hellofixo-service/internal/handlers/catalog"
	locationHandler "hellofixo-service/internal/handlers/location"
	notificationHandler "hellofixo-service/internal/handlers/notification"
	partnerHandler "hellofixo-service/internal/handlers/partner"
	pricingHandler "hellofixo-service/internal/handlers/pricing"
	referralHandler "hellofixo-service/internal/handlers/referral"
	walletHandler "hellofixo-service/internal/handlers/wallet"
	wsHandler "hellofixo-service/internal/handlers/websocket"
	"hellofixo-service/internal/metrics"
	"hellofixo-service/internal/middleware"
	"hellofixo-service/internal/pkg/httpx"
	"hellofixo-service/internal/pkg/jwt"
	"hellofixo-service/internal/pkg/session"
	"hellofixo-service/internal/pkg/storage"
	"hellofixo-service/internal/pkg/validate"
	"hellofixo-service/internal/repository/postgres"
	redisrepo "hellofixo-service/internal/repository/redis"
	authUsecase "hellofixo-service/internal/service/auth"
	"hellofixo-service/internal/service/email"
	bookingUsecase "hellofixo-service/internal/service/booking"
	catalogUsecase "hellofixo-service/internal/service/catalog"
	locationUsecase "hellofixo-service/internal/service/location"
	notificationUsecase "hellofixo-service/internal/service/notification"
	partnerUsecase "hellofixo-service/internal/service/partner"
	pricingUsecase "hellofixo-service/internal/service/pricing"
	referralUsecase "hellofixo-service/internal/service/referral"
	walletUsecase "hellofixo-service/internal/service/wallet"
	"hellofixo-service/internal/websocket"
	wsHandlers "hellofixo-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	cfg    config.AppConfig
	logger *zap.Logger
	engine *gin.Engine
	http   *http.Server
	hub    *websocket.Hub

	pool  *pgxpool.Pool
	redis redis.UniversalClient
	files storage.Store

	notifications *notificationUsecase.NotificationService
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, logger: logger, engine: gin.New()}
}

// Run wires dependencies, serves HTTP and blocks until ctx is cancelled or
// the listener fails, then shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.build(ctx); err != nil {
		s.close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		s.logger.Info("server listening", zap.String("addr", s.cfg.HTTPAddr), zap.String("env", s.cfg.Env))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.close()
	return err
}

func (s *Server) build(ctx context.Context) error {
	cfg := s.cfg
	logger := s.logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	rdb, err := db.NewRedis(ctx, db.RedisConfig{
		Addresses: []string{cfg.RedisAddr},
		Password:  cfg.RedisPass,
		DB:        cfg.RedisDB,
		PoolSize:  20,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redis = rdb
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	// ----- Object storage -----
	s.files = storage.Disabled{}
	if cfg.GCSBucket != "" {
		store, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return err
		}
		s.files = store
	} else {
		logger.Warn("GCS_BUCKET not set, photo and document uploads are disabled")
	}

	// ----- JWT, sessions, metrics -----
	jwtManager, err := jwt.LoadAndBuild(cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}
	sessionManager := session.NewManager(rdb)
	rateLimiter := session.NewRateLimiter(rdb)
	m := metrics.Registry("hellofixo")

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	userRepo := postgres.NewUserRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	cityRepo := postgres.NewCityRepository(pool)
	referralRepo := postgres.NewReferralCodeRepository(pool)
	walletRepo := postgres.NewWalletRepository(pool)
	bookingRepo := postgres.NewBookingRepository(dbWrapper)
	partnerRepo := postgres.NewPartnerRepository(dbWrapper)
	notificationRepo := postgres.NewNotificationRepository(pool)
	draftStore := redisrepo.NewDraftStore(rdb)

	// ----- WebSocket hub -----
	hub := websocket.NewHub(jwtManager.Verifier, sessionManager, logger)
	s.hub = hub

	// ----- Services -----
	notificationService := notificationUsecase.NewNotificationService(notificationRepo, hub, logger)
	if cfg.SMTP.Host != "" {
		notificationService.WithEmail(email.NewEmailSender(cfg.SMTP), userRepo)
	}
	s.notifications = notificationService
	locationService := locationUsecase.NewLocationService(
		locationUsecase.NewPostalClient(httpx.New("postal", cfg.HTTP, m, logger), cfg.PostalAPIURL),
		locationUsecase.NewNominatimGeocoder(httpx.New("nominatim", cfg.HTTP, m, logger), cfg.NominatimURL, cfg.NominatimUserAgent),
		cityRepo,
		m,
		logger,
	)
	catalogService := catalogUsecase.NewCatalogService(categoryRepo, rdb, logger)
	pricingService := pricingUsecase.NewPricingService(catalogService, locationService, logger)

	var checker referralUsecase.Checker
	if cfg.ReferralMode == "local" || cfg.FunctionsURL == "" {
		logger.Info("referral codes verified against the local table")
		checker = referralUsecase.NewLocalChecker(referralRepo)
	} else {
		checker = referralUsecase.NewRemoteChecker(httpx.New("check-referral", cfg.HTTP, m, logger), cfg.FunctionsURL, cfg.FunctionsServiceKey)
	}
	referralService := referralUsecase.NewReferralService(checker, rateLimiter, m, logger)

	walletService := walletUsecase.NewWalletService(walletRepo, referralRepo, notificationService, logger)
	bookingService := bookingUsecase.NewBookingService(bookingUsecase.Deps{
		Drafts:     draftStore,
		Repo:       bookingRepo,
		Categories: catalogService,
		Locations:  locationService,
		Referrals:  referralService,
		Wallets:    walletService,
		Files:      s.files,
		Notifier:   notificationService,
		Metrics:    m,
		Logger:     logger,
	})
	partnerService := partnerUsecase.NewPartnerService(partnerRepo, catalogService, s.files, notificationService, logger)
	authService := authUsecase.NewAuthService(
		userRepo,
		referralRepo,
		jwtManager,
		sessionManager,
		rateLimiter,
		hub,
		logger,
	)

	hub.RegisterHandler(wsHandlers.NewBookingHandler(bookingService))

	// ----- Handlers -----
	handlers := &Handlers{
		AuthHandler:     authHandler.NewAuthHandler(authService, logger),
		CatalogHandler:  catalogHandler.NewCatalogHandler(catalogService, logger),
		LocationHandler: locationHandler.NewLocationHandler(locationService, logger),
		EstimateHandler: pricingHandler.NewEstimateHandler(pricingService),
		ReferralHandler: referralHandler.NewReferralHandler(referralService),
		DraftHandler:    bookingHandler.NewDraftHandler(bookingService, logger),
		OrderHandler:    bookingHandler.NewOrderHandler(bookingService, logger),
		WalletHandler:   walletHandler.NewWalletHandler(walletService, logger),
		PartnerHandler:  partnerHandler.NewPartnerHandler(partnerService, authService, logger),
		NotifHandler:    notificationHandler.NewNotificationHandler(notificationService),
		WSHandler:       wsHandler.NewWebSocketHandler(hub, cfg.CORSOrigins, logger),
		AuthMiddleware:  middleware.NewAuthMiddleware(jwtManager.Verifier, sessionManager),
		Health:          s.health,
	}

	// ----- Middlewares -----
	validate.RegisterBindings()
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(cfg.CORSOrigins),
		middleware.MetricsMiddleware(m),
		middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(cfg.RateLimitRPM), logger),
	)

	SetupRouter(s.engine, handlers)

	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return nil
}

// health pings the stores the API cannot work without.
func (s *Server) health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := map[string]string{"postgres": "ok", "redis": "ok"}
	if err := s.pool.Ping(ctx); err != nil {
		status["postgres"] = err.Error()
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		status["redis"] = err.Error()
	}
	return status
}

func (s *Server) close() {
	if s.notifications != nil {
		s.notifications.Wait()
	}
	if closer, ok := s.files.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn("failed to close storage client", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("failed to close Redis client", zap.Error(err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	s.logger.Info("server stopped")
}
