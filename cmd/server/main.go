package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	billingapp "github.com/invoicer/backend/internal/application/billing"
	catalogapp "github.com/invoicer/backend/internal/application/catalog"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	partnerapp "github.com/invoicer/backend/internal/application/partner"
	reportapp "github.com/invoicer/backend/internal/application/report"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/cache"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/mail"
	"github.com/invoicer/backend/internal/infrastructure/migration"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/scheduler"
	"github.com/invoicer/backend/internal/infrastructure/storage"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/router"
)

//	@title			Invoicer API
//	@version		1.0
//	@description	Invoicing and recurring billing backend for freelancers and small studios

//	@host		localhost:8080
//	@BasePath	/api

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Env:     cfg.App.Env,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting invoicer backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry, cfg.App.Env, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	db, err := persistence.NewDatabase(cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", driverName(cfg.Database)))

	if err := migrate(db, cfg.Database, log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:        dbSystem(cfg.Database),
		SlowQueryThresh: cfg.Database.SlowThreshold,
		WithVariables:   !cfg.App.IsProduction(),
	}, log); err != nil {
		log.Warn("Database tracing not installed", zap.Error(err))
	}

	metrics := telemetry.NewMetrics()
	if err := metrics.RegisterDB(db.SQL(), cfg.Database.DBName); err != nil {
		log.Warn("Database pool metrics not registered", zap.Error(err))
	}

	rdb := openRedis(ctx, cfg.Redis, log)
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if rdb != nil {
		blacklist = auth.NewRedisTokenBlacklist(rdb)
		defer func() { _ = rdb.Close() }()
	}
	idempotency := cache.NewIdempotencyStore(rdb, log)

	// repositories
	tx := persistence.NewGormTransactor(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	methodRepo := persistence.NewGormPaymentMethodRepository(db.DB)
	serviceRepo := persistence.NewGormServiceItemRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	reportRepo := persistence.NewGormReportRepository(db.DB)

	// document pipeline
	renderer, err := printing.NewInvoiceRenderer(cfg.PDF, log)
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			log.Warn("Error closing PDF renderer", zap.Error(err))
		}
	}()
	composer, err := mail.NewComposer(cfg.Mail.FromName)
	if err != nil {
		log.Fatal("Failed to load mail templates", zap.Error(err))
	}
	sender, err := mail.NewSender(cfg.Mail, log)
	if err != nil {
		log.Fatal("Failed to initialize mail sender", zap.Error(err))
	}
	archive, err := storage.NewArchive(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize invoice archive", zap.Error(err))
	}

	// application services
	jwtService := auth.NewJWTService(cfg.JWT)
	settings := billingapp.Settings{
		InvoiceNumberPrefix:     cfg.Billing.InvoiceNumberPrefix,
		DefaultPaymentTermsDays: cfg.Billing.DefaultPaymentTermsDays,
		DueWindowDays:           cfg.Billing.DueWindowDays,
	}

	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, identityapp.DefaultAuthServiceConfig(), log)
	clientService := partnerapp.NewClientService(tx, clientRepo, log)
	companyService := partnerapp.NewCompanyService(tx, companyRepo, methodRepo, cfg.Billing.DefaultPaymentTermsDays, log)
	itemService := catalogapp.NewServiceItemService(serviceRepo, log)
	invoiceService := billingapp.NewInvoiceService(tx, invoiceRepo, paymentRepo, orderRepo, clientRepo, companyRepo, settings, metrics, log)
	documentService := billingapp.NewDocumentService(tx, invoiceRepo, clientRepo, companyRepo, methodRepo,
		renderer, composer, sender, archive, metrics, log)
	paymentService := billingapp.NewPaymentService(tx, invoiceRepo, paymentRepo, metrics, log)
	orderService := billingapp.NewOrderService(tx, orderRepo, invoiceRepo, clientRepo, companyRepo, serviceRepo, settings, metrics, log)
	subscriptionService := billingapp.NewSubscriptionService(tx, subscriptionRepo, invoiceRepo, clientRepo, companyRepo,
		serviceRepo, settings, metrics, log)
	reportService := reportapp.NewReportService(reportRepo, log)

	var billingScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs := billingapp.NewJobs(tx, invoiceRepo, subscriptionRepo, documentService, metrics, log)
		billingScheduler, err = scheduler.NewBillingScheduler(cfg.Scheduler, jobs, log,
			scheduler.WithRunHook(metrics.ObserveJob))
		if err != nil {
			log.Fatal("Failed to configure billing scheduler", zap.Error(err))
		}
		if err := billingScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start billing scheduler", zap.Error(err))
		}
	}

	checks := map[string]handler.HealthCheck{"database": db.Ping}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	base := handler.NewBaseHandler(cfg.App.IsProduction())
	handlers := router.Handlers{
		Auth:          handler.NewAuthHandler(base, authService),
		Clients:       handler.NewClientHandler(base, clientService),
		Companies:     handler.NewCompanyHandler(base, companyService),
		Services:      handler.NewServiceItemHandler(base, itemService),
		Orders:        handler.NewOrderHandler(base, orderService),
		Invoices:      handler.NewInvoiceHandler(base, invoiceService, documentService, paymentService),
		Payments:      handler.NewPaymentHandler(base, paymentService),
		Subscriptions: handler.NewSubscriptionHandler(base, subscriptionService),
		Reports:       handler.NewReportHandler(base, reportService),
		Health:        handler.NewHealthHandler(checks),
	}

	var sink router.MetricsSink
	if cfg.Metrics.Enabled {
		sink = metrics
	}
	engine := router.NewEngine(router.EngineConfig{
		App:         cfg.App,
		HTTP:        cfg.HTTP,
		RateLimit:   cfg.RateLimit,
		Telemetry:   cfg.Telemetry,
		Metrics:     cfg.Metrics,
		Tokens:      jwtService,
		Blacklist:   blacklist,
		Idempotency: idempotency,
		MetricsSink: sink,
		Logger:      log,
	}, handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if billingScheduler != nil {
		if err := billingScheduler.Stop(shutdownCtx); err != nil {
			log.Warn("Billing scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if closer, ok := idempotency.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrate brings the schema up to date. Postgres uses the versioned SQL
// migrations; sqlite has no migration files and is auto-migrated from the models.
func migrate(db *persistence.Database, cfg config.DatabaseConfig, log *zap.Logger) error {
	if cfg.Driver == "sqlite" {
		return db.DB.AutoMigrate(models.AllModels()...)
	}
	if !cfg.AutoMigrate {
		return nil
	}

	m, err := migration.New(db.SQL(), log)
	if err != nil {
		return err
	}
	// closing the migrator would close the shared pool
	return m.Up()
}

func openRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) redis.UniversalClient {
	if !cfg.Enabled {
		log.Info("Redis disabled, using in-process token blacklist and idempotency keys")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatal("Failed to connect to redis", zap.String("addr", cfg.Addr()), zap.Error(err))
	}
	log.Info("Redis connected", zap.String("addr", cfg.Addr()))
	return client
}

func driverName(cfg config.DatabaseConfig) string {
	if cfg.Driver == "" {
		return "postgres"
	}
	return cfg.Driver
}

func dbSystem(cfg config.DatabaseConfig) string {
	if cfg.Driver == "sqlite" {
		return "sqlite"
	}
	return "postgresql"
}
