package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/cache"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
)

// Handlers are the route targets of the API
type Handlers struct {
	Auth          *handler.AuthHandler
	Clients       *handler.ClientHandler
	Companies     *handler.CompanyHandler
	Services      *handler.ServiceItemHandler
	Orders        *handler.OrderHandler
	Invoices      *handler.InvoiceHandler
	Payments      *handler.PaymentHandler
	Subscriptions *handler.SubscriptionHandler
	Reports       *handler.ReportHandler
	Health        *handler.HealthHandler
}

// MetricsSink serves and feeds the Prometheus registry
type MetricsSink interface {
	middleware.HTTPObserver
	Handler() http.Handler
}

// EngineConfig carries everything besides the handlers that shapes the engine
type EngineConfig struct {
	App       config.AppConfig
	HTTP      config.HTTPConfig
	RateLimit config.RateLimitConfig
	Telemetry config.TelemetryConfig
	Metrics   config.MetricsConfig

	Tokens      middleware.TokenValidator
	Blacklist   auth.TokenBlacklist
	Idempotency cache.IdempotencyStore
	MetricsSink MetricsSink // nil disables /metrics and request metrics
	Logger      *zap.Logger
}

// Public auth endpoints; everything else below /api needs a bearer token
var publicPaths = []string{
	"/api/auth/register",
	"/api/auth/login",
	"/api/auth/refresh",
}

// NewEngine builds the gin engine with global middleware, operational
// endpoints and the /api routes.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Warn("Custom validators not registered", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	quiet := []string{"/health", metricsPath}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log, quiet...))
	engine.Use(middleware.Secure(cfg.App.IsProduction()))
	engine.Use(middleware.CORS(cfg.HTTP))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, quiet...))
	}
	if cfg.MetricsSink != nil {
		engine.Use(middleware.HTTPMetrics(cfg.MetricsSink, quiet...))
		if cfg.Metrics.Enabled {
			engine.GET(metricsPath, gin.WrapH(cfg.MetricsSink.Handler()))
		}
	}

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	api := NewAPI("/api")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.TTL)))
		log.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.RateLimit.RPS),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
	}
	api.Use(middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		Validator:      cfg.Tokens,
		TokenBlacklist: cfg.Blacklist,
		SkipPaths:      publicPaths,
		Logger:         log,
	}))
	if cfg.Telemetry.Enabled {
		api.Use(middleware.SpanEnricher())
	}

	idempotent := func(c *gin.Context) { c.Next() }
	if cfg.Idempotency != nil {
		ttl := cfg.HTTP.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		idempotent = middleware.Idempotency(cfg.Idempotency, ttl)
	}

	authRoutes := NewResource("/auth")
	if cfg.RateLimit.Enabled {
		authRoutes.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst, cfg.RateLimit.TTL)))
	}
	authRoutes.POST("/register", h.Auth.Register)
	authRoutes.POST("/login", h.Auth.Login)
	authRoutes.POST("/refresh", h.Auth.Refresh)
	authRoutes.POST("/logout", h.Auth.Logout)
	authRoutes.GET("/me", h.Auth.Me)

	clientRoutes := NewResource("/clients")
	clientRoutes.GET("", h.Clients.List)
	clientRoutes.POST("", h.Clients.Create)
	clientRoutes.POST("/import", h.Clients.Import)
	clientRoutes.GET("/import/template", h.Clients.ImportTemplate)
	clientRoutes.GET("/:id", h.Clients.GetByID)
	clientRoutes.PUT("/:id", h.Clients.Update)
	clientRoutes.DELETE("/:id", h.Clients.Delete)

	companyRoutes := NewResource("/companies")
	companyRoutes.GET("", h.Companies.List)
	companyRoutes.POST("", h.Companies.Create)
	companyRoutes.GET("/:id", h.Companies.GetByID)
	companyRoutes.PATCH("/:id", h.Companies.Update)
	companyRoutes.PUT("/:id", h.Companies.Update)
	companyRoutes.DELETE("/:id", h.Companies.Delete)
	companyRoutes.GET("/:id/payment-methods", h.Companies.ListPaymentMethods)
	companyRoutes.POST("/:id/payment-methods", h.Companies.AddPaymentMethod)
	companyRoutes.DELETE("/:id/payment-methods/:methodId", h.Companies.DeletePaymentMethod)

	serviceRoutes := NewResource("/services")
	serviceRoutes.GET("", h.Services.List)
	serviceRoutes.POST("", h.Services.Create)
	serviceRoutes.GET("/:id", h.Services.GetByID)
	serviceRoutes.PATCH("/:id", h.Services.Update)
	serviceRoutes.PUT("/:id", h.Services.Update)
	serviceRoutes.DELETE("/:id", h.Services.Delete)

	orderRoutes := NewResource("/orders")
	orderRoutes.GET("", h.Orders.List)
	orderRoutes.POST("", h.Orders.Create)
	orderRoutes.GET("/:id", h.Orders.GetByID)
	orderRoutes.PUT("/:id", h.Orders.Update)
	orderRoutes.DELETE("/:id", h.Orders.Delete)
	orderRoutes.POST("/:id/status", h.Orders.ChangeStatus)
	orderRoutes.POST("/:id/generate-invoice", h.Orders.GenerateInvoice)

	invoiceRoutes := NewResource("/invoices")
	invoiceRoutes.GET("", h.Invoices.List)
	invoiceRoutes.POST("", h.Invoices.Create)
	invoiceRoutes.GET("/:id", h.Invoices.GetByID)
	invoiceRoutes.PUT("/:id", h.Invoices.Update)
	invoiceRoutes.DELETE("/:id", h.Invoices.Delete)
	invoiceRoutes.POST("/:id/send", h.Invoices.Send)
	invoiceRoutes.GET("/:id/pdf", h.Invoices.PDF)
	invoiceRoutes.POST("/:id/cancel", h.Invoices.Cancel)
	invoiceRoutes.GET("/:id/archive", h.Invoices.ArchiveLink)
	invoiceRoutes.GET("/:id/payments", h.Invoices.ListPayments)
	invoiceRoutes.POST("/:id/payments", idempotent, h.Invoices.AddPayment)

	paymentRoutes := NewResource("/payments")
	paymentRoutes.GET("", h.Payments.List)
	paymentRoutes.POST("", idempotent, h.Payments.Create)
	paymentRoutes.GET("/invoice/:id", h.Payments.ListByInvoice)
	paymentRoutes.GET("/:id", h.Payments.GetByID)
	paymentRoutes.PUT("/:id", h.Payments.Update)
	paymentRoutes.DELETE("/:id", h.Payments.Delete)

	subscriptionRoutes := NewResource("/subscriptions")
	subscriptionRoutes.GET("", h.Subscriptions.List)
	subscriptionRoutes.POST("", h.Subscriptions.Create)
	subscriptionRoutes.GET("/due", h.Subscriptions.Due)
	subscriptionRoutes.GET("/:id", h.Subscriptions.GetByID)
	subscriptionRoutes.PUT("/:id", h.Subscriptions.Update)
	subscriptionRoutes.DELETE("/:id", h.Subscriptions.Cancel)
	subscriptionRoutes.POST("/:id/cancel", h.Subscriptions.Cancel)
	subscriptionRoutes.POST("/:id/generate-invoice", h.Subscriptions.GenerateInvoice)

	reportRoutes := NewResource("/reports")
	reportRoutes.GET("/overview", h.Reports.Overview)
	reportRoutes.GET("/revenue", h.Reports.Revenue)
	reportRoutes.GET("/clients", h.Reports.TopClients)

	resources := []*Resource{
		authRoutes,
		clientRoutes,
		companyRoutes,
		serviceRoutes,
		orderRoutes,
		invoiceRoutes,
		paymentRoutes,
		subscriptionRoutes,
		reportRoutes,
	}
	api.Add(resources...).Mount(engine)
	if ce := log.Check(zap.DebugLevel, "API routes mounted"); ce != nil {
		var paths []string
		for _, res := range resources {
			paths = append(paths, res.Paths()...)
		}
		ce.Write(zap.Strings("routes", paths))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeRouteNotFound, "Route not found"))
	})

	return engine
}
