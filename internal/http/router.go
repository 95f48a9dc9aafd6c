package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/contacthub/contacthub/internal/auth"
	"github.com/contacthub/contacthub/internal/cache"
	"github.com/contacthub/contacthub/internal/config"
	"github.com/contacthub/contacthub/internal/http/handlers"
	"github.com/contacthub/contacthub/internal/http/middlewares"
	"github.com/contacthub/contacthub/internal/notifications"
	"github.com/contacthub/contacthub/internal/observability"
	"github.com/contacthub/contacthub/internal/repo/postgres"
	"github.com/contacthub/contacthub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(
	log *slog.Logger,
	cfg config.Config,
	pool *pgxpool.Pool,
	cacheClient *cache.Client,
	reg *prometheus.Registry,
	prom *observability.Prom,
) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(otelgin.Middleware("contacthub"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health

	pingDB := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	pingCache := func() error {
		if cacheClient == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return cacheClient.Ping(ctx)
	}

	h := handlers.NewHealthHandler(pingDB, pingCache)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories and services

	usersRepo := postgres.NewUsersRepo(pool, prom)
	contactsRepo := postgres.NewContactsRepo(pool, prom)
	userCache := cache.NewUserCache(cacheClient, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.EmailTokenTTL)
	authSvc := service.NewAuthService(usersRepo, userCache, jwtManager, cfg.UserCacheTTL)
	contactsSvc := service.NewContactsService(contactsRepo)

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{},
	)

	// handlers

	exposeTokens := cfg.Env != "prod"
	authHandler := handlers.NewAuthHandler(authSvc, notifier, log, exposeTokens)
	usersHandler := handlers.NewUsersHandler(usersRepo, userCache)
	contactsHandler := handlers.NewContactsHandler(contactsSvc)

	authMw := middlewares.NewAuthMiddleware(authSvc)

	authLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	apiLimiter := middlewares.NewRateLimiter(cfg.APIRateLimit, cfg.APIRateWindow)

	// public auth routes, limited per IP

	authGroup := r.Group("/auth", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/confirm_email/:token", authHandler.ConfirmEmail)
	authGroup.POST("/request_email", authHandler.RequestEmailVerification)
	authGroup.POST("/request-password-reset", authHandler.RequestPasswordReset)
	authGroup.POST("/reset-password", authHandler.ResetPassword)

	// authenticated API, limited per user

	api := r.Group("/api",
		authMw.RequireAuth(),
		apiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
	)

	api.POST("/contacts", contactsHandler.CreateContact)
	api.GET("/contacts", contactsHandler.ListContacts)
	api.GET("/contacts/search", contactsHandler.SearchContacts)
	api.GET("/contacts/birthdays", contactsHandler.UpcomingBirthdays)
	api.GET("/contacts/:id", contactsHandler.GetContactById)
	api.PUT("/contacts/:id", contactsHandler.UpdateContact)
	api.DELETE("/contacts/:id", contactsHandler.DeleteContact)

	api.GET("/users/me", usersHandler.Me)
	api.PATCH("/users/me/avatar", usersHandler.UpdateAvatar)
	api.GET("/users", authMw.RequireRole("admin"), usersHandler.List)
	api.POST("/users/:id/disable", authMw.RequireRole("admin"), usersHandler.Disable)

	return r
}
