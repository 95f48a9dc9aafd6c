package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contacthub/contacthub/internal/cache"
	"github.com/contacthub/contacthub/internal/config"
	"github.com/contacthub/contacthub/internal/db"
	httpx "github.com/contacthub/contacthub/internal/http"
	"github.com/contacthub/contacthub/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	// Redis first: the API stays correct without it, so a failed ping is a
	// warning, not a startup failure.
	cacheClient := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	{
		ctx, cancel := config.WithTimeout(3 * time.Second)
		if err := cacheClient.Ping(ctx); err != nil {
			log.Warn("redis unreachable, cache disabled until it recovers", "err", err)
		}
		cancel()
	}

	// Schema migrations run before the pool opens; a broken schema must not
	// serve traffic.
	{
		ctx, cancel := config.WithTimeout(30 * time.Second)
		err := db.RunMigrations(ctx, cfg.DBURL)
		cancel()

		if err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("postgres connection failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	{
		ctx, cancel := config.WithTimeout(5 * time.Second)
		err := db.EnsureAdminUser(ctx, pool, cfg)
		cancel()

		if err != nil {
			log.Error("admin seed failed", "err", err)
			os.Exit(1)
		}
	}

	// observability

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	shutdownTracer := func(context.Context) error { return nil }

	if cfg.OTLPEndpoint != "" {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		shutdown, err := observability.InitTracer(ctx, "contacthub", cfg.OTLPEndpoint)
		cancel()

		if err != nil {
			log.Warn("tracing disabled", "err", err)
		} else {
			shutdownTracer = shutdown
		}
	}

	router := httpx.NewRouter(log, cfg, pool, cacheClient, reg, prom)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Warn("tracer shutdown failed", "err", err)
		}

		if err := cacheClient.Close(); err != nil {
			log.Warn("redis close failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
