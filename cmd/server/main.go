package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/tech0-pos/pos-api/app/catalog"
	"github.com/tech0-pos/pos-api/app/config"
	"github.com/tech0-pos/pos-api/app/database"
	"github.com/tech0-pos/pos-api/app/health"
	"github.com/tech0-pos/pos-api/app/logging"
	"github.com/tech0-pos/pos-api/app/metrics"
	"github.com/tech0-pos/pos-api/app/purchase"
	"github.com/tech0-pos/pos-api/app/server"
	"github.com/tech0-pos/pos-api/models"
)

const startupPingTimeout = 5 * time.Second

func main() {
	cf, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cf.LogLevel, cf.LogFormat, os.Stdout)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	dbOpts := database.Options{
		Driver:          cf.DBDriver,
		URL:             cf.DBURL,
		SSLCA:           cf.DBSSLCA,
		MaxOpenConns:    cf.DBMaxOpenConns,
		MaxIdleConns:    cf.DBMaxIdleConns,
		ConnMaxLifetime: cf.DBConnMaxLifetime,
	}
	db, err := database.Open(dbOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if reachable := checkDatabase(db, logger); reachable && cf.MigrateOnStart {
		if err := database.Migrate(dbOpts); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	productRepo := models.NewProductsRepository(db.Gorm)
	var products catalog.ProductProvider = productRepo
	if cf.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cf.RedisAddr,
			Password: cf.RedisPassword,
			DB:       cf.RedisDB,
		})
		defer client.Close()
		products = models.NewCachedCatalog(productRepo, client, cf.CatalogCacheTTL)
		logger.Info().Str("addr", cf.RedisAddr).Dur("ttl", cf.CatalogCacheTTL).Msg("catalog cache enabled")
	}

	txRepo := models.NewTransactionsRepository(db.Gorm)
	svc := purchase.NewService(txRepo, txRepo, logger, m)

	router := server.NewRouter(server.Handlers{
		Catalog:  catalog.NewCatalogHandler(products),
		Purchase: purchase.NewPurchaseHandler(svc),
		Health:   health.NewHealthHandler(db.SQL, logger),
		Metrics:  metrics.Handler(registry),
	}, server.Options{
		Logger:         logger,
		Metrics:        m,
		AllowedOrigins: cf.CORSAllowedOrigins,
		RequestTimeout: cf.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cf.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cf.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("pos api starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cf.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server exited")
}

// checkDatabase logs whether the database answers a ping. An unreachable
// database is reported but does not stop the server.
func checkDatabase(db *database.DB, logger zerolog.Logger) bool {
	ctx, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
	defer cancel()

	if err := db.SQL.PingContext(ctx); err != nil {
		logger.Error().Err(err).Str("driver", db.Driver).Msg("database connection check failed")
		return false
	}
	logger.Info().Str("driver", db.Driver).Msg("database connection ok")
	return true
}
