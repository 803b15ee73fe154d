package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/tech0-pos/pos-api/app/catalog"
	"github.com/tech0-pos/pos-api/app/health"
	"github.com/tech0-pos/pos-api/app/metrics"
	"github.com/tech0-pos/pos-api/app/purchase"
)

type Handlers struct {
	Catalog  *catalog.CatalogHandler
	Purchase *purchase.PurchaseHandler
	Health   *health.HealthHandler
	Metrics  http.Handler
}

type Options struct {
	Logger         zerolog.Logger
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID(opts.Logger))
	r.Use(middleware.RealIP)
	r.Use(AccessLog)
	if opts.Metrics != nil {
		r.Use(Instrument(opts.Metrics))
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/", h.Health.HandleRoot)
	r.Get("/health/db", h.Health.HandleDB)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.Catalog.HandleList)
		r.Get("/search", h.Catalog.HandleSearch)
	})

	r.Post("/purchase2", h.Purchase.HandleCommit)
	r.Get("/transactions/{id}", h.Purchase.HandleGetTransaction)

	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	return r
}
