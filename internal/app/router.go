package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-lista/internal/auth"
	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/db"
	"github.com/noah-isme/backend-lista/internal/estimate"
	"github.com/noah-isme/backend-lista/internal/health"
	"github.com/noah-isme/backend-lista/internal/listitem"
	"github.com/noah-isme/backend-lista/internal/listview"
	"github.com/noah-isme/backend-lista/internal/obs"
	"github.com/noah-isme/backend-lista/internal/product"
	"github.com/noah-isme/backend-lista/internal/profile"
	"github.com/noah-isme/backend-lista/internal/ratelimit"
	"github.com/noah-isme/backend-lista/internal/resilience"
	"github.com/noah-isme/backend-lista/internal/security"
	"github.com/noah-isme/backend-lista/internal/shoppinglist"
)

// Handlers groups the per-resource HTTP handlers.
type Handlers struct {
	Profile  *profile.Handler
	Lists    *shoppinglist.Handler
	ListView *listview.Handler
	Estimate *estimate.Handler
	Products *product.Handler
	Items    *listitem.Handler
}

// NewHandlers wires services on top of deps.
func NewHandlers(deps Dependencies) Handlers {
	cfg := deps.Config
	store := db.NewStore(deps.DB)
	metrics := obs.NewDomainMetrics(cfg.Observability.MetricsNamespace, deps.registerer())

	profiles := profile.NewService(store)
	lists := shoppinglist.NewService(store)
	products := product.NewService(store, lists)
	items := listitem.NewService(store, listitem.StoreTx(store), lists, metrics)

	var seeds estimate.SeedReader
	if deps.Redis != nil {
		logger := deps.Logger
		breaker := resilience.NewBreaker(5, 0.5, 30*time.Second).OnStateChange(func(from, to resilience.State) {
			metrics.BreakerState("seed_cache", int(to))
			logger.Warn().Str("target", "seed_cache").Str("from_state", from.String()).Str("to_state", to.String()).Msg("breaker_transition")
		})
		seeds = &estimate.SeedCache{R: deps.Redis, TTL: cfg.SeedCacheTTL, Next: store, Metrics: metrics, Breaker: breaker}
	}
	estimates := estimate.NewService(store, seeds, lists, metrics)

	return Handlers{
		Profile: &profile.Handler{Service: profiles},
		Lists:   &shoppinglist.Handler{Service: lists},
		ListView: &listview.Handler{Service: &listview.Service{
			Lists:     lists,
			Products:  products,
			Estimates: estimates,
			Regions:   profiles,
			Q:         store,
		}},
		Estimate: &estimate.Handler{Service: estimates, Regions: profiles},
		Products: &product.Handler{Service: products},
		Items:    &listitem.Handler{Service: items},
	}
}

// NewRouter builds the API router: ambient middleware, probes, metrics and
// the authenticated /api/v1 tree.
func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	h := NewHandlers(deps)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(obs.RequestLogger{Logger: deps.Logger}.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.Observability.EnablePrometheus {
		r.Use(obs.HTTPObs{Metrics: obs.NewHTTPMetrics(cfg.Observability.MetricsNamespace, nil, deps.registerer())}.Middleware)
	}
	r.Use(security.Headers{Enable: cfg.Security.HeadersEnabled, EnableHSTS: cfg.IsProduction()}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", common.IdempotencyHeader, "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	probes := health.Handler{Checks: deps.Checks}
	r.Get("/health/live", probes.Live)
	r.Get("/health/ready", probes.Ready)
	if cfg.Observability.EnablePrometheus {
		r.Handle("/metrics", promhttp.HandlerFor(deps.gatherer(), promhttp.HandlerOpts{}))
	}

	writes := writeMiddleware(deps)
	authn := auth.Middleware{Tokens: deps.Tokens}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(authn.RequireAuth)
		api.Use(security.BodyLimit{Max: cfg.Security.BodyLimitBytes}.Middleware)

		api.Get("/profile", h.Profile.Get)
		api.With(writes...).Put("/profile", h.Profile.Update)

		api.Get("/categories", h.Products.Categories)
		api.Get("/products", h.Products.List)
		api.With(writes...).Delete("/products/{productID}", h.Products.Deactivate)

		api.Get("/lists", h.Lists.List)
		api.With(writes...).Post("/lists", h.Lists.Create)
		api.Route("/lists/{listID}", func(list chi.Router) {
			list.Get("/", h.ListView.Get)
			list.With(writes...).Delete("/", h.Lists.Delete)
			list.With(writes...).Patch("/status", h.Lists.SetStatus)
			list.Get("/estimate", h.Estimate.Get)
			list.With(writes...).Post("/products", h.Products.Create)
			list.With(writes...).Post("/items", h.Items.Create)
			list.With(writes...).Patch("/items/{itemID}", h.Items.Update)
			list.With(writes...).Post("/items/{itemID}/purchase", h.Items.Purchase)
			list.With(writes...).Delete("/items/{itemID}", h.Items.Delete)
		})
	})

	return r
}

// writeMiddleware rate limits per user and route and honours
// Idempotency-Key when Redis is available.
func writeMiddleware(deps Dependencies) []func(http.Handler) http.Handler {
	cfg := deps.Config
	logger := deps.Logger

	var backend ratelimit.Backend = ratelimit.NewMemory("ratelimit:")
	if deps.Redis != nil {
		backend = ratelimit.SlidingWindow{Client: deps.Redis, Prefix: "ratelimit:"}
	}
	limiter := ratelimit.Handler{
		Limiter: backend,
		Config:  ratelimit.Config{Key: ratelimit.UserRouteKey, Window: cfg.RateLimit.Window, Max: cfg.RateLimit.Max},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}
	out := []func(http.Handler) http.Handler{limiter.Middleware}
	if deps.Redis != nil {
		out = append(out, common.Idem{R: deps.Redis, TTL: cfg.Idempotency}.Middleware)
	}
	return out
}
