package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemtemplates/internal/interfaces/http/handlers"
	"github.com/turtacn/chemtemplates/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware of the route tree.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	TemplateHandler *handlers.TemplateHandler
	MoleculeHandler *handlers.MoleculeHandler
	AssemblyHandler *handlers.AssemblyHandler
	SchemaHandler   *handlers.SchemaHandler
	JobHandler      *handlers.JobHandler
	HealthHandler   *handlers.HealthHandler

	CORS          *middleware.CORSConfig
	RateLimiter   middleware.RateLimiter
	LoggingConfig middleware.LoggingConfig
	MaxBodySize   int64

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter builds the HTTP route tree: global middleware, health endpoints, metrics
// and the /api/v1 resource groups.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogging(logger.Named("http"), cfg.LoggingConfig))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(chimw.Recoverer)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(middleware.RateLimit(cfg.RateLimiter, nil))
		}
		if cfg.MaxBodySize > 0 {
			api.Use(chimw.RequestSize(cfg.MaxBodySize))
		}
		api.Use(chimw.AllowContentType("application/json"))

		registerTemplateRoutes(api, cfg.TemplateHandler)
		registerMoleculeRoutes(api, cfg.MoleculeHandler)
		registerAssemblyRoutes(api, cfg.AssemblyHandler)
		registerSchemaRoutes(api, cfg.SchemaHandler)
		registerJobRoutes(api, cfg.JobHandler)
	})

	return r
}

func registerTemplateRoutes(r chi.Router, h *handlers.TemplateHandler) {
	if h == nil {
		return
	}
	r.Get("/filters/descriptions", h.Descriptions)
	r.Route("/templates", func(tr chi.Router) {
		tr.Get("/", h.List)
		tr.Post("/", h.Create)
		tr.Get("/base", h.Base)
		tr.Post("/strip", h.Strip)
		tr.Post("/evaluate", h.Evaluate)

		tr.Route("/{id}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Put("/", h.Update)
			item.Delete("/", h.Delete)
			item.Post("/evaluate", h.EvaluateSaved)
		})
	})
}

func registerMoleculeRoutes(r chi.Router, h *handlers.MoleculeHandler) {
	if h == nil {
		return
	}
	r.Route("/molecules", func(mr chi.Router) {
		mr.Post("/properties", h.Properties)
		mr.Post("/catalogs", h.Catalogs)
	})
}

func registerAssemblyRoutes(r chi.Router, h *handlers.AssemblyHandler) {
	if h == nil {
		return
	}
	r.Route("/building-blocks", func(br chi.Router) {
		br.Get("/description", h.BuildingBlockDescription)
		br.Get("/reaction-mechanisms", h.ReactionMechanisms)
		br.Post("/synthons", h.Synthons)
		br.Post("/schemas/strip", h.StripPresetSchema)
		br.Get("/schemas/{kind}", h.PresetSchema)
		br.Post("/assemble/2bb", h.AssembleTwoBB)
		br.Post("/assemble/3bb", h.AssembleThreeBB)
		br.Post("/assemble/custom", h.AssembleSynthons)
	})
	r.Route("/fragments", func(fr chi.Router) {
		fr.Get("/description", h.FragmentDescription)
		fr.Post("/assemble/custom", h.AssembleFragments)
	})
}

func registerSchemaRoutes(r chi.Router, h *handlers.SchemaHandler) {
	if h == nil {
		return
	}
	r.Route("/assembly-schemas", func(sr chi.Router) {
		sr.Get("/", h.List)
		sr.Post("/", h.Create)

		sr.Route("/{id}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Put("/", h.Update)
			item.Delete("/", h.Delete)
			item.Post("/assemble", h.Assemble)
		})
	})
}

func registerJobRoutes(r chi.Router, h *handlers.JobHandler) {
	if h == nil {
		return
	}
	r.Route("/jobs", func(jr chi.Router) {
		jr.Post("/evaluations", h.Submit)
		jr.Get("/{id}", h.Get)
	})
}

//Personal.AI order the ending
