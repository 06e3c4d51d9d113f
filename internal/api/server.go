package api

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/containerstacks/internal/api/handler"
	mw "github.com/edvin/containerstacks/internal/api/middleware"
	"github.com/edvin/containerstacks/internal/config"
	"github.com/edvin/containerstacks/internal/core"
)

//go:embed docs/swagger.json
var swaggerJSON []byte

// Pinger reports database reachability for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	db       Pinger
	auth     *mw.Authenticator
	cfg      *config.Config
}

func NewServer(logger zerolog.Logger, db Pinger, services *core.Services, auth *mw.Authenticator, cfg *config.Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		db:       db,
		auth:     auth,
		cfg:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOriginList(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router.Use(mw.DetailedErrors(s.cfg.DevMode))
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// API documentation (no auth required)
	s.router.Get("/docs/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(swaggerJSON)
	})
	s.router.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scalarHTML))
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.cfg.RateLimit, s.cfg.RateLimitWindow))
		}
		r.Use(mw.Auth(s.auth))

		// VPS lifecycle
		vps := handler.NewVPS(s.services.Vps)
		r.Get("/vps", vps.List)
		r.Post("/vps", vps.Create)
		r.Get("/vps/plans", vps.Plans)
		r.Get("/vps/{id}", vps.Get)
		r.Post("/vps/{id}/{action}", vps.Action)
		r.Delete("/vps/{id}", vps.Delete)

		// Live provider catalog
		catalog := handler.NewProvider(s.services.ProviderCatalog)
		r.Get("/vps/providers/{id}/regions", catalog.Regions)
		r.Get("/vps/providers/{id}/images", catalog.Images)
		r.Get("/vps/providers/{id}/plans", catalog.Plans)
		r.Get("/vps/providers/{id}/apps", catalog.Apps)
		r.Get("/vps/providers/{id}/ssh-keys", catalog.ListSSHKeys)
		r.Post("/vps/providers/{id}/ssh-keys", catalog.CreateSSHKey)
		r.Delete("/vps/providers/{id}/ssh-keys/{keyID}", catalog.DeleteSSHKey)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin)

			r.Post("/vps/providers/{id}/validate", catalog.Validate)

			admin := handler.NewAdminProvider(s.services.ProviderAdmin)
			r.Get("/admin/providers", admin.List)
			r.Post("/admin/providers", admin.Create)
			r.Patch("/admin/providers/{id}", admin.Update)
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.db.Ping(ctx); err != nil {
		checks["core_db"] = err.Error()
		healthy = false
	} else {
		checks["core_db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]any{"healthy": healthy, "checks": checks})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

const scalarHTML = `<!DOCTYPE html>
<html>
<head>
  <title>ContainerStacks API</title>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
</head>
<body>
  <script id="api-reference" data-url="/docs/openapi.json"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
