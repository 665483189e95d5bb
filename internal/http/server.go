// Package http serves the dashboard pages, PNG charts and the JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"cpitracker/internal/cache"
	"cpitracker/internal/cluster"
	"cpitracker/internal/core"
	"cpitracker/internal/log"
	"cpitracker/internal/metrics"
	"cpitracker/internal/middleware/ratelimit"
	"cpitracker/internal/middleware/security"
	"cpitracker/internal/middleware/trace"
	appweb "cpitracker/web"
)

const (
	rankingSize      = 10
	defaultK         = 3
	staticMaxAge     = 3600
	chartMaxAge      = 300
	cacheSweepPeriod = 5 * time.Minute
)

// DatasetProvider hands out the loaded dataset.
type DatasetProvider interface {
	Dataset(ctx context.Context) (*core.Dataset, error)
	Loaded() bool
}

// Deps are the collaborators and settings of a Server.
type Deps struct {
	Provider       DatasetProvider
	Logger         *log.Logger
	Metrics        *metrics.Metrics
	DefaultCountry string
	Cluster        cluster.Options

	CacheSize          int
	CacheTTL           time.Duration
	RateLimitPerMinute int
	TrustedProxies     []string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server is the dashboard HTTP server.
type Server struct {
	http.Server

	provider       DatasetProvider
	logger         *log.Logger
	structured     *log.StructuredLogger
	metrics        *metrics.Metrics
	defaultCountry string
	clusterOpts    cluster.Options
	templates      *template.Template
	validate       *validator.Validate

	detector *security.Detector
	limiter  *ratelimit.Limiter
	caches   *cache.Manager
	profiles *cache.Loader[core.Profile]
	clusters *cache.Loader[cluster.Result]
	charts   *cache.Loader[[]byte]

	shutdownOnce sync.Once
}

// NewServer wires routes, middleware and caches. Template parse failures are
// logged and reported by /readyz rather than returned.
func NewServer(addr string, d Deps) (*Server, error) {
	if d.Provider == nil {
		return nil, errors.New("dataset provider is required")
	}
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.CacheSize <= 0 {
		d.CacheSize = 256
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 10 * time.Minute
	}

	detector, err := security.NewDetector(d.TrustedProxies, d.Logger)
	if err != nil {
		return nil, fmt.Errorf("security detector: %w", err)
	}
	detector.OnReject(func() { d.Metrics.Rejected("probe") })

	profileCache := cache.NewLRUCache[core.Profile](d.CacheSize, d.CacheTTL)
	clusterCache := cache.NewLRUCache[cluster.Result](d.CacheSize, d.CacheTTL)
	chartCache := cache.NewLRUCache[[]byte](d.CacheSize, d.CacheTTL)
	manager := cache.NewManager()
	manager.Register(profileCache)
	manager.Register(clusterCache)
	manager.Register(chartCache)
	manager.StartCleanup(cacheSweepPeriod)

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			ReadTimeout:  d.ReadTimeout,
			WriteTimeout: d.WriteTimeout,
			IdleTimeout:  d.IdleTimeout,
		},
		provider:       d.Provider,
		logger:         d.Logger.WithComponent(log.ComponentHTTP),
		structured:     log.NewStructuredLogger(d.Logger),
		metrics:        d.Metrics,
		defaultCountry: d.DefaultCountry,
		clusterOpts:    d.Cluster,
		validate:       newValidator(),
		detector:       detector,
		limiter:        ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimitPerMinute}),
		caches:         manager,
		profiles:       cache.NewLoader[core.Profile]("profile", profileCache, d.Metrics),
		clusters:       cache.NewLoader[cluster.Result]("cluster", clusterCache, d.Metrics),
		charts:         cache.NewLoader[[]byte]("chart", chartCache, d.Metrics),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err.Error())
	} else {
		s.templates = t
	}

	s.Handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	tracer := trace.NewMiddleware(s.logger, s.detector.ClientIP, s.metrics.ObserveRequest)
	r.Use(middleware.Recoverer)
	r.Use(tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	if static, err := appweb.Static(); err == nil {
		r.With(security.CacheControl(staticMaxAge)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	r.Get("/", s.handleGlobal)
	r.Get("/country", s.handleCountry)
	r.Get("/correlation", s.handleCorrelation)
	r.Get("/clusters", s.handleClusters)

	limited := s.limiter.Middleware(s.detector.ClientIP, s.onRateLimited)

	r.Route("/charts", func(r chi.Router) {
		r.Use(limited)
		r.Use(security.CacheControl(chartMaxAge))
		r.Get("/history.png", s.handleHistoryChart)
		r.Get("/correlation.png", s.handleCorrelationChart)
		r.Get("/clusters.png", s.handleClustersChart)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(limited)
		r.Get("/countries", s.apiCountries)
		r.Get("/continents", s.apiContinents)
		r.Get("/profile", s.apiProfile)
		r.Get("/latest", s.apiLatest)
		r.Get("/clusters", s.apiClusters)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			s.renderError(w, r, newAPIError(http.StatusNotFound, CodeNotFound, "unknown endpoint", nil))
		})
	})

	return r
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.Rejected("rate_limit")
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldPath, r.URL.Path)
	if render.GetRequestContentType(r) == render.ContentTypeJSON {
		s.renderError(w, r, newAPIError(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, retry later", nil))
		return
	}
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady succeeds once the dataset is loaded and the templates parsed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.provider.Loaded() || s.templates == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// dataset returns the loaded dataset or logs why it is unavailable.
func (s *Server) dataset(ctx context.Context) (*core.Dataset, error) {
	ds, err := s.provider.Dataset(ctx)
	if err != nil {
		s.structured.LogError(ctx, "Dataset unavailable", err, log.ComponentDataset, log.OpLoad,
			log.NewFields().WithErrorType(log.ErrorTypeDataset))
		return nil, err
	}
	return ds, nil
}
