package router

import (
	"net/http"

	"github.com/KSD554/imagekit/internal/api"
	"github.com/KSD554/imagekit/internal/config"
	"github.com/KSD554/imagekit/internal/credential"
	"github.com/KSD554/imagekit/internal/handler"
	"github.com/KSD554/imagekit/internal/metrics"
	"github.com/KSD554/imagekit/internal/transform"
	"github.com/KSD554/imagekit/internal/upload"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server holds the application dependencies and HTTP router.
type Server struct {
	Config  *config.Config
	Metrics *metrics.Metrics
	Issuer  *credential.Issuer
	Router  chi.Router
}

// New creates a new Server with a fully configured chi router. A nil m
// gets a fresh registry.
func New(cfg *config.Config, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.New()
	}

	issuer := credential.New(credential.Config{
		PrivateKey: cfg.PrivateKey,
		PublicKey:  cfg.PublicKey,
		TTL:        cfg.TokenTTL,
	})
	builder := transform.NewBuilder(transform.Config{
		DemoEndpoint:   cfg.DemoEndpoint,
		TenantEndpoint: cfg.TenantEndpoint,
		TenantID:       cfg.TenantID,
	})
	client := upload.NewClient(upload.ClientConfig{
		Endpoint: cfg.UploadEndpoint,
		MaxBytes: cfg.MaxUploadBytes(),
	})
	uploader := upload.NewUploader(issuer, client,
		upload.WithBackoff(cfg.RetryBackoff),
		upload.WithMetrics(m),
	)

	s := &Server{Config: cfg, Metrics: m, Issuer: issuer}

	h := &handler.Handler{
		Issuer:   issuer,
		Builder:  builder,
		Uploader: uploader,
		Metrics:  m,
		Config:   cfg,
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// CORS before other middleware so preflight OPTIONS are answered.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.NotFound(w, "route not found")
	})

	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	limiter := api.NewRateLimiter(cfg.AuthRatePerSecond, cfg.AuthRateBurst)

	r.Route("/api", func(r chi.Router) {
		r.With(api.NoStore, limiter.PerIP).Get("/upload-auth", h.UploadAuth)

		r.Get("/transformations", h.Transformations)
		r.Get("/demo-images", h.DemoImages)
		r.Get("/transform", h.Transform)
		r.Get("/preview", h.Preview)

		r.Post("/upload", h.Upload)
	})

	s.Router = r
	return s
}

// Health returns a simple health-check response.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
