package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/unalkalkan/QuizForge/internal/health"
	"github.com/unalkalkan/QuizForge/internal/provider"
	"github.com/unalkalkan/QuizForge/pkg/types"
	"go.uber.org/zap"
)

// Dependencies are the components the HTTP layer is built from
type Dependencies struct {
	Quiz     *QuizHandler
	Health   *health.Handler
	Registry *provider.Registry
	Config   *types.Config
	Version  string
	Logger   *zap.Logger
}

// NewRouter builds the chi router serving the quiz API, health and info endpoints
func NewRouter(d Dependencies) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(logger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.Config.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "Content-Length"},
		MaxAge:         300,
	}))

	// Health endpoints
	r.Get("/health", d.Health.HealthHandler())
	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())

	r.Get("/api/v1/info", infoHandler(d.Version, d.Config))
	r.Get("/api/v1/providers", providersHandler(d.Registry, d.Config.Generation.Provider))

	r.Route("/api/quiz", func(r chi.Router) {
		if d.Config.Server.RequestTimeout > 0 {
			r.Use(middleware.Timeout(time.Duration(d.Config.Server.RequestTimeout) * time.Second))
		}

		r.Post("/generate-from-pdf", d.Quiz.GenerateFromPDF)
		r.Post("/generate-from-text", d.Quiz.GenerateFromText)
		r.Post("/format", d.Quiz.Format)
		r.Post("/export", d.Quiz.Export)

		// Paths served before the display projection existed
		r.Post("/generate", d.Quiz.LegacyGenerate)
		r.Post("/text", d.Quiz.LegacyText)
		r.Get("/test", d.Quiz.Test)
	})

	return r
}
