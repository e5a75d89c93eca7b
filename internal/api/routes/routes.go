package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"careerarc/internal/api/handlers"
	"careerarc/internal/api/middleware"
	"careerarc/internal/config"
	"careerarc/internal/grpc/interceptors"
	"careerarc/internal/importer"
	"careerarc/internal/prioritizer"
	"careerarc/internal/profilestore"
	"careerarc/internal/scoring"
)

// uploadOverhead is the multipart framing allowed on top of the file size limit
const uploadOverhead = 1 << 20

// Dependencies are the services the HTTP API is built on
type Dependencies struct {
	Imports  *importer.Service
	Profiles *profilestore.Service
	Keywords handlers.KeywordSource
	Scorer   *scoring.Scorer
	Tiers    prioritizer.TierMap

	// HealthProbes are reported by /health; ReadyProbes gate /health/ready
	HealthProbes map[string]handlers.Probe
	ReadyProbes  map[string]handlers.Probe

	GRPCStats func() []interceptors.MethodStats
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, deps Dependencies) {
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation(cfg.Imports.MaxFileSize + uploadOverhead))
	// LLM calls and uploads get longer than the default timeout
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, 2*time.Minute))

	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler(deps.HealthProbes))
		health.GET("/ready", handlers.ReadinessHandler(deps.ReadyProbes))
		health.GET("/live", handlers.LivenessHandler)
	}
	e.GET("/status", handlers.StatusHandler(deps.GRPCStats))

	v1 := e.Group("/api/v1", middleware.Auth(cfg))
	{
		profile := v1.Group("/profile")
		{
			profile.GET("", handlers.GetProfileHandler(deps.Profiles))
			profile.POST("/normalize", handlers.NormalizeProfileHandler())
		}

		imports := v1.Group("/imports")
		{
			imports.POST("", handlers.CreateImportHandler(cfg, deps.Imports))
			imports.GET("", handlers.ListImportsHandler(deps.Imports))
			imports.GET("/:id", handlers.GetImportHandler(deps.Imports))
			imports.POST("/:id/poll", handlers.PollImportHandler(deps.Imports))
			imports.DELETE("/:id", handlers.DeleteImportHandler(deps.Imports))
		}

		analysis := v1.Group("/analysis")
		{
			analysis.POST("/keywords", handlers.ExtractKeywordsHandler(deps.Keywords))
			analysis.POST("/score", handlers.ScoreHandler(deps.Scorer, deps.Keywords, deps.Profiles))
		}

		documents := v1.Group("/documents")
		{
			documents.POST("/filter", handlers.FilterDocumentHandler(deps.Tiers))
			documents.GET("/lengths", handlers.DocumentLengthsHandler(deps.Tiers))
		}
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "Career Arc",
			"version": handlers.Version,
			"status":  "running",
		})
	})
}
