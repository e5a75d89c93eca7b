package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"careerarc/internal/api/handlers"
	"careerarc/internal/api/routes"
	"careerarc/internal/config"
	"careerarc/internal/extraction"
	grpcserver "careerarc/internal/grpc/server"
	"careerarc/internal/importer"
	"careerarc/internal/llm"
	"careerarc/internal/logging"
	"careerarc/internal/mux"
	"careerarc/internal/prioritizer"
	"careerarc/internal/profilestore"
	"careerarc/internal/scoring"
	"careerarc/pkg/utils"
)

func main() {
	cfg, err := config.LoadConfig(utils.GetStringOrDefault(os.Getenv("CONFIG_PATH"), "configs/config.yaml"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()
	logger := logging.GetGlobalLogger()
	logger.Info("Starting Career Arc", map[string]interface{}{"version": handlers.Version})

	ctx := context.Background()

	// Shared Redis backs both the task registry and the profile cache
	var redisClient *utils.RedisClient
	if cfg.Imports.Store == "redis" {
		redisClient = utils.NewRedisClient(cfg)
		if err := redisClient.Ping(ctx); err != nil {
			logger.Fatal("Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		defer redisClient.Close()
	}

	llmManager := llm.NewManager(cfg)
	if err := llmManager.Start(ctx); err != nil {
		logger.Fatal("Failed to start LLM manager", map[string]interface{}{"error": err.Error()})
	}

	var (
		extractionService importer.ExtractionService
		localExtraction   *extraction.LocalService
	)
	switch cfg.Imports.Extraction {
	case "http":
		client, err := importer.NewHTTPExtractionClient(cfg)
		if err != nil {
			logger.Fatal("Failed to create extraction client", map[string]interface{}{"error": err.Error()})
		}
		extractionService = client
	case "local", "":
		localExtraction = extraction.NewLocalService(cfg, llmManager)
		if err := localExtraction.Start(ctx); err != nil {
			logger.Fatal("Failed to start extraction workers", map[string]interface{}{"error": err.Error()})
		}
		extractionService = localExtraction
	default:
		logger.Fatal("Unknown extraction backend", map[string]interface{}{"extraction": cfg.Imports.Extraction})
	}

	var (
		taskStore    importer.TaskStore
		profileCache profilestore.Cache
	)
	if redisClient != nil {
		taskStore = importer.NewRedisTaskStore(redisClient, cfg.Imports.TaskTTL, cfg.Imports.RequestTimeout)
		profileCache = profilestore.NewRedisCache(redisClient, cfg.ProfileStore.CacheTTL)
	} else {
		taskStore = importer.NewInMemoryTaskStore()
		profileCache = profilestore.NewMemoryCache(cfg.ProfileStore.CacheTTL)
	}

	var profileSource profilestore.Source
	if cfg.ProfileStore.BaseURL != "" {
		client, err := profilestore.NewClient(cfg)
		if err != nil {
			logger.Fatal("Failed to create profile store client", map[string]interface{}{"error": err.Error()})
		}
		profileSource = client
	} else {
		logger.Warn("No profile store configured, only imported profiles are served", nil)
	}
	profiles := profilestore.NewService(profileSource, profileCache)

	var importOpts []importer.ServiceOption
	var spaces *utils.SpacesClient
	if cfg.SpacesEnabled() {
		spaces, err = utils.NewSpacesClient(cfg)
		if err != nil {
			logger.Fatal("Failed to create Spaces client", map[string]interface{}{"error": err.Error()})
		}
		importOpts = append(importOpts, importer.WithArchiver(spaces))
	}

	imports := importer.NewService(cfg, taskStore, extractionService, profiles, importOpts...)
	if err := imports.Start(ctx); err != nil {
		logger.Fatal("Failed to start import watcher", map[string]interface{}{"error": err.Error()})
	}

	tiers, err := prioritizer.TierMapFromConfig(cfg.Documents.LengthTiers)
	if err != nil {
		logger.Fatal("Invalid document length tiers", map[string]interface{}{"error": err.Error()})
	}

	required, optional := dependencyChecks(imports, localExtraction, redisClient, llmManager, spaces)
	grpcServer := grpcserver.NewServer(cfg, required, optional)

	all := make(map[string]handlers.Probe, len(required)+len(optional))
	for name, check := range required {
		all[name] = check
	}
	for name, check := range optional {
		all[name] = check
	}

	e := echo.New()
	e.HideBanner = true
	routes.SetupRoutes(e, cfg, routes.Dependencies{
		Imports:      imports,
		Profiles:     profiles,
		Keywords:     llmManager,
		Scorer:       scoring.NewScorer(cfg.Scoring.RecencyYears),
		Tiers:        tiers,
		HealthProbes: all,
		ReadyProbes:  required,
		GRPCStats:    grpcServer.Metrics,
	})

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	multiplexer := mux.NewMultiplexer(cfg, grpcServer, e)
	if err := multiplexer.Start(address); err != nil {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := multiplexer.Stop(); err != nil {
		logger.Error("Error stopping servers", map[string]interface{}{"error": err.Error()})
	}
	if err := imports.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping import watcher", map[string]interface{}{"error": err.Error()})
	}
	if localExtraction != nil {
		if err := localExtraction.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping extraction workers", map[string]interface{}{"error": err.Error()})
		}
	}
	if err := llmManager.Stop(); err != nil {
		logger.Error("Error stopping LLM manager", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Server shutdown complete", nil)
}

// dependencyChecks splits the health checks into those that gate readiness
// and those that are only reported
func dependencyChecks(imports *importer.Service, local *extraction.LocalService, redisClient *utils.RedisClient, llmManager *llm.Manager, spaces *utils.SpacesClient) (required, optional map[string]grpcserver.Check) {
	required = map[string]grpcserver.Check{
		"imports": func(ctx context.Context) error {
			if !imports.IsHealthy() {
				return errors.New("import watcher is not running")
			}
			return nil
		},
	}
	optional = map[string]grpcserver.Check{
		"llm": func(ctx context.Context) error {
			if !llmManager.IsHealthy() {
				return llm.ErrLLMUnavailable
			}
			return nil
		},
	}

	if local != nil {
		required["extraction"] = func(ctx context.Context) error {
			if !local.IsHealthy() {
				return errors.New("extraction workers are not running")
			}
			return nil
		}
	}
	if redisClient != nil {
		required["redis"] = redisClient.IsHealthy
	}
	if spaces != nil {
		optional["spaces"] = func(ctx context.Context) error {
			if !spaces.IsHealthy(ctx) {
				return errors.New("bucket is not reachable")
			}
			return nil
		}
	}
	return required, optional
}
