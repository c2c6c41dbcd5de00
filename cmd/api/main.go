package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/submanager/internal/api/handlers"
	"github.com/dvloznov/submanager/internal/config"
	"github.com/dvloznov/submanager/internal/jobs"
	"github.com/dvloznov/submanager/internal/jobs/inmemory"
	"github.com/dvloznov/submanager/internal/logger"
	"github.com/dvloznov/submanager/internal/pipeline"
	"github.com/dvloznov/submanager/internal/results"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", os.Getenv("SUBMANAGER_CONFIG"), "Path to YAML config (or set SUBMANAGER_CONFIG env)")
		port       = flag.String("port", "", "HTTP server port, overrides config")
		export     = flag.Bool("export", false, "Write every detection run to BigQuery")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New().Fatal().Err(err).Msg("Failed to load config")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	// Initialize logger
	log := logger.NewWithLevel(cfg.Log.Level, cfg.Log.Format)

	ctx := logger.WithContext(context.Background(), log)

	// GCS is only needed for imports.
	useStorage := cfg.GCP.Bucket != ""
	if !useStorage {
		log.Warn().Msg("No GCS bucket configured - statement imports will be disabled")
	}

	res, err := pipeline.Setup(ctx, cfg, pipeline.SetupOptions{Storage: useStorage, Export: *export})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up detection pipeline")
	}
	defer res.Close()

	resultStore := results.NewStore()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Jobs.BufferSize, jobStore).WithWorkers(cfg.Jobs.Workers)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	var publisher jobs.Publisher
	if useStorage {
		publisher = jobQueue
		go func() {
			log.Info().Int("workers", cfg.Jobs.Workers).Msg("Starting job worker")
			if err := jobQueue.Start(workerCtx, pipeline.ImportJobHandler(res.Pipeline, resultStore)); err != nil {
				log.Error().Err(err).Msg("Job worker stopped with error")
			}
		}()
	}

	// Initialize handlers
	statementsHandler := handlers.NewStatementsHandler(res.Pipeline, resultStore, publisher, cfg.Server.MaxUploadBytes, cfg.Detection.LookbackMonths, log)
	subscriptionsHandler := handlers.NewSubscriptionsHandler(resultStore, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := handlers.NewRouter(statementsHandler, subscriptionsHandler, jobsHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.Wrap(mux, log),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
