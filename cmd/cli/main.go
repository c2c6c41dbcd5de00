package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/submanager/internal/config"
	"github.com/dvloznov/submanager/internal/gcs"
	infraBQ "github.com/dvloznov/submanager/internal/infra/bigquery"
	"github.com/dvloznov/submanager/internal/logger"
	"github.com/dvloznov/submanager/internal/pipeline"
	"github.com/dvloznov/submanager/internal/stats"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "detect":
		runDetect()
	case "upload":
		runUpload()
	case "runs":
		runRuns()
	case "show-run":
		runShowRun()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Subscription Manager CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  detect    Detect subscriptions in a local or gs:// statement")
	fmt.Println("  upload    Upload a statement to GCS")
	fmt.Println("  runs      List detection runs exported to BigQuery")
	fmt.Println("  show-run  Show the subscriptions of an exported run")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// loadConfig reads the config and builds the logger it describes.
func loadConfig(path string) (*config.Config, zerolog.Logger) {
	cfg, err := config.Load(path)
	if err != nil {
		logger.New().Fatal().Err(err).Msg("Failed to load config")
	}
	return cfg, logger.NewWithLevel(cfg.Log.Level, cfg.Log.Format)
}

func runDetect() {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("SUBMANAGER_CONFIG"), "Path to YAML config")
	file := fs.String("file", "", "Statement path or gs:// URI")
	lookback := fs.Int("lookback", -1, "Months of history to analyse, 0 for all (default from config)")
	format := fs.String("format", "table", "Output format: table or json")
	export := fs.Bool("export", false, "Write the run to BigQuery")
	fs.Parse(os.Args[2:])

	cfg, log := loadConfig(*configPath)

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}
	if err := validateFormat(*format); err != nil {
		log.Fatal().Err(err).Msg("Invalid flag")
	}
	if *lookback < 0 {
		*lookback = cfg.Detection.LookbackMonths
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	res, err := pipeline.Setup(ctx, cfg, pipeline.SetupOptions{Storage: gcs.IsGCSURI(*file), Export: *export})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up detection pipeline")
	}
	defer res.Close()

	rs, err := pipeline.Run(ctx, res.Pipeline, &pipeline.PipelineState{
		Source:         *file,
		LookbackMonths: *lookback,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Detection failed")
	}

	if err := render(os.Stdout, *format, rs.Subscriptions, rs.Summary()); err != nil {
		log.Fatal().Err(err).Msg("Failed to render result")
	}
	if *export {
		fmt.Fprintf(os.Stderr, "Exported run %s\n", rs.RunID)
	}
}

func runUpload() {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("SUBMANAGER_CONFIG"), "Path to YAML config")
	bucketName := fs.String("bucket", "", "GCS bucket name (default from config)")
	objectName := fs.String("object", "", "GCS object name (defaults to prefix/filename)")
	filePath := fs.String("file", "", "Path to local statement")
	fs.Parse(os.Args[2:])

	cfg, log := loadConfig(*configPath)

	if *bucketName == "" {
		*bucketName = cfg.GCP.Bucket
	}
	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}
	if *objectName == "" {
		*objectName = gcs.ObjectName(cfg.GCP.UploadPrefix, filepath.Base(*filePath))
	}

	ctx := logger.WithContext(context.Background(), log)

	storage, err := gcs.NewGCSStorageService(ctx, cfg.GCP.CredentialsFile, cfg.Server.MaxUploadBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create GCS client")
	}
	defer storage.Close()

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	if err := storage.UploadFile(ctx, *bucketName, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to gs://%s/%s\n", *filePath, *bucketName, *objectName)
}

func openRepository(ctx context.Context, cfg *config.Config) (*infraBQ.BigQuerySubscriptionRepository, error) {
	return infraBQ.NewBigQuerySubscriptionRepository(ctx, cfg.GCP.ProjectID, cfg.GCP.Dataset, cfg.GCP.CredentialsFile)
}

func runRuns() {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("SUBMANAGER_CONFIG"), "Path to YAML config")
	limit := fs.Int("limit", 20, "Maximum number of runs")
	fs.Parse(os.Args[2:])

	cfg, log := loadConfig(*configPath)
	ctx := logger.WithContext(context.Background(), log)

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	runs, err := repo.ListRuns(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list runs")
	}

	renderRuns(os.Stdout, runs)
}

func runShowRun() {
	fs := flag.NewFlagSet("show-run", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("SUBMANAGER_CONFIG"), "Path to YAML config")
	runID := fs.String("run-id", "", "Run ID to show")
	format := fs.String("format", "table", "Output format: table or json")
	fs.Parse(os.Args[2:])

	cfg, log := loadConfig(*configPath)

	if *runID == "" {
		log.Fatal().Msg("Error: --run-id is required")
	}
	if err := validateFormat(*format); err != nil {
		log.Fatal().Err(err).Msg("Invalid flag")
	}

	ctx := logger.WithContext(context.Background(), log)

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	rows, err := repo.ListSubscriptionsByRun(ctx, *runID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load run")
	}
	if len(rows) == 0 {
		log.Fatal().Str("run_id", *runID).Msg("Run not found")
	}

	subs := infraBQ.RowsToSubscriptions(rows)
	if err := render(os.Stdout, *format, subs, stats.Summarize(subs)); err != nil {
		log.Fatal().Err(err).Msg("Failed to render result")
	}
}
