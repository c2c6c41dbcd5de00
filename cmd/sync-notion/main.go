package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/submanager/internal/config"
	"github.com/dvloznov/submanager/internal/domain"
	"github.com/dvloznov/submanager/internal/gcs"
	infraBQ "github.com/dvloznov/submanager/internal/infra/bigquery"
	"github.com/dvloznov/submanager/internal/logger"
	"github.com/dvloznov/submanager/internal/notionsync"
	"github.com/dvloznov/submanager/internal/pipeline"
)

func main() {
	// Parse CLI flags
	configPath := flag.String("config", os.Getenv("SUBMANAGER_CONFIG"), "Path to YAML config")
	file := flag.String("file", "", "Statement path or gs:// URI to detect from")
	runID := flag.String("run-id", "", "BigQuery run ID to sync instead of a statement")
	lookback := flag.Int("lookback", -1, "Months of history to analyse, 0 for all (default from config)")
	notionToken := flag.String("notion-token", "", "Notion API token (default from config or NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (default from config or NOTION_DATABASE_ID)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New().Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.NewWithLevel(cfg.Log.Level, cfg.Log.Format)

	if *notionToken == "" {
		*notionToken = cfg.Notion.Token
	}
	if *notionDBID == "" {
		*notionDBID = cfg.Notion.DatabaseID
	}

	// Validate required flags
	if (*file == "") == (*runID == "") {
		log.Fatal().Msg("Error: exactly one of --file or --run-id is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}
	if *lookback < 0 {
		*lookback = cfg.Detection.LookbackMonths
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var subs []domain.Subscription
	if *runID != "" {
		subs, err = loadRun(ctx, cfg, *runID)
	} else {
		subs, err = detect(ctx, cfg, *file, *lookback)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load subscriptions")
	}

	log.Info().
		Int("subscriptions", len(subs)).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	notionClient := notionsync.NewNotionClient(*notionToken)

	res, err := notionsync.SyncSubscriptions(ctx, notionClient, *notionDBID, subs, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d failed.\n",
		res.Created, res.Updated, res.Deleted, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}

func detect(ctx context.Context, cfg *config.Config, file string, lookback int) ([]domain.Subscription, error) {
	res, err := pipeline.Setup(ctx, cfg, pipeline.SetupOptions{Storage: gcs.IsGCSURI(file)})
	if err != nil {
		return nil, err
	}
	defer res.Close()

	rs, err := pipeline.Run(ctx, res.Pipeline, &pipeline.PipelineState{
		Source:         file,
		LookbackMonths: lookback,
	})
	if err != nil {
		return nil, err
	}
	return rs.Subscriptions, nil
}

func loadRun(ctx context.Context, cfg *config.Config, runID string) ([]domain.Subscription, error) {
	log := logger.FromContext(ctx)

	repo, err := infraBQ.NewBigQuerySubscriptionRepository(ctx, cfg.GCP.ProjectID, cfg.GCP.Dataset, cfg.GCP.CredentialsFile)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	rows, err := repo.ListSubscriptionsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("run %s has no subscriptions", runID)
	}
	log.Debug().Str("run_id", runID).Int("rows", len(rows)).Msg("Loaded run from BigQuery")
	return infraBQ.RowsToSubscriptions(rows), nil
}
