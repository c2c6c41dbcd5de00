// Package notionsync mirrors detected subscriptions into a Notion database.
package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/submanager/internal/domain"
	"github.com/dvloznov/submanager/internal/logger"
	"github.com/jomei/notionapi"
)

const (
	// BatchSize defines the number of subscriptions logged per progress batch
	BatchSize = 100

	queryPageSize = 100
)

// SyncResult counts what a sync did (or would do in dry-run mode).
type SyncResult struct {
	Created int
	Updated int
	Deleted int
	Failed  int
}

// SyncSubscriptions makes the Notion database match subs:
// 1. Queries all existing pages
// 2. Archives pages whose Subscription ID is missing or no longer detected
// 3. Updates pages for known subscriptions and creates the rest
//
// Failures on individual pages are logged and counted; only a failed query
// aborts the sync.
func SyncSubscriptions(ctx context.Context, notionClient NotionService, notionDBID string, subs []domain.Subscription, dryRun bool) (*SyncResult, error) {
	log := logger.FromContext(ctx)

	log.Info().
		Int("subscription_count", len(subs)).
		Bool("dry_run", dryRun).
		Msg("Starting subscription sync to Notion")

	pages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return nil, fmt.Errorf("SyncSubscriptions: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	valid := make(map[string]bool, len(subs))
	for _, sub := range subs {
		valid[sub.ID] = true
	}

	result := &SyncResult{}
	existing := make(map[string]string)
	for _, page := range pages {
		subID := extractSubscriptionID(page)
		if subID != "" && valid[subID] {
			if _, dup := existing[subID]; !dup {
				existing[subID] = string(page.ID)
				continue
			}
		}

		if dryRun {
			log.Info().
				Str("subscription_id", subID).
				Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would archive stale Notion page")
			result.Deleted++
			continue
		}
		if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().
				Err(err).
				Str("subscription_id", subID).
				Str("page_id", string(page.ID)).
				Msg("Failed to archive stale Notion page")
			result.Failed++
			continue
		}
		result.Deleted++
	}

	for i := 0; i < len(subs); i += BatchSize {
		end := min(i+BatchSize, len(subs))
		log.Info().
			Int("batch_start", i).
			Int("batch_end", end).
			Msg("Processing batch")

		for _, sub := range subs[i:end] {
			pageID, found := existing[sub.ID]

			if dryRun {
				if found {
					log.Info().Str("subscription_id", sub.ID).Str("page_id", pageID).Msg("[DRY RUN] Would update Notion page")
					result.Updated++
				} else {
					log.Info().Str("subscription_id", sub.ID).Msg("[DRY RUN] Would create Notion page")
					result.Created++
				}
				continue
			}

			props := SubscriptionToNotionProperties(sub)
			if found {
				if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
					log.Warn().Err(err).Str("subscription_id", sub.ID).Str("page_id", pageID).Msg("Failed to update Notion page")
					result.Failed++
					continue
				}
				result.Updated++
				continue
			}

			page, err := notionClient.CreatePage(ctx, notionDBID, props)
			if err != nil {
				log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("Failed to create Notion page")
				result.Failed++
				continue
			}
			log.Debug().Str("subscription_id", sub.ID).Str("page_id", string(page.ID)).Msg("Created Notion page")
			result.Created++
		}
	}

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("deleted", result.Deleted).
		Int("failed", result.Failed).
		Msg("Subscription sync completed")

	return result, nil
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: queryPageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
