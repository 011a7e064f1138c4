package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newCrawlCmd creates the 'crawl' subcommand, which runs discovery and the
// worker pool until every discovered page has been processed.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the site and store every kalaam found",
		Long: `Walks the category index and each paginated listing, then fetches,
extracts and stores every detail page. SIGINT/SIGTERM stops discovery and
lets in-flight pages finish.`,
		Args: cobra.NoArgs,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := appInstance.Crawl(ctx)
	logger.Info("crawl finished",
		zap.Int("categories", summary.Discovery.Categories),
		zap.Int("listings", summary.Discovery.Listings),
		zap.Int("targets", summary.Discovery.Targets),
		zap.Int("duplicates", summary.Discovery.Duplicates),
		zap.Int("discovery_errors", summary.Discovery.Errors),
		zap.Int64("stored", summary.Pages.Stored),
		zap.Int64("dropped", summary.Pages.Dropped),
		zap.Int64("no_lyrics", summary.Pages.NoLyrics),
		zap.Int64("fetch_failed", summary.Pages.FetchFailed),
		zap.Int64("store_failed", summary.Pages.StoreFailed),
		zap.Duration("elapsed", summary.Elapsed),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawl: %w", err)
	}
	return nil
}
