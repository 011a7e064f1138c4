package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/kalaam-crawler/internal/api"
	"github.com/JakeFAU/kalaam-crawler/internal/app"
	"github.com/JakeFAU/kalaam-crawler/internal/config"
	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
	"github.com/JakeFAU/kalaam-crawler/internal/extract"
	"github.com/JakeFAU/kalaam-crawler/internal/logging"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use.
// This allows tests to inject a fake app.
type App interface {
	Close()
	Config() config.Config
	Logger() *zap.Logger
	Server() *api.Server
	Crawl(ctx context.Context) (app.Summary, error)
	Extract(ctx context.Context, rawURL, category string) (extract.Assembly, error)
	Search(ctx context.Context, text string, limit int) ([]crawler.Record, error)
}

// newApp is the application factory. It is a variable so tests can replace
// it with a fake.
var newApp = defaultNewApp

func defaultNewApp(ctx context.Context, cfgPath string) (App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "kalaam-crawler",
		Short: "Crawls nohayonline.com and serves the kalaam it finds.",
		Long: `kalaam-crawler discovers nohay and marsiya detail pages, extracts title,
reciter, poet, lyrics and media link from each, and stores them with a
phonetic title key for fuzzy search.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationNoApp] == "true" {
				return nil
			}
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML)")

	cmd.AddCommand(
		newCrawlCmd(),
		newServeCmd(),
		newExtractCmd(),
		newNormalizeCmd(),
		newSearchCmd(),
	)
	return cmd
}

// annotationNoApp marks commands that run without config or stores.
const annotationNoApp = "no-app"

// Execute is the main entry point.
func Execute() {
	ctx := context.Background()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second
