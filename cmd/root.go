// Package cmd defines and implements the CLI commands for the examscraper executable.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/app"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/config"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/fetcher"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/ledger"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/logging"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/pipeline"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/records"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/search"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	GetLogger() *zap.Logger
	GetSettings() config.Settings
	GetRequirement() *config.RequirementFile
	GetLedger() ledger.Store
	GetRecords() *records.Store
	GetResolver() *search.Resolver
	PageFetcher() fetcher.PageFetcher
	ErrLogPath() string
}

// newApp is the application factory. It is a variable so tests can replace
// it with a mock factory.
var newApp func(ctx context.Context) (App, error) = func(ctx context.Context) (App, error) {
	return app.NewApp(ctx)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "examscraper",
		Short: "A resumable scraper for certification exam question discussions.",
		Long: `examscraper collects certification exam questions and answers from
discussion pages in two resumable phases: it first discovers one discussion
URL per question through external search engines, then extracts each page
into a JSON question bank. Progress is checkpointed after every item, so an
interrupted run continues where it stopped.`,

		// This hook runs AFTER config is loaded but BEFORE the subcommand's
		// RunE, so it is the place to build and inject the application.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.InitLogger(viper.GetBool("logging.development"))

			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// This hook ensures services are shut down gracefully.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cobra.OnInitialize(config.InitConfig)

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newDiscoverCmd())
	cmd.AddCommand(newExtractCmd())

	return cmd
}

// Execute is the main entry point.
func Execute(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.L.Fatal("command execution failed", zap.Error(err))
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return appInstance, nil
}

// buildPipeline wires the phase runner from the app's services.
func buildPipeline(a App) *pipeline.Pipeline {
	settings := a.GetSettings()
	return pipeline.New(pipeline.Config{
		Logger:          a.GetLogger(),
		Requirement:     a.GetRequirement(),
		Ledger:          a.GetLedger(),
		Records:         a.GetRecords(),
		Resolver:        a.GetResolver(),
		Fetcher:         a.PageFetcher(),
		ErrLogPath:      a.ErrLogPath(),
		ReconcileSweeps: settings.ReconcileSweeps,
		ExtractMinDelay: settings.ExtractMinDelay,
		ExtractMaxDelay: settings.ExtractMaxDelay,
	})
}
