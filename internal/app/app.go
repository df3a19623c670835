// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/config"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/fetcher"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/fetcher/headless"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/ledger"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/logging"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/metrics"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/records"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/search"
)

// Ledger file names inside the per-exam output directory.
const (
	ledgerFileName  = "discussion_url.csv"
	recordsFileName = "questions_answer.json"
	errLogFileName  = "scraping_errors.log"
)

// App holds all the shared, long-lived services for the application.
// It is initialized once at startup and passed to the components that need it.
type App struct {
	logger      *zap.Logger
	settings    config.Settings
	requirement *config.RequirementFile
	ledger      ledger.Store
	records     *records.Store
	session     *headless.Session
	resolver    *search.Resolver
	outputDir   string
}

// GetLogger returns the shared zap logger instance, tagged with the run ID.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetSettings returns the loaded application settings.
func (a *App) GetSettings() config.Settings {
	return a.settings
}

// GetRequirement exposes the per-exam requirement record.
func (a *App) GetRequirement() *config.RequirementFile {
	return a.requirement
}

// GetLedger returns the configured progress ledger store.
func (a *App) GetLedger() ledger.Store {
	return a.ledger
}

// GetRecords returns the extracted-question record store.
func (a *App) GetRecords() *records.Store {
	return a.records
}

// GetSession returns the shared headless browser session.
func (a *App) GetSession() *headless.Session {
	return a.session
}

// PageFetcher exposes the browser session as the page fetching interface.
func (a *App) PageFetcher() fetcher.PageFetcher {
	return a.session
}

// GetResolver returns the multi-backend search resolver.
func (a *App) GetResolver() *search.Resolver {
	return a.resolver
}

// OutputDir returns the per-exam output directory.
func (a *App) OutputDir() string {
	return a.outputDir
}

// ErrLogPath returns the side log file extraction failures append to.
func (a *App) ErrLogPath() string {
	return filepath.Join(a.outputDir, errLogFileName)
}

// NewApp creates and initializes a new App struct based on the application's configuration.
// It is the central point for service initialization and is designed to fail
// fast if any critical service cannot be initialized.
func NewApp(ctx context.Context) (*App, error) {
	settings, err := config.LoadSettings(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	l := logging.L.With(zap.String("run_id", uuid.NewString()))
	l.Info("initializing application services")

	requirement, err := config.LoadRequirement(settings.RequirementFile)
	if err != nil {
		return nil, fmt.Errorf("load requirement: %w", err)
	}

	outputDir := filepath.Join(settings.OutputDir,
		fmt.Sprintf("%s_output_questions", requirement.Exam))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var store ledger.Store
	switch settings.LedgerBackend {
	case "csv":
		path := filepath.Join(outputDir, ledgerFileName)
		l.Info("using CSV ledger", zap.String("path", path))
		store, err = ledger.OpenCSV(path)
	case "postgres":
		l.Info("using PostgreSQL ledger", zap.String("table", settings.LedgerTable))
		store, err = ledger.NewPostgresStore(ctx, ledger.PostgresConfig{
			DSN:   settings.LedgerDSN,
			Table: settings.LedgerTable,
		})
	default:
		return nil, fmt.Errorf("unknown ledger backend: %s", settings.LedgerBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize ledger: %w", err)
	}

	recordStore, err := records.Open(filepath.Join(outputDir, recordsFileName))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("initialize record store: %w", err)
	}

	session, err := headless.NewSession(headless.Config{
		UserAgent:  settings.UserAgent,
		NavTimeout: settings.NavTimeout,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("start browser session: %w", err)
	}

	backends, err := buildBackends(settings, session)
	if err != nil {
		session.Close()
		store.Close()
		return nil, err
	}
	resolver := search.NewResolver(backends, settings.TargetDomain,
		search.WithDelayRange(settings.SearchMinDelay, settings.SearchMaxDelay),
		search.WithLogger(l),
	)

	metrics.Init()
	if settings.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			l.Info("starting metrics server", zap.String("addr", settings.MetricsAddr))
			if err := http.ListenAndServe(settings.MetricsAddr, mux); err != nil {
				l.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	l.Info("application services initialized",
		zap.String("exam", requirement.Exam),
		zap.String("output_dir", outputDir),
	)

	return &App{
		logger:      l,
		settings:    settings,
		requirement: requirement,
		ledger:      store,
		records:     recordStore,
		session:     session,
		resolver:    resolver,
		outputDir:   outputDir,
	}, nil
}

// buildBackends maps configured backend names to implementations, keeping the
// configured priority order.
func buildBackends(settings config.Settings, session *headless.Session) ([]search.Backend, error) {
	backends := make([]search.Backend, 0, len(settings.SearchBackends))
	for _, name := range settings.SearchBackends {
		switch name {
		case "google":
			backends = append(backends, search.NewGoogle(session))
		case "bing":
			backends = append(backends, search.NewBing(session))
		case "duckduckgo":
			backends = append(backends, search.NewDuckDuckGo(search.DuckDuckGoConfig{
				UserAgent:      settings.UserAgent,
				RequestTimeout: settings.SearchTimeout,
			}))
		default:
			return nil, fmt.Errorf("unknown search backend: %s", name)
		}
	}
	return backends, nil
}

// Close gracefully shuts down all services in the App container.
// It is called by a Cobra hook after the command finishes execution.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	a.session.Close()
	if err := a.ledger.Close(); err != nil {
		a.logger.Warn("error closing ledger", zap.Error(err))
	}

	// Flushing the logger buffer is best-effort; stderr syncs fail on some
	// platforms and there is nothing useful to do about it.
	_ = a.logger.Sync()
}
