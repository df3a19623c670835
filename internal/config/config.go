// Package config is responsible for the application's configuration. It uses
// Viper for app-level settings (paths, delays, backends) and owns the per-exam
// requirement record that phases mutate during a run.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// InitConfig initializes Viper with defaults, search paths, and environment
// variables. Called once at application startup.
func InitConfig() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/examscraper/")
	viper.AddConfigPath("$HOME/.examscraper")

	viper.SetDefault("input.requirement_file", "input/user_requirement.json")
	viper.SetDefault("output.dir", "")

	viper.SetDefault("ledger.backend", "csv")
	viper.SetDefault("ledger.postgres_dsn", "")
	viper.SetDefault("ledger.table", "exam_progress")

	viper.SetDefault("search.backends", []string{"google", "bing", "duckduckgo"})
	viper.SetDefault("search.target_domain", "examtopics.com")
	viper.SetDefault("search.min_delay", "2s")
	viper.SetDefault("search.max_delay", "8s")
	viper.SetDefault("search.timeout", "15s")

	viper.SetDefault("discovery.reconcile_sweeps", 1)

	viper.SetDefault("extraction.min_delay", "3s")
	viper.SetDefault("extraction.max_delay", "6s")

	viper.SetDefault("fetch.nav_timeout", "10s")

	const defaultUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	viper.SetDefault("headless.user_agent", defaultUA)

	viper.SetDefault("metrics.addr", "")
	viper.SetDefault("logging.development", true)

	viper.SetEnvPrefix("EXAMSCRAPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults and env cover everything.
	_ = viper.ReadInConfig()
}

// Settings carries the app-level configuration for one run.
type Settings struct {
	RequirementFile string
	OutputDir       string
	LedgerBackend   string
	LedgerDSN       string
	LedgerTable     string
	SearchBackends  []string
	TargetDomain    string
	SearchMinDelay  time.Duration
	SearchMaxDelay  time.Duration
	SearchTimeout   time.Duration
	ReconcileSweeps int
	ExtractMinDelay time.Duration
	ExtractMaxDelay time.Duration
	NavTimeout      time.Duration
	UserAgent       string
	MetricsAddr     string
	LogDevelopment  bool
}

// LoadSettings reads Settings out of the provided Viper instance.
func LoadSettings(v *viper.Viper) (Settings, error) {
	s := Settings{
		RequirementFile: v.GetString("input.requirement_file"),
		OutputDir:       v.GetString("output.dir"),
		LedgerBackend:   v.GetString("ledger.backend"),
		LedgerDSN:       v.GetString("ledger.postgres_dsn"),
		LedgerTable:     v.GetString("ledger.table"),
		SearchBackends:  v.GetStringSlice("search.backends"),
		TargetDomain:    v.GetString("search.target_domain"),
		SearchMinDelay:  v.GetDuration("search.min_delay"),
		SearchMaxDelay:  v.GetDuration("search.max_delay"),
		SearchTimeout:   v.GetDuration("search.timeout"),
		ReconcileSweeps: v.GetInt("discovery.reconcile_sweeps"),
		ExtractMinDelay: v.GetDuration("extraction.min_delay"),
		ExtractMaxDelay: v.GetDuration("extraction.max_delay"),
		NavTimeout:      v.GetDuration("fetch.nav_timeout"),
		UserAgent:       v.GetString("headless.user_agent"),
		MetricsAddr:     v.GetString("metrics.addr"),
		LogDevelopment:  v.GetBool("logging.development"),
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings no run could work with.
func (s Settings) Validate() error {
	if s.RequirementFile == "" {
		return fmt.Errorf("input.requirement_file is required")
	}
	switch s.LedgerBackend {
	case "csv", "postgres":
	default:
		return fmt.Errorf("unknown ledger backend %q", s.LedgerBackend)
	}
	if s.LedgerBackend == "postgres" && s.LedgerDSN == "" {
		return fmt.Errorf("ledger backend is 'postgres' but ledger.postgres_dsn is not set")
	}
	if len(s.SearchBackends) == 0 {
		return fmt.Errorf("at least one search backend is required")
	}
	if s.TargetDomain == "" {
		return fmt.Errorf("search.target_domain is required")
	}
	if s.SearchMinDelay < 0 || s.SearchMaxDelay < s.SearchMinDelay {
		return fmt.Errorf("invalid search delay range %v..%v", s.SearchMinDelay, s.SearchMaxDelay)
	}
	if s.ExtractMinDelay < 0 || s.ExtractMaxDelay < s.ExtractMinDelay {
		return fmt.Errorf("invalid extraction delay range %v..%v", s.ExtractMinDelay, s.ExtractMaxDelay)
	}
	if s.ReconcileSweeps < 0 {
		return fmt.Errorf("discovery.reconcile_sweeps must be >= 0")
	}
	if s.NavTimeout <= 0 {
		return fmt.Errorf("fetch.nav_timeout must be positive")
	}
	return nil
}
