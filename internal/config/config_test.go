package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseViper() *viper.Viper {
	v := viper.New()
	v.Set("input.requirement_file", "input/user_requirement.json")
	v.Set("ledger.backend", "csv")
	v.Set("search.backends", []string{"google", "bing"})
	v.Set("search.target_domain", "examtopics.com")
	v.Set("search.min_delay", "2s")
	v.Set("search.max_delay", "8s")
	v.Set("extraction.min_delay", "3s")
	v.Set("extraction.max_delay", "6s")
	v.Set("discovery.reconcile_sweeps", 1)
	v.Set("fetch.nav_timeout", "10s")
	return v
}

func TestLoadSettings(t *testing.T) {
	t.Parallel()

	s, err := LoadSettings(baseViper())
	require.NoError(t, err)
	assert.Equal(t, "csv", s.LedgerBackend)
	assert.Equal(t, []string{"google", "bing"}, s.SearchBackends)
	assert.Equal(t, 2*time.Second, s.SearchMinDelay)
	assert.Equal(t, 8*time.Second, s.SearchMaxDelay)
	assert.Equal(t, 10*time.Second, s.NavTimeout)
	assert.Equal(t, 1, s.ReconcileSweeps)
}

func TestLoadSettingsValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tweak func(*viper.Viper)
	}{
		{name: "unknown ledger backend", tweak: func(v *viper.Viper) { v.Set("ledger.backend", "redis") }},
		{name: "postgres without dsn", tweak: func(v *viper.Viper) { v.Set("ledger.backend", "postgres") }},
		{name: "no backends", tweak: func(v *viper.Viper) { v.Set("search.backends", []string{}) }},
		{name: "inverted delay range", tweak: func(v *viper.Viper) { v.Set("search.max_delay", "1s") }},
		{name: "zero nav timeout", tweak: func(v *viper.Viper) { v.Set("fetch.nav_timeout", "0s") }},
		{name: "negative sweeps", tweak: func(v *viper.Viper) { v.Set("discovery.reconcile_sweeps", -1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := baseViper()
			tt.tweak(v)
			_, err := LoadSettings(v)
			require.Error(t, err)
		})
	}
}
