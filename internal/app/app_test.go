package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/config"
)

func TestBuildBackendsKeepsConfiguredOrder(t *testing.T) {
	t.Parallel()

	settings := config.Settings{
		SearchBackends: []string{"duckduckgo", "google", "bing"},
		UserAgent:      "test-agent",
	}
	backends, err := buildBackends(settings, nil)
	require.NoError(t, err)
	require.Len(t, backends, 3)

	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name()
	}
	assert.Equal(t, []string{"duckduckgo", "google", "bing"}, names)
}

func TestBuildBackendsRejectsUnknownName(t *testing.T) {
	t.Parallel()

	settings := config.Settings{SearchBackends: []string{"altavista"}}
	_, err := buildBackends(settings, nil)
	require.ErrorContains(t, err, "unknown search backend")
}
