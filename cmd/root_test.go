package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAppRequiresInitializedServices(t *testing.T) {
	t.Parallel()

	_, err := resolveApp(context.Background())
	require.ErrorContains(t, err, "not initialized")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	names := make(map[string]bool)
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["discover"])
	assert.True(t, names["extract"])
}
