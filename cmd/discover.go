package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// newDiscoverCmd creates the 'discover' subcommand, which runs only the URL
// discovery phase.
func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Resolve a discussion URL for every exam question",
		Long: `Searches the configured engines for each question's discussion page and
appends every hit to the progress ledger. Resumes past the last recorded
question, then sweeps for gaps with a looser query.`,

		RunE: runDiscoverCommand,
	}
}

func runDiscoverCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	p := buildPipeline(appInstance)
	if err := p.RunDiscovery(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run discovery: %w", err)
	}

	appInstance.GetLogger().Info("discovery command finished")
	return nil
}
