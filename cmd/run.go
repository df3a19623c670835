package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// newRunCmd creates the 'run' subcommand, which executes both phases in
// order: URL discovery, then content extraction.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run URL discovery followed by content extraction",
		Long: `Runs the full scrape for the exam named in the requirement file.
Questions already recorded in the progress ledger are skipped, so rerunning
after an interruption or a partial failure only does the remaining work.`,

		RunE: runRunCommand,
	}
}

func runRunCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	p := buildPipeline(appInstance)
	if err := p.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run scrape: %w", err)
	}

	appInstance.GetLogger().Info("scrape finished")
	return nil
}
