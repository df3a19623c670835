package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// newExtractCmd creates the 'extract' subcommand, which runs only the
// content extraction phase.
func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extract question records from the discovered discussion pages",
		Long: `Fetches every ledger row still pending extraction, parses the page into
a question record, and appends it to the JSON question bank. Pages that fail
to load or parse are noted in the side error log and left pending for the
next run.`,

		RunE: runExtractCommand,
	}
}

func runExtractCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	p := buildPipeline(appInstance)
	if err := p.RunExtraction(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run extraction: %w", err)
	}

	appInstance.GetLogger().Info("extraction command finished")
	return nil
}
