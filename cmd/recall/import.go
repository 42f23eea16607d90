package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/recall/internal/gitsource"
	"github.com/conorfennell/recall/internal/importer"
)

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <deck> <dir|git-url>",
		Short: "Add cards from markdown files in a directory or git repository",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := a.deckID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			syncer := gitsource.NewSyncer(cmd.ErrOrStderr(), a.log)
			im := importer.New(a.store, a.agg, syncer, a.clock, a.cfg.Import.ReposDir, a.log)

			report, err := im.Import(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d cards in %d files: %d added, %d already present, %d errors.\n",
				report.Parsed, report.Files, report.Inserted, report.Skipped, len(report.Errors))
			if len(report.Errors) > 0 {
				fmt.Fprintln(out, "\nErrors:")
				for _, e := range report.Errors {
					fmt.Fprintf(out, "- %s\n", e)
				}
			}
			return nil
		}),
	}
}
