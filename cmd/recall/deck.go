package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDeckCommand() *cobra.Command {
	deckCommand := &cobra.Command{
		Use:   "deck",
		Short: "Manage decks",
	}

	deckCommand.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List decks with their card counts",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			decks, err := a.lib.Decks(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTOTAL\tNEW\tDUE")
			for _, d := range decks {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", d.Name, d.Total, d.New, d.Due)
			}
			return tw.Flush()
		}),
	})

	deckCommand.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty deck",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			deck, err := a.lib.CreateDeck(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created deck %q (id %d)\n", deck.Name, deck.ID)
			return nil
		}),
	})

	deckCommand.AddCommand(&cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: "Rename a deck",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := a.deckID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			deck, err := a.lib.RenameDeck(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed deck to %q\n", deck.Name)
			return nil
		}),
	})

	deckCommand.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a deck and all of its cards",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := a.deckID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.lib.DeleteDeck(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted deck %q\n", args[0])
			return nil
		}),
	})

	return deckCommand
}
