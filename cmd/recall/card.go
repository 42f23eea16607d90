package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conorfennell/recall/internal/domain"
)

func newCardCommand() *cobra.Command {
	cardCommand := &cobra.Command{
		Use:   "card",
		Short: "Manage the cards of a deck",
	}

	var content domain.Content
	add := &cobra.Command{
		Use:   "add <deck>",
		Short: "Add a card to a deck",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := a.deckID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			card, err := a.lib.AddCard(cmd.Context(), id, content)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added card %d to %q\n", card.ID, args[0])
			return nil
		}),
	}
	add.Flags().StringVar(&content.Front, "front", "", "front side of the card")
	add.Flags().StringVar(&content.Back, "back", "", "back side of the card")
	add.Flags().StringVar(&content.FrontImage, "front-image", "", "image file shown on the front")
	add.Flags().StringVar(&content.BackImage, "back-image", "", "image file shown on the back")
	cardCommand.AddCommand(add)

	cardCommand.AddCommand(&cobra.Command{
		Use:   "list <deck>",
		Short: "List the cards of a deck",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := a.deckID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cards, err := a.lib.Cards(cmd.Context(), id)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFRONT\tSTATUS\tINTERVAL\tNEXT REVIEW")
			for _, c := range cards {
				next := "-"
				if c.NextReview != nil {
					next = c.NextReview.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", c.ID, firstLine(c.Front), c.Status, c.Interval, next)
			}
			return tw.Flush()
		}),
	})

	cardCommand.AddCommand(&cobra.Command{
		Use:   "delete <deck> <id>...",
		Short: "Delete cards from a deck",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := a.deckID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ids := make([]int64, 0, len(args)-1)
			for _, s := range args[1:] {
				n, err := strconv.ParseInt(s, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid card id %q", s)
				}
				ids = append(ids, n)
			}
			n, err := a.lib.DeleteCards(cmd.Context(), id, ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d card(s)\n", n)
			return nil
		}),
	})

	return cardCommand
}

func firstLine(s string) string {
	line, _, cut := strings.Cut(s, "\n")
	if cut {
		return line + " …"
	}
	return line
}
