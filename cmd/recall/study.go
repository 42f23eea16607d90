package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/sm2"
	"github.com/conorfennell/recall/internal/study"
)

func newStudyCommand() *cobra.Command {
	var modeName string
	command := &cobra.Command{
		Use:   "study <deck>",
		Short: "Study a deck interactively",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			mode, err := study.ParseMode(modeName)
			if err != nil {
				return err
			}
			id, err := a.deckID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sess, err := a.planner.Start(cmd.Context(), id, mode)
			if errors.Is(err, domain.ErrEmptyBatch) {
				fmt.Fprintf(cmd.OutOrStdout(), "Nothing to %s in %q.\n", mode, args[0])
				return nil
			}
			if err != nil {
				return err
			}
			return newStudyUI(cmd.InOrStdin(), cmd.OutOrStdout()).run(cmd.Context(), sess)
		}),
	}
	command.Flags().StringVar(&modeName, "mode", "review", "study mode: learn or review")
	return command
}

// studyUI drives a session from a line-oriented terminal.
type studyUI struct {
	in    *bufio.Scanner
	out   io.Writer
	bold  *color.Color
	faint *color.Color
	good  *color.Color
	warn  *color.Color
}

func newStudyUI(in io.Reader, out io.Writer) *studyUI {
	return &studyUI{
		in:    bufio.NewScanner(in),
		out:   out,
		bold:  color.New(color.Bold),
		faint: color.New(color.Faint),
		good:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
	}
}

func (ui *studyUI) readLine() (string, bool) {
	if !ui.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(ui.in.Text()), true
}

// run shows each card's front, waits, reveals the back and asks for an
// outcome until the session completes or input ends.
func (ui *studyUI) run(ctx context.Context, sess *study.Session) error {
	defer sess.Close()

	prompt := "[r]epeat, [l]earned, [q]uit"
	if sess.Mode() == study.Review {
		prompt = "[r]epeat, [3] hard, [4] good, [5] easy, [q]uit"
	}

	for {
		card, ok := sess.Current()
		if !ok {
			break
		}

		ui.faint.Fprintf(ui.out, "\n%d left\n", sess.Remaining())
		ui.bold.Fprintln(ui.out, card.Front)
		if card.FrontImage != "" {
			ui.faint.Fprintf(ui.out, "[image: %s]\n", card.FrontImage)
		}
		fmt.Fprint(ui.out, "(enter to reveal) ")
		if _, ok := ui.readLine(); !ok {
			return nil
		}

		fmt.Fprintln(ui.out, card.Back)
		if card.BackImage != "" {
			ui.faint.Fprintf(ui.out, "[image: %s]\n", card.BackImage)
		}
		if p, ok := sess.Preview(); ok {
			ui.faint.Fprintf(ui.out, "next interval: hard %d, good %d, easy %d\n", p.Hard, p.Good, p.Easy)
		}

		for {
			fmt.Fprintf(ui.out, "%s: ", prompt)
			line, ok := ui.readLine()
			if !ok || line == "q" {
				ui.warn.Fprintf(ui.out, "\nStopped with %d done.\n", sess.Completed())
				return nil
			}
			outcome, err := parseAnswer(line)
			if err == nil {
				err = sess.Grade(ctx, card.ID, outcome)
			}
			if errors.Is(err, study.ErrInvalidOutcome) || errors.Is(err, sm2.ErrInvalidGrade) {
				ui.warn.Fprintln(ui.out, "not a valid answer here")
				continue
			}
			if errors.Is(err, domain.ErrNotFound) {
				ui.warn.Fprintln(ui.out, "card was deleted, skipping")
				break
			}
			if err != nil {
				return err
			}
			break
		}
	}

	ui.good.Fprintf(ui.out, "\nSession complete: %d cards done.\n", sess.Completed())
	return nil
}

func parseAnswer(s string) (study.Outcome, error) {
	switch strings.ToLower(s) {
	case "r":
		return study.Repeat(), nil
	case "l":
		return study.Learned(), nil
	}
	return study.ParseOutcome(s)
}
