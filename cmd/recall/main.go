package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/conorfennell/recall/internal/clock"
	"github.com/conorfennell/recall/internal/config"
	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/library"
	"github.com/conorfennell/recall/internal/logging"
	"github.com/conorfennell/recall/internal/sm2"
	"github.com/conorfennell/recall/internal/stats"
	"github.com/conorfennell/recall/internal/storage"
	"github.com/conorfennell/recall/internal/study"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "recall",
		Short:         "Spaced-repetition flashcards",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newServeCommand())
	root.AddCommand(newDeckCommand())
	root.AddCommand(newCardCommand())
	root.AddCommand(newImportCommand())
	root.AddCommand(newStudyCommand())
	return root
}

// app wires the components every command needs.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *storage.Store
	clock   clock.Clock
	agg     *stats.Aggregator
	lib     *library.Service
	planner *study.Planner
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load("", cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cmd.Context(), cfg.Database.Path, log)
	if err != nil {
		return nil, err
	}

	clk := clock.System{}
	agg := stats.NewAggregator(store, clk, log)
	sched := sm2.New(cfg.Scheduler.ReviewUnit)
	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		clock:   clk,
		agg:     agg,
		lib:     library.New(store, agg, clk, log),
		planner: study.NewPlanner(store, study.NewStoreUpdater(store, agg), sched, clk, cfg.Session.BatchSize, log),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("failed to close database", "error", err)
	}
}

// deckID resolves a deck by its exact name.
func (a *app) deckID(ctx context.Context, name string) (int64, error) {
	id, found, err := a.lib.DeckIDByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("deck %q: %w", name, domain.ErrNotFound)
	}
	return id, nil
}

// withApp adapts a command body that needs the wired application.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}
