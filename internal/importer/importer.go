// Package importer adds cards from markdown files to a deck.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/recall/internal/clock"
	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/gitsource"
	"github.com/conorfennell/recall/internal/knol"
	"github.com/conorfennell/recall/internal/parser"
	"github.com/conorfennell/recall/internal/stats"
	"github.com/conorfennell/recall/internal/storage"
)

// Report summarizes one import.
type Report struct {
	Files    int
	Parsed   int
	Inserted int
	Skipped  int
	Errors   []error
}

// Importer reads card files and inserts the cards a deck does not have
// yet. Imports never delete or modify existing cards.
type Importer struct {
	store    *storage.Store
	agg      *stats.Aggregator
	git      *gitsource.Syncer
	clock    clock.Clock
	reposDir string
	log      *slog.Logger
}

// New returns an Importer that checks git sources out under reposDir.
func New(store *storage.Store, agg *stats.Aggregator, git *gitsource.Syncer, clk clock.Clock, reposDir string, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Importer{
		store:    store,
		agg:      agg,
		git:      git,
		clock:    clk,
		reposDir: reposDir,
		log:      log,
	}
}

// Import dispatches to ImportGit or ImportDir depending on the shape of
// source.
func (im *Importer) Import(ctx context.Context, deckID int64, source string) (Report, error) {
	if gitsource.IsRemote(source) {
		return im.ImportGit(ctx, deckID, source)
	}
	return im.ImportDir(ctx, deckID, source)
}

// ImportGit clones or pulls repoURL and imports its card files.
func (im *Importer) ImportGit(ctx context.Context, deckID int64, repoURL string) (Report, error) {
	if _, err := im.store.DeckByID(ctx, deckID); err != nil {
		return Report{}, err
	}
	localPath, err := gitsource.LocalPath(im.reposDir, repoURL)
	if err != nil {
		return Report{}, err
	}
	if err := im.git.Sync(ctx, repoURL, localPath); err != nil {
		return Report{}, fmt.Errorf("failed to sync %s: %w", repoURL, err)
	}
	return im.ImportDir(ctx, deckID, localPath)
}

// ImportDir walks dir for .md files and imports every card whose content
// the deck does not already hold. Files that fail to parse and cards
// missing a side are reported and skipped; the rest are inserted in one
// transaction together with the counter refresh.
func (im *Importer) ImportDir(ctx context.Context, deckID int64, dir string) (Report, error) {
	var report Report
	var parsed []domain.Content

	info, err := os.Stat(dir)
	if err != nil {
		return report, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if !info.IsDir() {
		return report, fmt.Errorf("%s is not a directory", dir)
	}

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		report.Files++
		cards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		for _, c := range cards {
			if strings.TrimSpace(c.Back) == "" {
				report.Errors = append(report.Errors, fmt.Errorf("%s: card %q: %w", path, c.Front, domain.ErrInvalidContent))
				continue
			}
			parsed = append(parsed, c)
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("error walking directory %s: %w", dir, walkErr)
	}
	report.Parsed = len(parsed)

	now := im.clock.Now()
	err = im.store.InDeck(ctx, deckID, func(ctx context.Context, q *storage.Queries) error {
		seen, err := q.CardHashes(ctx, deckID)
		if err != nil {
			return err
		}
		inserted, skipped := 0, 0
		for _, c := range parsed {
			hash := knol.Hash(c)
			if _, dup := seen[hash]; dup {
				skipped++
				continue
			}
			if _, err := q.InsertCard(ctx, deckID, c, hash, now); err != nil {
				return err
			}
			seen[hash] = struct{}{}
			inserted++
		}
		if _, err := im.agg.RecomputeIn(ctx, q, deckID); err != nil {
			return err
		}
		report.Inserted, report.Skipped = inserted, skipped
		return nil
	})
	if err != nil {
		return report, err
	}

	im.log.Info("import complete",
		"deck_id", deckID,
		"path", dir,
		"files", report.Files,
		"parsed_cards", report.Parsed,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"errors", len(report.Errors),
	)
	return report, nil
}
