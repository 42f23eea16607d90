package storage

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// Store is the durable home of decks and cards. Its embedded Queries run
// outside any transaction; use Tx or InDeck for multi-statement units.
type Store struct {
	*Queries

	db  *sqlx.DB
	log *slog.Logger

	mu    sync.Mutex
	decks map[int64]*sync.Mutex
}

// Open connects to the SQLite database at path and migrates it to the
// latest schema. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one connection keeps transactions
	// from failing with SQLITE_BUSY and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Debug("database opened", "path", path)
	return &Store{
		Queries: &Queries{db: db, log: log},
		db:      db,
		log:     log,
		decks:   make(map[int64]*sync.Mutex),
	}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db.DB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx runs fn inside a single transaction. Nothing fn writes is kept unless
// it returns nil.
func (s *Store) Tx(ctx context.Context, fn func(ctx context.Context, q *Queries) error) error {
	return withTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, &Queries{db: tx, log: s.log})
	})
}

// InDeck is Tx serialized with every other InDeck call for the same deck.
// Card scheduling updates and counter recomputation both go through it.
func (s *Store) InDeck(ctx context.Context, deckID int64, fn func(ctx context.Context, q *Queries) error) error {
	mu := s.deckLock(deckID)
	mu.Lock()
	defer mu.Unlock()
	return s.Tx(ctx, fn)
}

func (s *Store) deckLock(deckID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.decks[deckID]
	if !ok {
		mu = &sync.Mutex{}
		s.decks[deckID] = mu
	}
	return mu
}

// Queries holds the Card Store and Deck Store operations, bound to either
// the database or an open transaction.
type Queries struct {
	db  DBTX
	log *slog.Logger
}

// NewQueries binds Queries to db.
func NewQueries(db DBTX, log *slog.Logger) *Queries {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Queries{db: db, log: log}
}
