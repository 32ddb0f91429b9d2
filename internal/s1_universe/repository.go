package s1_universe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const watchlistSchema = `
	CREATE TABLE IF NOT EXISTS watchlist (
		symbol     TEXT PRIMARY KEY,
		active     BOOLEAN NOT NULL DEFAULT TRUE,
		note       TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// WatchlistRepository stores user-maintained symbols in PostgreSQL.
// It doubles as a universe source.
type WatchlistRepository struct {
	db *pgxpool.Pool
}

// NewWatchlistRepository creates a new repository
func NewWatchlistRepository(db *pgxpool.Pool) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Name implements contracts.UniverseSource
func (r *WatchlistRepository) Name() string { return "watchlist" }

// EnsureSchema creates the watchlist table if missing
func (r *WatchlistRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, watchlistSchema); err != nil {
		return fmt.Errorf("create watchlist table: %w", err)
	}
	return nil
}

// Tickers implements contracts.UniverseSource: active symbols only
func (r *WatchlistRepository) Tickers(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT symbol FROM watchlist WHERE active ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}

	symbols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan watchlist: %w", err)
	}
	return symbols, nil
}

// Add upserts symbols as active. Symbols are normalized first.
func (r *WatchlistRepository) Add(ctx context.Context, symbols []string, note string) (int, error) {
	symbols = Normalize(symbols)
	if len(symbols) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, s := range symbols {
		batch.Queue(`
			INSERT INTO watchlist (symbol, active, note)
			VALUES ($1, TRUE, $2)
			ON CONFLICT (symbol) DO UPDATE SET active = TRUE, note = EXCLUDED.note
		`, s, note)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for range symbols {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("upsert watchlist: %w", err)
		}
	}
	return len(symbols), nil
}

// Deactivate removes symbols from the scan universe without deleting history
func (r *WatchlistRepository) Deactivate(ctx context.Context, symbols []string) (int64, error) {
	symbols = Normalize(symbols)
	if len(symbols) == 0 {
		return 0, nil
	}

	tag, err := r.db.Exec(ctx, `UPDATE watchlist SET active = FALSE WHERE symbol = ANY($1)`, symbols)
	if err != nil {
		return 0, fmt.Errorf("deactivate watchlist: %w", err)
	}
	return tag.RowsAffected(), nil
}
