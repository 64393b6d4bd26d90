// internal/leaderboard/sqlite.go
package leaderboard

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/richard-senior/rocketrun/internal/logger"
)

// SQLStore keeps entries in a single SQLite file
type SQLStore struct {
	db *bun.DB
}

// OpenSQL opens (creating if needed) the SQLite database at path
func OpenSQL(path string) (*SQLStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite allows one writer at a time
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	logger.Info("Using sqlite leaderboard at %s", path)
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Entry)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create scores table: %w", err)
	}
	return nil
}

func (s *SQLStore) Save(ctx context.Context, name string, score int) error {
	entry := &Entry{Name: NormalizeName(name), Score: score}
	if _, err := s.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	logger.Debug("Saved score %d for %s", entry.Score, entry.Name)
	return nil
}

func (s *SQLStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	entries := make([]Entry, 0, clampLimit(limit))
	err := s.db.NewSelect().
		Model(&entries).
		OrderExpr("score DESC, id ASC").
		Limit(clampLimit(limit)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select top scores: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
