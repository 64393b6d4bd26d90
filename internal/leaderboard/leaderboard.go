// internal/leaderboard/leaderboard.go
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/uptrace/bun"

	"github.com/richard-senior/rocketrun/internal/config"
)

const (
	// DefaultLimit is how many entries the leaderboard shows
	DefaultLimit  = 10
	MaxNameLength = 24
	DefaultName   = "Player"
)

var (
	ErrInvalidScore  = errors.New("score must be an integer")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Entry is one saved score. Entries are never changed once written; ID
// records insertion order and breaks ties between equal scores.
type Entry struct {
	bun.BaseModel `bun:"table:scores,alias:s"`

	ID    int64  `bun:"id,pk,autoincrement" json:"-"`
	Name  string `bun:"name,notnull" json:"name"`
	Score int    `bun:"score,notnull" json:"score"`
}

// Store persists entries and serves them back ordered by score
type Store interface {
	// Init creates the backing table or collection if missing. It is safe to
	// call more than once.
	Init(ctx context.Context) error
	Save(ctx context.Context, name string, score int) error
	// Top returns at most limit entries, highest score first, earlier
	// entries first among equal scores.
	Top(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Open connects to the backend selected in cfg. The caller still has to call
// Init before using the store.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err := OpenSQL(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMongo:
		s, err := OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StoreDriver)
}

// NormalizeName cuts name down to MaxNameLength characters and substitutes
// DefaultName for an empty one.
func NormalizeName(name string) string {
	if name == "" {
		return DefaultName
	}
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	runes := []rune(name)
	return string(runes[:MaxNameLength])
}

// ParseScore converts a decoded JSON value into an integer score. Numbers
// are truncated toward zero, base 10 strings are accepted and true/false
// count as 1/0, matching highscore.Coerce. Anything else is ErrInvalidScore.
func ParseScore(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return fromFloat(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return fromInt64(i)
		}
		if f, err := n.Float64(); err == nil {
			return fromFloat(f)
		}
	case int:
		return n, nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return fromInt64(i)
		}
	}
	return 0, fmt.Errorf("%w: got %v", ErrInvalidScore, v)
}

func fromFloat(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, fmt.Errorf("%w: %v out of range", ErrInvalidScore, f)
	}
	return fromInt64(int64(f))
}

func fromInt64(i int64) (int, error) {
	if int64(int(i)) != i {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidScore, i)
	}
	return int(i), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
