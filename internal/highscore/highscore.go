// internal/highscore/highscore.go
package highscore

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/richard-senior/rocketrun/internal/logger"
)

// Store holds the single process wide high score. It starts at zero and only
// ever goes up.
type Store struct {
	value   atomic.Int64
	onRaise []func(int)
}

// New creates a Store at zero. Each onRaise callback is called, outside any
// lock, with the new value whenever Report raises the high score.
func New(onRaise ...func(int)) *Store {
	return &Store{onRaise: onRaise}
}

// Get returns the current high score
func (s *Store) Get() int {
	return int(s.value.Load())
}

// Report offers a candidate score and returns the high score afterwards,
// which is the candidate if it beat the previous value.
func (s *Store) Report(candidate int) int {
	c := int64(candidate)
	for {
		current := s.value.Load()
		if c <= current {
			return int(current)
		}
		if s.value.CompareAndSwap(current, c) {
			logger.Debug("New high score %d (was %d)", c, current)
			for _, fn := range s.onRaise {
				fn(candidate)
			}
			return candidate
		}
	}
}

// Coerce turns a decoded JSON value into a score. Anything that isn't a
// number, a numeric string or a bool becomes 0, which can never raise the
// high score.
func Coerce(v any) int {
	switch n := v.(type) {
	case float64:
		return fromFloat(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return clamp(i)
		}
		if f, err := n.Float64(); err == nil {
			return fromFloat(f)
		}
	case int:
		return n
	case int64:
		return clamp(n)
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return clamp(i)
		}
	case bool:
		if n {
			return 1
		}
	}
	return 0
}

func fromFloat(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return clamp(int64(f))
}

// clamp keeps values inside int on 32 bit platforms
func clamp(i int64) int {
	if int64(int(i)) != i {
		return 0
	}
	return int(i)
}
