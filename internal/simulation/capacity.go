package simulation

import (
	"strconv"
	"strings"

	apperrors "github.com/agbru/canonsim/internal/errors"
)

// Capacity is the optional number of energy levels available to each
// particle. A capacity of R levels caps particles at level R-1. The zero
// value is unbounded.
type Capacity struct {
	levels  int
	bounded bool
}

// Unbounded returns a capacity with no level cap.
func Unbounded() Capacity {
	return Capacity{}
}

// WithLevels returns a capacity of r levels (reachable levels 0..r-1).
// Values below 1 are rejected by Validate.
func WithLevels(r int) Capacity {
	return Capacity{levels: r, bounded: true}
}

// FromLevelCount converts the configuration convention, where 0 means
// unbounded, into a Capacity.
func FromLevelCount(r int) Capacity {
	if r == 0 {
		return Unbounded()
	}
	return WithLevels(r)
}

// ParseCapacity parses a level count. The empty string, "inf", "infinity"
// and "unbounded" select an unbounded capacity.
func ParseCapacity(s string) (Capacity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inf", "+inf", "infinity", "unbounded":
		return Unbounded(), nil
	}
	r, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Capacity{}, apperrors.NewValidationError("levels", "%q is not an integer or \"inf\"", s)
	}
	c := WithLevels(r)
	return c, c.Validate()
}

// Bounded reports whether the capacity caps particle levels.
func (c Capacity) Bounded() bool { return c.bounded }

// Levels returns the number of levels and whether the capacity is bounded.
func (c Capacity) Levels() (int, bool) { return c.levels, c.bounded }

// LevelCount returns the level count using the configuration convention
// (0 for unbounded).
func (c Capacity) LevelCount() int {
	if !c.bounded {
		return 0
	}
	return c.levels
}

// MaxLevel returns the highest reachable level (levels-1) and whether the
// capacity is bounded.
func (c Capacity) MaxLevel() (int, bool) {
	if !c.bounded {
		return 0, false
	}
	return c.levels - 1, true
}

// Validate checks that a bounded capacity has at least one level.
func (c Capacity) Validate() error {
	if c.bounded && c.levels < 1 {
		return apperrors.NewValidationError("levels", "must be at least 1, got %d", c.levels)
	}
	return nil
}

// String returns "inf" for an unbounded capacity or the level count.
func (c Capacity) String() string {
	if !c.bounded {
		return "inf"
	}
	return strconv.Itoa(c.levels)
}
