package backup

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts wall-clock access so the job's timestamp-directory
// disambiguation and statistics timing are deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant, advancing only when told to.
// Useful for exercising resolveInstanceDir's disambiguation loop without
// racing the real clock.
type FixedClock struct {
	At time.Time
}

func (c *FixedClock) Now() time.Time { return c.At }
func (c *FixedClock) Advance(d time.Duration) { c.At = c.At.Add(d) }

// RunIDGenerator produces the identifiers attached to a job run and to its
// action record, independent of wall-clock time so tests can assert on
// them.
type RunIDGenerator interface {
	NewRunID() string
}

// UUIDRunIDGenerator generates version-4 UUIDs via google/uuid.
type UUIDRunIDGenerator struct{}

func (UUIDRunIDGenerator) NewRunID() string { return uuid.NewString() }
