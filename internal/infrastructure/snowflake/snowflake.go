package snowflake

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// IDs are 64-bit integers laid out as:
//
//	42 bits  milliseconds since epoch
//	10 bits  worker id
//	12 bits  per-millisecond sequence
//
// The layout is process-wide and must never change once ids are in the
// wild: every writer in the fleet has to agree on it for ids to stay
// unique and time-sortable.
const (
	// epoch is 2022-01-01T00:00:00Z in Unix milliseconds.
	epoch int64 = 1640995200000

	workerBits   = 10
	sequenceBits = 12

	MaxWorkerID = -1 ^ (-1 << workerBits) // 1023
	maxSequence = -1 ^ (-1 << sequenceBits)

	workerShift    = sequenceBits
	timestampShift = workerBits + sequenceBits

	// clockTolerance bounds how far the wall clock may move backward
	// before Generate gives up instead of stalling.
	clockTolerance = 10 * time.Millisecond
)

var (
	ErrWorkerIDRange  = fmt.Errorf("worker id must be in [0, %d]", MaxWorkerID)
	ErrClockMovedBack = errors.New("system clock moved backward beyond tolerance")
)

// Generator produces unique, roughly time-sortable 64-bit ids for a
// fixed worker id. One instance is created at process start and shared
// by every request; all state is guarded by a single mutex.
type Generator struct {
	mu       sync.Mutex
	workerID int64
	lastTS   int64
	sequence int64

	now func() int64 // Unix milliseconds; swappable in tests
}

func New(workerID int64) (*Generator, error) {
	if workerID < 0 || workerID > MaxWorkerID {
		return nil, ErrWorkerIDRange
	}

	return &Generator{
		workerID: workerID,
		lastTS:   -1,
		now:      func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// Generate returns the next id. Within a single millisecond the
// sequence disambiguates ids; on sequence exhaustion it blocks until
// the next tick rather than ever emitting a duplicate. A backward
// clock step within tolerance is waited out; anything larger fails
// fast with ErrClockMovedBack.
func (g *Generator) Generate() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now()

	if ts < g.lastTS {
		drift := time.Duration(g.lastTS-ts) * time.Millisecond
		if drift > clockTolerance {
			return 0, ErrClockMovedBack
		}
		for ts < g.lastTS {
			time.Sleep(time.Millisecond)
			ts = g.now()
		}
	}

	if ts == g.lastTS {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// Sequence exhausted for this millisecond.
			for ts <= g.lastTS {
				ts = g.now()
			}
		}
	} else {
		g.sequence = 0
	}

	g.lastTS = ts

	id := (ts-epoch)<<timestampShift |
		g.workerID<<workerShift |
		g.sequence

	return id, nil
}

// Timestamp reconstructs the approximate creation time encoded in id.
func Timestamp(id int64) time.Time {
	ms := (id >> timestampShift) + epoch
	return time.UnixMilli(ms).UTC()
}

// WorkerID extracts the worker id encoded in id.
func WorkerID(id int64) int64 {
	return (id >> workerShift) & MaxWorkerID
}

// Sequence extracts the per-millisecond sequence encoded in id.
func Sequence(id int64) int64 {
	return id & maxSequence
}
