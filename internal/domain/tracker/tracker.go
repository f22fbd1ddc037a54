// Package tracker implements the sweep-line state machine that links
// per-scan pattern candidates into persistent traces (boxes).
//
// The tracker is the single writer of all box state. It is synchronous and
// strictly sequential: Advance must be called with strictly increasing scan
// indices, and the run ends with exactly one Flush. Candidates only ever
// match boxes of their own charge state, so the open set is partitioned per
// charge index.
package tracker

import (
	"fmt"
	"math"
	"sort"

	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/pkg/metrics"
)

// Default sweep-line configuration constants.
const (
	defaultGapTolerance = 2   // consecutive missed scans an open box may absorb
	defaultMZTolerance  = 0.1 // m/z proximity window for matching, in Th
)

// flushed marks a tracker whose terminal flush has run; any scan index is
// non-increasing relative to it.
const flushed = math.MaxInt

// Tracker maintains the open and closed box collections of one run.
type Tracker struct {
	gapTolerance int
	mzTolerance  float64

	open      []map[uint64]*model.Box // one partition per charge index
	closed    []*model.Box
	nextID    uint64
	lastIndex int // last advanced scan index, -1 before the first scan
}

// New creates a tracker for charge states 1..maxCharge. The tracker is an
// ordinary, freely constructible component; all tuning arrives through
// options at construction time.
func New(maxCharge int, opts ...Option) *Tracker {
	if maxCharge < 1 {
		maxCharge = 1
	}

	t := &Tracker{
		gapTolerance: defaultGapTolerance,
		mzTolerance:  defaultMZTolerance,
		open:         make([]map[uint64]*model.Box, maxCharge),
		lastIndex:    -1,
	}
	for i := range t.open {
		t.open[i] = make(map[uint64]*model.Box)
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Advance processes the candidates of one scan. Candidates extend the
// nearest open box of their charge whose last m/z lies within the proximity
// tolerance (ties broken by lowest trace ID); unmatched candidates open new
// boxes. Every open box not extended in this scan accrues one miss and is
// closed once its miss count exceeds the gap tolerance.
//
// The scan index must be strictly greater than that of the previous call;
// anything else returns ErrOrderingViolation and leaves the state untouched,
// since temporal order is foundational to the algorithm's correctness.
func (t *Tracker) Advance(scanIndex int, candidates []model.Candidate) error {
	if scanIndex <= t.lastIndex {
		if t.lastIndex == flushed {
			return fmt.Errorf("advance scan %d after terminal flush: %w", scanIndex, ErrOrderingViolation)
		}
		return fmt.Errorf("advance scan %d after scan %d: %w", scanIndex, t.lastIndex, ErrOrderingViolation)
	}

	for i := range candidates {
		t.place(scanIndex, &candidates[i])
	}
	t.penalize(scanIndex)

	t.lastIndex = scanIndex
	metrics.UpdateOpenBoxes(t.OpenCount())
	return nil
}

// place matches a single candidate against the open boxes of its charge or
// opens a new box for it.
func (t *Tracker) place(scanIndex int, c *model.Candidate) {
	ci := c.Charge - 1
	if ci < 0 || ci >= len(t.open) {
		// Out-of-range charge cannot belong to any partition; the scorer
		// never produces one, so just drop it.
		return
	}

	var (
		best     *model.Box
		bestDist float64
	)
	for _, box := range t.open[ci] {
		if box.LastIndex() == scanIndex {
			// Already extended in this scan; keys must strictly increase.
			continue
		}
		dist := math.Abs(box.LastMZ() - c.MZ)
		if dist > t.mzTolerance {
			continue
		}
		if best == nil || dist < bestDist || (dist == bestDist && box.ID() < best.ID()) {
			best, bestDist = box, dist
		}
	}

	elem := model.BoxElement{
		ScanIndex:   scanIndex,
		MZ:          c.MZ,
		ChargeIndex: ci,
		Score:       c.Score,
		Intensity:   c.Intensity,
		RT:          c.RT,
	}

	if best != nil {
		best.Extend(elem)
		return
	}

	id := t.nextID
	t.nextID++
	t.open[ci][id] = model.NewBox(id, elem)
	metrics.RecordBoxOpened()
}

// penalize increments the miss counter of every open box that was not
// extended at scanIndex and closes the ones whose counter exceeds the gap
// tolerance.
func (t *Tracker) penalize(scanIndex int) {
	for ci := range t.open {
		for id, box := range t.open[ci] {
			if box.LastIndex() == scanIndex {
				continue
			}
			if box.Miss() > t.gapTolerance {
				box.Close()
				delete(t.open[ci], id)
				t.closed = append(t.closed, box)
				metrics.RecordBoxClosed()
			}
		}
	}
}

// Flush force-closes every remaining open box regardless of its miss
// counter, making the whole run visible to the synthesizer. It is invoked
// exactly once after the last real scan; further calls operate on an empty
// open set and are no-ops. After a flush the tracker accepts no more scans.
func (t *Tracker) Flush() {
	for ci := range t.open {
		for id, box := range t.open[ci] {
			box.Close()
			delete(t.open[ci], id)
			t.closed = append(t.closed, box)
			metrics.RecordBoxClosed()
		}
	}
	t.lastIndex = flushed
	metrics.UpdateOpenBoxes(0)
}

// Closed returns the closed boxes in trace-ID order. The boxes are owned by
// the tracker; callers must not mutate them.
func (t *Tracker) Closed() []*model.Box {
	out := make([]*model.Box, len(t.closed))
	copy(out, t.closed)
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// OpenCount returns the number of currently open boxes across all charges.
func (t *Tracker) OpenCount() int {
	n := 0
	for ci := range t.open {
		n += len(t.open[ci])
	}
	return n
}
