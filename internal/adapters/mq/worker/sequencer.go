package worker

import "context"

// Sequencer restores scan order on the scored-scan stream. Workers finish
// scans in arbitrary order; the tracker requires strictly increasing scan
// indices, so results are buffered until their predecessors have been
// emitted.
type Sequencer struct {
	next int
}

// NewSequencer creates a sequencer expecting start as the first scan index.
func NewSequencer(start int) *Sequencer {
	return &Sequencer{next: start}
}

// Run consumes the unordered stream and emits it in scan-index order. The
// output channel closes when the input is closed and the buffer drained,
// or when ctx is canceled. Scan indices are assumed dense (every index
// between start and the last scan appears exactly once), which the scan
// source guarantees.
func (s *Sequencer) Run(ctx context.Context, in <-chan ScoredScan) <-chan ScoredScan {
	out := make(chan ScoredScan)
	go func() {
		defer close(out)
		pending := make(map[int]ScoredScan)
		for res := range in {
			pending[res.Scan.Index] = res
			for {
				next, ok := pending[s.next]
				if !ok {
					break
				}
				delete(pending, s.next)
				select {
				case out <- next:
					s.next++
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
