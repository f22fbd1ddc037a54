package model

// BoxElement is the persisted form of a matched Candidate inside a trace.
type BoxElement struct {
	ScanIndex   int
	MZ          float64
	ChargeIndex int // charge state minus one, fixed for the life of a box
	Score       float64
	Intensity   float64
	RT          float64
}

// Box is a trace of one isotope pattern across consecutive scans for a
// fixed charge state. Elements are appended in strictly increasing scan
// order; since insertion is always at the back there is no need for a
// key-ordered map, a slice with index-based lookup suffices. Once closed
// a box is never mutated again.
type Box struct {
	id          uint64
	chargeIndex int
	elements    []BoxElement
	missed      int
	open        bool
}

// NewBox seeds a singleton open trace from its first element.
func NewBox(id uint64, first BoxElement) *Box {
	return &Box{
		id:          id,
		chargeIndex: first.ChargeIndex,
		elements:    []BoxElement{first},
		open:        true,
	}
}

// ID returns the trace identifier. IDs are handed out monotonically by the
// tracker, so lower ID means older trace.
func (b *Box) ID() uint64 { return b.id }

// ChargeIndex returns the zero-based charge state of the trace.
func (b *Box) ChargeIndex() int { return b.chargeIndex }

// Extend appends an element at a strictly increasing scan index and resets
// the missed-scan counter. Extending a closed box or inserting a scan index
// that is not strictly greater than the last one is a contract violation.
func (b *Box) Extend(e BoxElement) {
	if !b.open {
		panic("model: extend on a closed box")
	}
	if e.ScanIndex <= b.LastIndex() {
		panic("model: box scan indices must strictly increase")
	}
	b.elements = append(b.elements, e)
	b.missed = 0
}

// Miss increments the consecutive missed-scan counter and returns the new
// count.
func (b *Box) Miss() int {
	b.missed++
	return b.missed
}

// Missed returns the number of consecutive scans since the last extension.
func (b *Box) Missed() int { return b.missed }

// Close marks the box closed. Closing an already closed box is a no-op.
func (b *Box) Close() { b.open = false }

// Open reports whether the box may still be extended.
func (b *Box) Open() bool { return b.open }

// Len returns the number of contributing scans (elements) in the trace.
func (b *Box) Len() int { return len(b.elements) }

// LastIndex returns the scan index of the most recent element.
func (b *Box) LastIndex() int { return b.elements[len(b.elements)-1].ScanIndex }

// LastMZ returns the m/z of the most recent element; it is the reference
// position candidates are matched against.
func (b *Box) LastMZ() float64 { return b.elements[len(b.elements)-1].MZ }

// Elements returns the trace contents in scan order. The slice is shared,
// callers must treat it as read-only.
func (b *Box) Elements() []BoxElement { return b.elements }
