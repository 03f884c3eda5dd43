// Package replay implements a sliding-window duplicate/replay filter for
// frame sequence numbers.
package replay

// windowSize bounds how far behind the highest seen sequence number a
// filter still remembers individual seqnos; anything older is rejected
// outright since the filter can no longer distinguish a legitimate
// straggler from a replay.
const windowSize = 10000

// Filter records recently seen sequence numbers and rejects both repeats
// and sequence numbers older than its window.
type Filter struct {
	topSeqno    uint64
	bottomSeqno uint64
	seen        map[uint64]struct{}
}

// New creates a Filter starting at the given sequence number (use 0 for a
// fresh session).
func New(start uint64) *Filter {
	return &Filter{
		topSeqno:    start,
		bottomSeqno: start,
		seen:        make(map[uint64]struct{}),
	}
}

// Add reports whether seqno is new (true) or a replay/too-old (false). New
// sequence numbers are recorded so a later repeat is rejected.
func (f *Filter) Add(seqno uint64) bool {
	if seqno < f.bottomSeqno {
		return false
	}
	if _, dup := f.seen[seqno]; dup {
		return false
	}
	f.seen[seqno] = struct{}{}
	if seqno > f.topSeqno {
		f.topSeqno = seqno
	}
	for f.topSeqno-f.bottomSeqno > windowSize {
		delete(f.seen, f.bottomSeqno)
		f.bottomSeqno++
	}
	return true
}
