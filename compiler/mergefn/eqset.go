package mergefn

import (
	"github.com/rilllang/rill/compiler/ir"
)

type (
	// entry pairs a function with its fingerprint. A lookupOnly entry is
	// a sentinel compared by function identity alone: deep comparison is
	// suppressed, so erasing through it can not trigger a merge.
	entry struct {
		fn         *ir.Func
		hash       uint64
		lookupOnly bool
	}

	// fnSet buckets entries by fingerprint. Equality inside a bucket is
	// the full function comparator.
	fnSet struct {
		buckets map[uint64][]*entry

		equal func(old, new *entry) bool
	}
)

func (s *fnSet) init(size int, equal func(old, new *entry) bool) {
	s.buckets = make(map[uint64][]*entry, size)
	s.equal = equal
}

func (s *fnSet) clear() {
	s.buckets = nil
}

func (s *fnSet) equalEntries(old, new *entry) bool {
	if old.fn == new.fn {
		return true
	}
	if old.lookupOnly || new.lookupOnly {
		return false
	}

	return s.equal(old, new)
}

// insert adds e unless an equal entry is already seated, in which case
// the incumbent is returned and e is not added.
func (s *fnSet) insert(e *entry) *entry {
	b := s.buckets[e.hash]

	for _, old := range b {
		if s.equalEntries(old, e) {
			return old
		}
	}

	s.buckets[e.hash] = append(b, e)

	return nil
}

// remove erases the entry holding exactly fn.
func (s *fnSet) remove(fn *ir.Func) bool {
	e := &entry{fn: fn, hash: fingerprint(fn), lookupOnly: true}

	b := s.buckets[e.hash]

	for i, old := range b {
		if s.equalEntries(old, e) {
			s.buckets[e.hash] = append(b[:i], b[i+1:]...)
			return true
		}
	}

	return false
}
