package ipdb

import "sort"

// interval is one inclusive [from, to] range mapped to a value. Value is
// either a country code or an AS number depending on which rangeMap it
// lives in.
type interval struct {
	from  uint64
	to    uint64
	value interface{}
}

// rangeMap is a sorted, disjoint array of intervals with point lookup
// by binary search (spec §9: "sorted array of intervals with binary
// search by lower bound"). It is built once at load time and never
// mutated afterward, so lookups need no locking.
type rangeMap struct {
	entries []interval
}

// insert adds [from, to] -> value, overwriting any part of existing
// entries it overlaps — mirroring the behavior of the Rust `rangemap`
// crate's `RangeInclusiveMap::insert` that the original tool's
// `src/db/ip.rs` builds its tables with: the most recently inserted
// range always wins over whatever it covers, including splitting an
// older, wider range around a newer, narrower one (spec §9: "last
// inserted wins" on overlap). Keeping the map disjoint at every insert,
// rather than only resolving overlaps at lookup time, means lookup
// never has to guess which of several overlapping candidates is truly
// the latest.
func (m *rangeMap) insert(from, to uint64, value interface{}) {
	if from > to {
		return
	}

	lo := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].to >= from })
	hi := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].from > to })

	var out []interval
	out = append(out, m.entries[:lo]...)

	if lo < hi {
		if first := m.entries[lo]; first.from < from {
			out = append(out, interval{from: first.from, to: from - 1, value: first.value})
		}
	}

	out = append(out, interval{from: from, to: to, value: value})

	if lo < hi {
		if last := m.entries[hi-1]; last.to > to {
			out = append(out, interval{from: to + 1, to: last.to, value: last.value})
		}
	}

	out = append(out, m.entries[hi:]...)
	m.entries = out
}

// lookup returns the value of the interval containing addr, or
// (nil, false) if addr falls in no range. entries is always kept
// sorted and disjoint by insert, so a single binary search suffices.
func (m *rangeMap) lookup(addr uint64) (interface{}, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].from > addr
	}) - 1
	if i < 0 {
		return nil, false
	}
	e := m.entries[i]
	if addr >= e.from && addr <= e.to {
		return e.value, true
	}
	return nil, false
}

func (m *rangeMap) len() int { return len(m.entries) }
