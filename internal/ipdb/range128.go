package ipdb

import "sort"

// key128 is an unsigned 128-bit value split into big-endian halves,
// used as the IPv6 range map's address key. A single uint64 can't hold
// a full v6 address without lossy folding, so ranges get their own
// comparator instead of reusing rangeMap's uint64 keyspace.
type key128 struct {
	hi uint64
	lo uint64
}

func (a key128) less(b key128) bool {
	if a.hi != b.hi {
		return a.hi < b.hi
	}
	return a.lo < b.lo
}

func (a key128) greater(b key128) bool {
	return b.less(a)
}

// succ returns a+1, carrying from lo into hi on overflow.
func (a key128) succ() key128 {
	if a.lo == ^uint64(0) {
		return key128{hi: a.hi + 1, lo: 0}
	}
	return key128{hi: a.hi, lo: a.lo + 1}
}

// pred returns a-1, borrowing from hi into lo on underflow.
func (a key128) pred() key128 {
	if a.lo == 0 {
		return key128{hi: a.hi - 1, lo: ^uint64(0)}
	}
	return key128{hi: a.hi, lo: a.lo - 1}
}

type interval128 struct {
	from  key128
	to    key128
	value interface{}
}

// range128Map is the IPv6 analogue of rangeMap: a sorted, disjoint
// array of 128-bit intervals kept disjoint on every insert so lookup
// needs only a single binary search.
type range128Map struct {
	entries []interval128
}

// insert adds [from, to] -> value, overwriting any part of existing
// entries it overlaps, same "last inserted wins" semantics as
// rangeMap.insert (see its comment for the grounding).
func (m *range128Map) insert(from, to key128, value interface{}) {
	if from.greater(to) {
		return
	}

	lo := sort.Search(len(m.entries), func(i int) bool { return !m.entries[i].to.less(from) })
	hi := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].from.greater(to) })

	var out []interval128
	out = append(out, m.entries[:lo]...)

	if lo < hi {
		if first := m.entries[lo]; first.from.less(from) {
			out = append(out, interval128{from: first.from, to: from.pred(), value: first.value})
		}
	}

	out = append(out, interval128{from: from, to: to, value: value})

	if lo < hi {
		if last := m.entries[hi-1]; to.less(last.to) {
			out = append(out, interval128{from: to.succ(), to: last.to, value: last.value})
		}
	}

	out = append(out, m.entries[hi:]...)
	m.entries = out
}

// lookup returns the value of the interval containing addr, or
// (nil, false) if addr falls in no range.
func (m *range128Map) lookup(addr key128) (interface{}, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].from.greater(addr)
	}) - 1
	if i < 0 {
		return nil, false
	}
	e := m.entries[i]
	if !addr.less(e.from) && !e.to.less(addr) {
		return e.value, true
	}
	return nil, false
}

func (m *range128Map) len() int { return len(m.entries) }
