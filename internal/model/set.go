package model

import "sort"

// Sorted returns the records in deterministic persistence order:
// ascending date (missing dates last), ties broken by event URL.
func (s Set) Sorted() []*Event {
	out := make([]*Event, 0, len(s))
	for _, e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].DateKey(), out[j].DateKey()
		if ki != kj {
			return ki < kj
		}
		return out[i].EventURL < out[j].EventURL
	})
	return out
}

// CountByStatus reports how many records currently carry the given status.
func (s Set) CountByStatus(st Status) int {
	n := 0
	for _, e := range s {
		if e.Status == st {
			n++
		}
	}
	return n
}
