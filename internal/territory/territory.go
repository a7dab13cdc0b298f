// Package territory reassigns event ownership by city. It is a
// one-time rule applied to newly added records only; already-known
// records keep whatever rep they were assigned when first seen.
package territory

import (
	"strings"

	appLog "meetsync/internal/log"
	"meetsync/internal/model"
)

// Map is a case-folded city name -> owning rep lookup.
type Map map[string]string

// Normalize builds a Map from raw config, folding keys so matching is
// case-insensitive.
func Normalize(raw map[string]string) Map {
	m := make(Map, len(raw))
	for city, rep := range raw {
		key := strings.ToLower(strings.TrimSpace(city))
		if key == "" || rep == "" {
			continue
		}
		m[key] = rep
	}
	return m
}

// Apply overrides OwningRep for in-person events whose city matches a
// territory. Online events and events without a city are left alone.
// Returns the number of reassignments.
func Apply(added []*model.Event, m Map) int {
	if len(m) == 0 {
		return 0
	}

	n := 0
	for _, e := range added {
		if e.IsOnline || e.City == "" {
			continue
		}
		rep, ok := m[strings.ToLower(strings.TrimSpace(e.City))]
		if !ok {
			continue
		}
		if e.OwningRep != rep {
			appLog.Debug("territory reassignment", "event", e.EventURL, "city", e.City, "rep", rep)
			e.OwningRep = rep
		}
		n++
	}
	return n
}
