package territory

import (
	"testing"

	"meetsync/internal/model"
)

func TestApplyOverridesMatchingCity(t *testing.T) {
	m := Normalize(map[string]string{"Austin": "Rep2", "  Boston ": "Rep3"})

	added := []*model.Event{
		{EventURL: "a", City: "AUSTIN", OwningRep: "Rep1"},
		{EventURL: "b", City: " austin ", OwningRep: "Rep1"},
		{EventURL: "c", City: "Denver", OwningRep: "Rep1"},
		{EventURL: "d", OwningRep: "Rep1"},
		{EventURL: "e", City: "Austin", IsOnline: true, OwningRep: "Rep1"},
	}
	n := Apply(added, m)
	if n != 2 {
		t.Fatalf("got %d reassignments, want 2", n)
	}
	if added[0].OwningRep != "Rep2" || added[1].OwningRep != "Rep2" {
		t.Errorf("matching cities not reassigned: %q %q", added[0].OwningRep, added[1].OwningRep)
	}
	if added[2].OwningRep != "Rep1" {
		t.Errorf("unmapped city reassigned: %q", added[2].OwningRep)
	}
	if added[3].OwningRep != "Rep1" {
		t.Errorf("record without city reassigned: %q", added[3].OwningRep)
	}
	if added[4].OwningRep != "Rep1" {
		t.Errorf("online record reassigned: %q", added[4].OwningRep)
	}
}

func TestApplyOnlyTouchesGivenRecords(t *testing.T) {
	// The rule runs on newly added records; an already-known record with
	// the same city is simply never passed in.
	known := &model.Event{EventURL: "old", City: "Austin", OwningRep: "Rep1"}
	fresh := &model.Event{EventURL: "new", City: "Austin", OwningRep: "Rep1"}

	Apply([]*model.Event{fresh}, Normalize(map[string]string{"austin": "Rep2"}))

	if fresh.OwningRep != "Rep2" {
		t.Errorf("new record not reassigned: %q", fresh.OwningRep)
	}
	if known.OwningRep != "Rep1" {
		t.Errorf("known record touched: %q", known.OwningRep)
	}
}

func TestApplyEmptyMap(t *testing.T) {
	e := &model.Event{EventURL: "a", City: "Austin", OwningRep: "Rep1"}
	if n := Apply([]*model.Event{e}, nil); n != 0 {
		t.Fatalf("empty map produced %d reassignments", n)
	}
	if e.OwningRep != "Rep1" {
		t.Errorf("rep changed with empty map: %q", e.OwningRep)
	}
}
