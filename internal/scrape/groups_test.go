package scrape

import (
	"testing"

	"meetsync/internal/config"
)

func TestDedupGroupsByNormalizedURL(t *testing.T) {
	groups := []config.GroupConfig{
		{URL: "gophers", OwningRep: "Rep1"},
		{URL: "https://www.meetup.com/gophers/", OwningRep: "Rep2"},
		{URL: "meetup.com/rustaceans", OwningRep: "Rep3"},
	}
	out := DedupGroups(groups)
	if len(out) != 2 {
		t.Fatalf("got %d groups, want 2: %+v", len(out), out)
	}
	if out[0].OwningRep != "Rep1" {
		t.Errorf("first-seen group not kept: %+v", out[0])
	}
	if out[1].URL != "meetup.com/rustaceans" {
		t.Errorf("distinct group dropped: %+v", out)
	}
}
