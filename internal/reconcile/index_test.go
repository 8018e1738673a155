package reconcile_test

import (
	"slices"
	"testing"

	"collectsync/internal/reconcile"
)

func TestIndexSourceAssignsKeysInFirstSeenOrder(t *testing.T) {
	index, report := reconcile.IndexSource([]reconcile.SourceMovie{
		{Title: "Aliens", Path: "/m/Aliens (1986)/Aliens.mkv"},
		{Title: "Alien", Path: "/m/Alien (1979)/Alien.mkv"},
	})
	if len(report.Duplicates) != 0 || report.Unkeyed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	want := []reconcile.Key{"aliens (1986)/aliens.mkv", "alien (1979)/alien.mkv"}
	if got := index.Keys(); !slices.Equal(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	movie, ok := index.Lookup("alien (1979)/alien.mkv")
	if !ok || movie.Title != "Alien" || movie.Key != want[1] {
		t.Fatalf("lookup = %+v, %v", movie, ok)
	}
}

func TestIndexLastWriteWins(t *testing.T) {
	index, report := reconcile.IndexTarget([]reconcile.TargetMovie{
		{RatingKey: "1", Title: "First", Path: "/a/Heat (1995)/Heat.mkv"},
		{RatingKey: "2", Title: "Other", Path: "/a/Ronin (1998)/Ronin.mkv"},
		{RatingKey: "3", Title: "Second", Path: `C:\b\Heat (1995)\heat.MKV`},
	})
	if index.Len() != 2 {
		t.Fatalf("len = %d, want 2", index.Len())
	}
	movie, _ := index.Lookup("heat (1995)/heat.mkv")
	if movie.RatingKey != "3" {
		t.Fatalf("expected later record to win, got %+v", movie)
	}
	if keys := index.Keys(); keys[0] != "heat (1995)/heat.mkv" {
		t.Fatalf("replacement must keep first-seen position, got %v", keys)
	}
	if len(report.Duplicates) != 1 {
		t.Fatalf("duplicates = %+v", report.Duplicates)
	}
	dup := report.Duplicates[0]
	if dup.ReplacedPath != "/a/Heat (1995)/Heat.mkv" || dup.KeptPath != `C:\b\Heat (1995)\heat.MKV` {
		t.Fatalf("unexpected duplicate %+v", dup)
	}
}

func TestIndexSkipsBlankPaths(t *testing.T) {
	index, report := reconcile.IndexSource([]reconcile.SourceMovie{
		{Title: "No file", Path: "  "},
		{Title: "Heat", Path: "/m/Heat (1995)/Heat.mkv"},
	})
	if index.Len() != 1 || report.Unkeyed != 1 {
		t.Fatalf("len=%d unkeyed=%d", index.Len(), report.Unkeyed)
	}
}

func TestNilIndexIsEmpty(t *testing.T) {
	var index *reconcile.TargetIndex
	if index.Len() != 0 || index.Keys() != nil || index.Records() != nil {
		t.Fatal("nil index should be empty")
	}
	if _, ok := index.Lookup("x"); ok {
		t.Fatal("nil index lookup should miss")
	}
}
