package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"collectsync/internal/reconcile"
)

type fakeDeleter struct {
	deleted []string
	failOn  string
}

func (f *fakeDeleter) DeleteCollection(_ context.Context, id string) error {
	if id == f.failOn {
		return errors.New("plex said no")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func TestResetCollectionsDeletesAndForgets(t *testing.T) {
	registry := reconcile.NewRegistry(
		reconcile.Collection{Name: "A", ID: "1"},
		reconcile.Collection{Name: "B", ID: "2"},
	)
	deleter := &fakeDeleter{}
	removed, err := reconcile.ResetCollections(context.Background(), registry, deleter, nil, nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if removed != 2 || registry.Len() != 0 {
		t.Fatalf("removed=%d remaining=%d", removed, registry.Len())
	}
	if len(deleter.deleted) != 2 || deleter.deleted[0] != "1" {
		t.Fatalf("deleted = %v", deleter.deleted)
	}
}

func TestResetCollectionsStopsAtFailure(t *testing.T) {
	registry := reconcile.NewRegistry(
		reconcile.Collection{Name: "A", ID: "1"},
		reconcile.Collection{Name: "B", ID: "2"},
		reconcile.Collection{Name: "C", ID: "3"},
	)
	removed, err := reconcile.ResetCollections(context.Background(), registry, &fakeDeleter{failOn: "2"}, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	if registry.Has("A") || !registry.Has("B") || !registry.Has("C") {
		t.Fatalf("unexpected registry %+v", registry.Collections())
	}
}
