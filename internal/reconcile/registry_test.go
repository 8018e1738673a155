package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"collectsync/internal/reconcile"
)

func TestRegistryRegisterIfAbsent(t *testing.T) {
	registry := reconcile.NewRegistry(
		reconcile.Collection{Name: "A", ID: "1"},
		reconcile.Collection{Name: "A", ID: "2"},
		reconcile.Collection{Name: "", ID: "3"},
	)
	if registry.Len() != 1 {
		t.Fatalf("len = %d, want 1", registry.Len())
	}
	if id, _ := registry.Lookup("A"); id != "1" {
		t.Fatalf("expected first registration to stick, got %q", id)
	}
	if registry.Register("B", " ") {
		t.Fatal("blank id must be rejected")
	}
	registry.Register("B", "4")
	registry.Forget("A")
	got := registry.Collections()
	if len(got) != 1 || got[0].Name != "B" {
		t.Fatalf("collections = %+v", got)
	}
}

func TestRegistryEnsureCreatesOnce(t *testing.T) {
	registry := reconcile.NewRegistry()
	var calls atomic.Int32
	var created atomic.Int32

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, didCreate, err := registry.Ensure(context.Background(), "Alien Collection", func(context.Context) (string, error) {
				calls.Add(1)
				return "77", nil
			})
			if err != nil || id != "77" {
				t.Errorf("ensure = %q, %v", id, err)
			}
			if didCreate {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 || created.Load() != 1 {
		t.Fatalf("create calls = %d, created = %d", calls.Load(), created.Load())
	}
}

func TestRegistryEnsureRejectsEmptyID(t *testing.T) {
	registry := reconcile.NewRegistry()
	_, _, err := registry.Ensure(context.Background(), "X", func(context.Context) (string, error) { return "", nil })
	if !errors.Is(err, reconcile.ErrEmptyCollectionID) {
		t.Fatalf("expected ErrEmptyCollectionID, got %v", err)
	}
	if registry.Has("X") {
		t.Fatal("failed create must not register")
	}
}

func TestRegistryEnsurePropagatesCreateError(t *testing.T) {
	registry := reconcile.NewRegistry()
	boom := errors.New("boom")
	_, created, err := registry.Ensure(context.Background(), "X", func(context.Context) (string, error) { return "", boom })
	if !errors.Is(err, boom) || created {
		t.Fatalf("ensure = %v, created=%v", err, created)
	}
}
