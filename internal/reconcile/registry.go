package reconcile

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Collection is a registry entry: a collection name and its target id.
type Collection struct {
	Name string
	ID   string
}

// Registry maps collection names to target collection ids. It is the single
// source of truth for whether a collection exists during a run, including
// collections created earlier in the same run. It is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	ids   map[string]string
	order []string
	locks map[string]*sync.Mutex
}

// NewRegistry returns a registry seeded with existing target collections.
// Later duplicates of a name are ignored.
func NewRegistry(existing ...Collection) *Registry {
	r := &Registry{
		ids:   make(map[string]string, len(existing)),
		locks: make(map[string]*sync.Mutex),
	}
	for _, c := range existing {
		r.Register(c.Name, c.ID)
	}
	return r
}

// Register adds name if it is absent and reports whether it was added.
// Blank names or ids are rejected.
func (r *Registry) Register(name, id string) bool {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(id) == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[name]; ok {
		return false
	}
	r.ids[name] = id
	r.order = append(r.order, name)
	return true
}

// Lookup returns the id registered for name.
func (r *Registry) Lookup(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.ids[name]
	return id, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Len returns the number of registered collections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

// Collections returns the entries in registration order.
func (r *Registry) Collections() []Collection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Collection, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Collection{Name: name, ID: r.ids[name]})
	}
	return out
}

// Forget removes name. Only the reset pass, which runs before
// reconciliation, removes entries.
func (r *Registry) Forget(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[name]; !ok {
		return
	}
	delete(r.ids, name)
	for i, existing := range r.order {
		if existing == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// ErrEmptyCollectionID is returned by Ensure when create reports success
// without an id.
var ErrEmptyCollectionID = errors.New("collection created without an id")

// Ensure returns the id for name, calling create when the name is not yet
// registered. Check and registration happen under a per-name lock, so
// concurrent callers for the same name issue at most one create. created
// reports whether this call performed the creation.
func (r *Registry) Ensure(ctx context.Context, name string, create func(context.Context) (string, error)) (id string, created bool, err error) {
	lock := r.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	if id, ok := r.Lookup(name); ok {
		return id, false, nil
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	id, err = create(ctx)
	if err != nil {
		return "", false, err
	}
	if strings.TrimSpace(id) == "" {
		return "", false, ErrEmptyCollectionID
	}
	r.Register(name, id)
	return id, true, nil
}

func (r *Registry) nameLock(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[name] = lock
	}
	return lock
}
