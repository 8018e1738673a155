package reconcile

import "strings"

// Index maps identity keys to records. Keys keep the order in which they were
// first seen; a repeated key replaces the stored record (last write wins).
type Index[T any] struct {
	records map[Key]T
	order   []Key
}

// SourceIndex holds source-system movies by identity key.
type SourceIndex = Index[SourceMovie]

// TargetIndex holds target-system movies by identity key.
type TargetIndex = Index[TargetMovie]

func newIndex[T any](capacity int) *Index[T] {
	return &Index[T]{records: make(map[Key]T, capacity), order: make([]Key, 0, capacity)}
}

func (ix *Index[T]) put(key Key, record T) bool {
	_, exists := ix.records[key]
	if !exists {
		ix.order = append(ix.order, key)
	}
	ix.records[key] = record
	return exists
}

// Lookup returns the record stored under key.
func (ix *Index[T]) Lookup(key Key) (T, bool) {
	var zero T
	if ix == nil {
		return zero, false
	}
	record, ok := ix.records[key]
	return record, ok
}

// Len reports the number of distinct keys.
func (ix *Index[T]) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.order)
}

// Keys returns the keys in first-seen order.
func (ix *Index[T]) Keys() []Key {
	if ix == nil {
		return nil
	}
	out := make([]Key, len(ix.order))
	copy(out, ix.order)
	return out
}

// Records returns the stored records in first-seen key order.
func (ix *Index[T]) Records() []T {
	if ix == nil {
		return nil
	}
	out := make([]T, 0, len(ix.order))
	for _, key := range ix.order {
		out = append(out, ix.records[key])
	}
	return out
}

// Duplicate describes a record that replaced an earlier one with the same key.
type Duplicate struct {
	Key          Key
	ReplacedPath string
	KeptPath     string
}

// IndexReport lists the data-quality conditions seen while indexing.
type IndexReport struct {
	Duplicates []Duplicate
	// Unkeyed counts records skipped because they carried no path.
	Unkeyed int
}

// IndexSource builds the source index. Input order decides which record
// survives a duplicate key, so callers that fetch concurrently must merge
// results back into their original order first.
func IndexSource(movies []SourceMovie) (*SourceIndex, IndexReport) {
	return buildIndex(movies, func(m *SourceMovie) *string { return &m.Path }, func(m *SourceMovie, k Key) { m.Key = k })
}

// IndexTarget builds the target index under the same rules as IndexSource.
func IndexTarget(movies []TargetMovie) (*TargetIndex, IndexReport) {
	return buildIndex(movies, func(m *TargetMovie) *string { return &m.Path }, func(m *TargetMovie, k Key) { m.Key = k })
}

func buildIndex[T any](records []T, path func(*T) *string, setKey func(*T, Key)) (*Index[T], IndexReport) {
	index := newIndex[T](len(records))
	var report IndexReport
	for _, record := range records {
		p := *path(&record)
		if strings.TrimSpace(p) == "" {
			report.Unkeyed++
			continue
		}
		key := IdentityKey(p)
		setKey(&record, key)
		if previous, ok := index.records[key]; ok {
			report.Duplicates = append(report.Duplicates, Duplicate{
				Key:          key,
				ReplacedPath: *path(&previous),
				KeptPath:     p,
			})
		}
		index.put(key, record)
	}
	return index, report
}
