package reconcile

import "strings"

// ExclusionSet holds collection names that must never be reconciled.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds an exclusion set, ignoring blank names.
func NewExclusionSet(names []string) ExclusionSet {
	set := make(ExclusionSet, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

// Contains reports whether name is excluded.
func (s ExclusionSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// CollectionGroup is a source collection that met the membership threshold
// and is not excluded. Movies keep source index order.
type CollectionGroup struct {
	Name         string
	CollectionID int
	Movies       []SourceMovie
}

// GroupSkip records a collection dropped by the grouper.
type GroupSkip struct {
	Name string
	Size int
}

// GroupReport lists collections that did not become groups.
type GroupReport struct {
	BelowThreshold []GroupSkip
	Excluded       []GroupSkip
}

// GroupCollections partitions indexed source movies by declared collection
// name. Collections with fewer than minForCollection members are dropped
// first; excluded names are then removed from the survivors. Groups are
// returned in the order their collection was first seen in the index.
func GroupCollections(index *SourceIndex, minForCollection int, exclusions ExclusionSet) ([]CollectionGroup, GroupReport) {
	if minForCollection < 1 {
		minForCollection = 1
	}

	var names []string
	byName := make(map[string]*CollectionGroup)
	for _, movie := range index.Records() {
		name := movie.CollectionName
		if strings.TrimSpace(name) == "" {
			continue
		}
		group, ok := byName[name]
		if !ok {
			group = &CollectionGroup{Name: name, CollectionID: movie.CollectionID}
			byName[name] = group
			names = append(names, name)
		}
		group.Movies = append(group.Movies, movie)
	}

	var (
		groups []CollectionGroup
		report GroupReport
	)
	for _, name := range names {
		group := byName[name]
		size := len(group.Movies)
		if size < minForCollection {
			report.BelowThreshold = append(report.BelowThreshold, GroupSkip{Name: name, Size: size})
			continue
		}
		if exclusions.Contains(name) {
			report.Excluded = append(report.Excluded, GroupSkip{Name: name, Size: size})
			continue
		}
		groups = append(groups, *group)
	}
	return groups, report
}
