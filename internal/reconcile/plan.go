package reconcile

// IntentKind classifies a planned mutation.
type IntentKind int

const (
	IntentNoop IntentKind = iota
	IntentAdd
	IntentCreate
)

func (k IntentKind) String() string {
	switch k {
	case IntentAdd:
		return "add"
	case IntentCreate:
		return "create"
	default:
		return "noop"
	}
}

// Intent is a planned, not yet applied mutation for one movie.
type Intent struct {
	Kind       IntentKind
	Collection string
	Source     SourceMovie
	Target     TargetMovie
}

// CollectionPlan holds the ordered intents for one collection. Unmatched lists
// source movies with no counterpart in the target library.
type CollectionPlan struct {
	Name      string
	Intents   []Intent
	Unmatched []SourceMovie
}

// Plan is the full set of intents for a run, one entry per collection group.
type Plan struct {
	Collections []CollectionPlan
}

// Counts tallies plan or apply outcomes.
type Counts struct {
	Create    int
	Add       int
	Noop      int
	Unmatched int
}

// Mutations returns the number of create and add operations.
func (c Counts) Mutations() int {
	return c.Create + c.Add
}

func (c *Counts) record(kind IntentKind) {
	switch kind {
	case IntentCreate:
		c.Create++
	case IntentAdd:
		c.Add++
	default:
		c.Noop++
	}
}

// Counts tallies intents by kind across every collection.
func (p Plan) Counts() Counts {
	var counts Counts
	for _, cp := range p.Collections {
		for _, intent := range cp.Intents {
			counts.record(intent.Kind)
		}
		counts.Unmatched += len(cp.Unmatched)
	}
	return counts
}

// IntentCount returns the number of intents across every collection.
func (p Plan) IntentCount() int {
	total := 0
	for _, cp := range p.Collections {
		total += len(cp.Intents)
	}
	return total
}

// RegistryView answers whether a collection already exists on the target.
type RegistryView interface {
	Has(name string) bool
}

// BuildPlan plans every group against the target snapshot and registry.
func BuildPlan(groups []CollectionGroup, targets *TargetIndex, registry RegistryView) Plan {
	plan := Plan{Collections: make([]CollectionPlan, 0, len(groups))}
	for _, group := range groups {
		plan.Collections = append(plan.Collections, PlanCollection(group, targets, registry))
	}
	return plan
}

// PlanCollection classifies each movie of a group. The first movie that is
// not yet a member of a collection the registry does not know yields a create
// intent; every later non-member of that collection yields an add intent,
// because the create is applied before them.
func PlanCollection(group CollectionGroup, targets *TargetIndex, registry RegistryView) CollectionPlan {
	cp := CollectionPlan{Name: group.Name}
	exists := registry != nil && registry.Has(group.Name)
	for _, movie := range group.Movies {
		target, ok := targets.Lookup(movie.Key)
		if !ok {
			cp.Unmatched = append(cp.Unmatched, movie)
			continue
		}
		intent := Intent{Collection: group.Name, Source: movie, Target: target}
		switch {
		case target.InCollection(group.Name):
			intent.Kind = IntentNoop
		case exists:
			intent.Kind = IntentAdd
		default:
			intent.Kind = IntentCreate
			exists = true
		}
		cp.Intents = append(cp.Intents, intent)
	}
	return cp
}
