package progress

import "strings"

// Phase names a step of a sync run.
type Phase string

const (
	PhaseConfig      Phase = "config"
	PhaseServer      Phase = "server"
	PhaseLibrary     Phase = "library"
	PhaseCollections Phase = "collections"
	PhaseReset       Phase = "reset"
	PhaseMovies      Phase = "movies"
	PhaseSource      Phase = "source"
	PhaseReconcile   Phase = "reconcile"
)

// window is the slice of overall run progress a phase occupies, in percent.
type window struct {
	start, end float64
}

var phaseWindows = map[Phase]window{
	PhaseConfig:      {0, 1},
	PhaseServer:      {1, 3},
	PhaseLibrary:     {3, 5},
	PhaseCollections: {5, 6},
	PhaseReset:       {6, 6},
	PhaseMovies:      {6, 60},
	PhaseSource:      {60, 65},
	PhaseReconcile:   {65, 100},
}

// Label returns a human readable phase name.
func (p Phase) Label() string {
	switch p {
	case PhaseConfig:
		return "Loading configuration"
	case PhaseServer:
		return "Plex server"
	case PhaseLibrary:
		return "Plex library"
	case PhaseCollections:
		return "Plex collections"
	case PhaseReset:
		return "Deleting collections"
	case PhaseMovies:
		return "Plex movies"
	case PhaseSource:
		return "Radarr collections"
	case PhaseReconcile:
		return "Reconciling"
	default:
		value := strings.TrimSpace(string(p))
		if value == "" {
			return "Working"
		}
		return value
	}
}

// Event is a single progress or error notification emitted during a run.
// Current and Total count work units within the phase; Total may be zero
// when the amount of work is not yet known.
type Event struct {
	Phase   Phase
	Current int
	Total   int
	Message string
	Err     error
}

// Fraction reports completion within the event's phase in the range [0, 1].
func (e Event) Fraction() float64 {
	if e.Total <= 0 {
		return 0
	}
	current := e.Current
	if current < 0 {
		current = 0
	}
	if current > e.Total {
		current = e.Total
	}
	return float64(current) / float64(e.Total)
}

// Percent maps the event onto overall run progress using the phase windows.
// Unknown phases report -1.
func (e Event) Percent() float64 {
	w, ok := phaseWindows[e.Phase]
	if !ok {
		return -1
	}
	return w.start + (w.end-w.start)*e.Fraction()
}

// Reporter receives progress events. Implementations must be safe for
// concurrent use.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Event)

// Report calls f(event).
func (f ReporterFunc) Report(event Event) {
	if f != nil {
		f(event)
	}
}

// Discard drops every event.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Event) {}

// Multi fans an event out to every non-nil reporter in order.
func Multi(reporters ...Reporter) Reporter {
	filtered := make([]Reporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil && r != Discard {
			filtered = append(filtered, r)
		}
	}
	return multiReporter(filtered)
}

type multiReporter []Reporter

func (m multiReporter) Report(event Event) {
	for _, r := range m {
		r.Report(event)
	}
}
