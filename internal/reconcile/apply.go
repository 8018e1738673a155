package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"collectsync/internal/logging"
	"collectsync/internal/progress"
	"collectsync/internal/services"
)

// Target executes mutations against the target system.
type Target interface {
	// CreateCollection creates a collection seeded with movie and returns
	// the id the target assigned to it.
	CreateCollection(ctx context.Context, name string, seed TargetMovie) (string, error)
	// AddToCollection adds movie to the collection with the given id.
	AddToCollection(ctx context.Context, collectionID string, movie TargetMovie) error
}

// ErrUnregisteredCollection is returned when an add intent names a
// collection the registry does not know.
var ErrUnregisteredCollection = errors.New("collection not registered")

// Outcome records one applied intent.
type Outcome struct {
	Kind         IntentKind
	Collection   string
	CollectionID string
	Movie        TargetMovie
	Source       SourceMovie
	AppliedAt    time.Time
}

// Result collects the outcomes of an Apply call in plan order. When Apply
// fails, Result still holds every mutation that reached the target.
type Result struct {
	Outcomes  []Outcome
	Unmatched []SourceMovie
}

// Counts tallies outcomes by kind.
func (r Result) Counts() Counts {
	counts := Counts{Unmatched: len(r.Unmatched)}
	for _, o := range r.Outcomes {
		counts.record(o.Kind)
	}
	return counts
}

// Applier executes plans against a Target, keeping the registry current so
// later intents observe collections created earlier in the run.
type Applier struct {
	target      Target
	registry    *Registry
	logger      *slog.Logger
	reporter    progress.Reporter
	concurrency int
	now         func() time.Time
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithLogger sets the applier logger.
func WithLogger(logger *slog.Logger) ApplierOption {
	return func(a *Applier) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithReporter sets the progress sink.
func WithReporter(reporter progress.Reporter) ApplierOption {
	return func(a *Applier) {
		if reporter != nil {
			a.reporter = reporter
		}
	}
}

// WithConcurrency sets how many collections are applied at once. Intents
// within one collection always run in order.
func WithConcurrency(n int) ApplierOption {
	return func(a *Applier) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithClock overrides the timestamp source for outcomes.
func WithClock(now func() time.Time) ApplierOption {
	return func(a *Applier) {
		if now != nil {
			a.now = now
		}
	}
}

// NewApplier constructs an Applier.
func NewApplier(target Target, registry *Registry, opts ...ApplierOption) *Applier {
	a := &Applier{
		target:      target,
		registry:    registry,
		logger:      logging.NewNop(),
		reporter:    progress.Discard,
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.NewComponentLogger(a.logger, "applier")
	return a
}

// Apply executes every intent of plan. Collections are independent and may
// run concurrently; the first failure cancels the rest and is returned.
// Mutations already applied are not rolled back.
func (a *Applier) Apply(ctx context.Context, plan Plan) (Result, error) {
	if a.target == nil || a.registry == nil {
		return Result{}, services.Wrap(services.ErrInvariant, "applier", "apply", "target and registry are required", nil)
	}

	total := plan.IntentCount()
	tracker := &applyProgress{reporter: a.reporter, total: total}
	tracker.report("starting")

	slots := make([][]Outcome, len(plan.Collections))
	var result Result
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.concurrency)
	for i, cp := range plan.Collections {
		result.Unmatched = append(result.Unmatched, cp.Unmatched...)
		group.Go(func() error {
			outcomes, err := a.applyCollection(groupCtx, cp, tracker)
			slots[i] = outcomes
			return err
		})
	}
	err := group.Wait()
	for _, outcomes := range slots {
		result.Outcomes = append(result.Outcomes, outcomes...)
	}
	if err != nil {
		a.reporter.Report(progress.Event{Phase: progress.PhaseReconcile, Current: tracker.done(), Total: total, Message: "failed", Err: err})
		return result, err
	}
	tracker.report("complete")
	return result, nil
}

func (a *Applier) applyCollection(ctx context.Context, cp CollectionPlan, tracker *applyProgress) ([]Outcome, error) {
	ctx = services.WithCollection(ctx, cp.Name)
	for _, movie := range cp.Unmatched {
		logging.InfoEvent(ctx, a.logger, "movie not found in plex library; skipping", "movie_unmatched",
			logging.String("movie_title", movie.Title),
			logging.String("movie_path", movie.Path),
			logging.String("identity_key", movie.Key.String()),
		)
	}

	outcomes := make([]Outcome, 0, len(cp.Intents))
	for _, intent := range cp.Intents {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcome, err := a.applyIntent(ctx, intent)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
		tracker.advance(intent.Target.Title)
	}
	return outcomes, nil
}

func (a *Applier) applyIntent(ctx context.Context, intent Intent) (Outcome, error) {
	outcome := Outcome{
		Kind:       intent.Kind,
		Collection: intent.Collection,
		Movie:      intent.Target,
		Source:     intent.Source,
	}
	attrs := []logging.Attr{
		logging.String("movie_title", intent.Target.Title),
		logging.String("rating_key", intent.Target.RatingKey),
	}

	switch intent.Kind {
	case IntentNoop:
		outcome.CollectionID, _ = a.registry.Lookup(intent.Collection)
		a.logDecision(ctx, "movie already in collection", "noop", "already a member", attrs)

	case IntentCreate:
		id, created, err := a.registry.Ensure(ctx, intent.Collection, func(ctx context.Context) (string, error) {
			return a.target.CreateCollection(ctx, intent.Collection, intent.Target)
		})
		if err != nil {
			return outcome, services.Wrap(services.ErrTransport, "applier", "create collection",
				fmt.Sprintf("%q seeded with %q", intent.Collection, intent.Target.Title), err)
		}
		outcome.CollectionID = id
		if created {
			a.logDecision(ctx, "collection created", "create", "collection missing in plex",
				append(attrs, logging.String("collection_id", id)))
			break
		}
		outcome.Kind = IntentAdd
		if err := a.add(ctx, id, intent, attrs); err != nil {
			return outcome, err
		}

	case IntentAdd:
		id, ok := a.registry.Lookup(intent.Collection)
		if !ok {
			return outcome, services.Wrap(services.ErrInvariant, "applier", "add to collection", intent.Collection, ErrUnregisteredCollection)
		}
		outcome.CollectionID = id
		if err := a.add(ctx, id, intent, attrs); err != nil {
			return outcome, err
		}

	default:
		return outcome, services.Wrap(services.ErrInvariant, "applier", "apply", fmt.Sprintf("unknown intent kind %d", intent.Kind), nil)
	}

	outcome.AppliedAt = a.now().UTC()
	return outcome, nil
}

func (a *Applier) add(ctx context.Context, id string, intent Intent, attrs []logging.Attr) error {
	if err := a.target.AddToCollection(ctx, id, intent.Target); err != nil {
		return services.Wrap(services.ErrTransport, "applier", "add to collection",
			fmt.Sprintf("%q to %q", intent.Target.Title, intent.Collection), err)
	}
	a.logDecision(ctx, "movie added to collection", "add", "collection exists in plex",
		append(attrs, logging.String("collection_id", id)))
	return nil
}

func (a *Applier) logDecision(ctx context.Context, msg, result, reason string, attrs []logging.Attr) {
	attrs = append(attrs, logging.String(logging.FieldEventType, "collection_"+result))
	attrs = append(attrs, logging.DecisionAttrs("collection_intent", result, reason)...)
	a.logger.InfoContext(ctx, msg, logging.Args(attrs...)...)
}

// applyProgress serializes progress events from concurrent collections.
type applyProgress struct {
	mu       sync.Mutex
	reporter progress.Reporter
	total    int
	current  int
}

func (p *applyProgress) advance(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.reporter.Report(progress.Event{Phase: progress.PhaseReconcile, Current: p.current, Total: p.total, Message: message})
}

func (p *applyProgress) report(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reporter.Report(progress.Event{Phase: progress.PhaseReconcile, Current: p.current, Total: p.total, Message: message})
}

func (p *applyProgress) done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}
