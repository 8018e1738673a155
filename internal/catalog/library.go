package catalog

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"collectsync/internal/logging"
	"collectsync/internal/progress"
	"collectsync/internal/reconcile"
	"collectsync/internal/services/plex"
)

// PlexAPI is the subset of the Plex client a library session uses.
type PlexAPI interface {
	Identity(ctx context.Context) (string, error)
	FindSection(ctx context.Context, title string) (plex.Section, error)
	Collections(ctx context.Context, sectionKey string) ([]plex.Collection, error)
	Movies(ctx context.Context, sectionKey string) ([]plex.Video, error)
	Metadata(ctx context.Context, ratingKey string) (plex.Video, error)
	CreateCollection(ctx context.Context, sectionKey, machineID, title, ratingKey string) (string, error)
	AddToCollection(ctx context.Context, machineID, collectionID, ratingKey string) error
	DeleteCollection(ctx context.Context, collectionID string) error
}

var _ PlexAPI = (*plex.Client)(nil)

// Library is a resolved Plex movie library. It reads the target snapshot and
// executes collection mutations against the same section.
type Library struct {
	api         PlexAPI
	machineID   string
	section     plex.Section
	logger      *slog.Logger
	reporter    progress.Reporter
	concurrency int
	limiter     *rate.Limiter
}

var (
	_ reconcile.Target  = (*Library)(nil)
	_ reconcile.Deleter = (*Library)(nil)
)

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithLogger sets the library logger.
func WithLogger(logger *slog.Logger) LibraryOption {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithReporter sets the progress sink.
func WithReporter(reporter progress.Reporter) LibraryOption {
	return func(l *Library) {
		if reporter != nil {
			l.reporter = reporter
		}
	}
}

// WithFetchConcurrency bounds concurrent metadata requests.
func WithFetchConcurrency(n int) LibraryOption {
	return func(l *Library) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithRequestsPerSecond throttles metadata requests. Zero disables throttling.
func WithRequestsPerSecond(rps float64) LibraryOption {
	return func(l *Library) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			l.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// OpenLibrary resolves the server identity and the named library section.
func OpenLibrary(ctx context.Context, api PlexAPI, title string, opts ...LibraryOption) (*Library, error) {
	l := &Library{
		api:         api,
		logger:      logging.NewNop(),
		reporter:    progress.Discard,
		concurrency: 1,
		limiter:     rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.NewComponentLogger(l.logger, "plex")

	l.reporter.Report(progress.Event{Phase: progress.PhaseServer, Message: "fetching plex server identity"})
	machineID, err := api.Identity(ctx)
	if err != nil {
		return nil, err
	}
	l.machineID = machineID
	l.reporter.Report(progress.Event{Phase: progress.PhaseServer, Current: 1, Total: 1, Message: machineID})

	l.reporter.Report(progress.Event{Phase: progress.PhaseLibrary, Message: "resolving library " + title})
	section, err := api.FindSection(ctx, title)
	if err != nil {
		return nil, err
	}
	l.section = section
	l.reporter.Report(progress.Event{Phase: progress.PhaseLibrary, Current: 1, Total: 1, Message: section.Title})

	l.logger.InfoContext(ctx, "plex library resolved",
		logging.String("library", section.Title),
		logging.String("section_key", section.Key),
		logging.String("machine_id", machineID),
	)
	return l, nil
}

// Section returns the resolved library section.
func (l *Library) Section() plex.Section { return l.section }

// MachineID returns the server machine identifier.
func (l *Library) MachineID() string { return l.machineID }

// LoadRegistry reads the section's existing collections into a registry.
func (l *Library) LoadRegistry(ctx context.Context) (*reconcile.Registry, error) {
	l.reporter.Report(progress.Event{Phase: progress.PhaseCollections, Message: "fetching plex collections"})
	collections, err := l.api.Collections(ctx, l.section.Key)
	if err != nil {
		return nil, err
	}
	registry := reconcile.NewRegistry()
	for _, c := range collections {
		if !registry.Register(c.Title, c.RatingKey) {
			logging.InfoEvent(ctx, l.logger, "duplicate plex collection name; keeping first", "collection_duplicate",
				logging.String(logging.FieldCollection, c.Title),
				logging.String("collection_id", c.RatingKey),
			)
		}
	}
	l.reporter.Report(progress.Event{Phase: progress.PhaseCollections, Current: 1, Total: 1, Message: "collections loaded"})
	l.logger.InfoContext(ctx, "plex collections loaded", logging.Int("collections", registry.Len()))
	return registry, nil
}

// LoadMovies lists the section's movies and fetches each one's metadata for
// its collection tags. Fetches run concurrently under the configured limits;
// the result keeps library order. Movies without a file are skipped.
func (l *Library) LoadMovies(ctx context.Context) ([]reconcile.TargetMovie, error) {
	l.reporter.Report(progress.Event{Phase: progress.PhaseMovies, Message: "listing plex movies"})
	videos, err := l.api.Movies(ctx, l.section.Key)
	if err != nil {
		return nil, err
	}

	results := make([]*reconcile.TargetMovie, len(videos))
	total := len(videos)
	var (
		mu   sync.Mutex
		done int
	)
	advance := func(title string) {
		mu.Lock()
		defer mu.Unlock()
		done++
		l.reporter.Report(progress.Event{Phase: progress.PhaseMovies, Current: done, Total: total, Message: title})
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(l.concurrency)
	for i, video := range videos {
		if video.FilePath() == "" {
			logging.InfoEvent(ctx, l.logger, "plex movie has no file; skipping", "movie_without_file",
				logging.String("movie_title", video.Title),
				logging.String("rating_key", video.RatingKey),
			)
			advance(video.Title)
			continue
		}
		group.Go(func() error {
			if err := l.limiter.Wait(groupCtx); err != nil {
				return err
			}
			meta, err := l.api.Metadata(groupCtx, video.RatingKey)
			if err != nil {
				return err
			}
			results[i] = &reconcile.TargetMovie{
				RatingKey:   video.RatingKey,
				Title:       video.Title,
				Path:        video.FilePath(),
				Collections: meta.CollectionNames(),
			}
			advance(video.Title)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	movies := make([]reconcile.TargetMovie, 0, len(results))
	for _, movie := range results {
		if movie != nil {
			movies = append(movies, *movie)
		}
	}
	l.logger.InfoContext(ctx, "plex movies loaded",
		logging.Int("listed", total),
		logging.Int("with_file", len(movies)),
	)
	return movies, nil
}

// CreateCollection creates a collection seeded with movie.
func (l *Library) CreateCollection(ctx context.Context, name string, seed reconcile.TargetMovie) (string, error) {
	return l.api.CreateCollection(ctx, l.section.Key, l.machineID, name, seed.RatingKey)
}

// AddToCollection adds movie to an existing collection.
func (l *Library) AddToCollection(ctx context.Context, collectionID string, movie reconcile.TargetMovie) error {
	return l.api.AddToCollection(ctx, l.machineID, collectionID, movie.RatingKey)
}

// DeleteCollection removes a collection from the library.
func (l *Library) DeleteCollection(ctx context.Context, collectionID string) error {
	return l.api.DeleteCollection(ctx, collectionID)
}
