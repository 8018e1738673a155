package catalog

import (
	"context"
	"log/slog"

	"collectsync/internal/logging"
	"collectsync/internal/progress"
	"collectsync/internal/reconcile"
	"collectsync/internal/services/radarr"
)

// SourceReport counts what LoadSource saw while reading Radarr.
type SourceReport struct {
	Collections     int
	Members         int
	NotInLibrary    int
	WithoutFile     int
	LibraryMovies   int
	CollectedMovies int
}

// LoadSource reads Radarr collections and library movies and returns one
// source movie per downloaded collection member, in collection order.
// Members that are not in the Radarr library or have no file are skipped
// and logged.
func LoadSource(ctx context.Context, client radarr.Catalog, reporter progress.Reporter, logger *slog.Logger) ([]reconcile.SourceMovie, SourceReport, error) {
	if reporter == nil {
		reporter = progress.Discard
	}
	logger = logging.NewComponentLogger(logger, "radarr")
	var report SourceReport

	reporter.Report(progress.Event{Phase: progress.PhaseSource, Message: "fetching radarr collections"})
	collections, err := client.Collections(ctx)
	if err != nil {
		return nil, report, err
	}
	movies, err := client.Movies(ctx)
	if err != nil {
		return nil, report, err
	}
	report.Collections = len(collections)
	report.LibraryMovies = len(movies)

	byTMDB := make(map[int]radarr.Movie, len(movies))
	for _, movie := range movies {
		byTMDB[movie.TMDBID] = movie
	}

	var out []reconcile.SourceMovie
	for i, collection := range collections {
		for _, member := range collection.Movies {
			report.Members++
			movie, ok := byTMDB[member.TMDBID]
			if !ok {
				report.NotInLibrary++
				logger.DebugContext(ctx, "collection member not in radarr library",
					logging.String("movie_title", member.Title),
					logging.Int("tmdb_id", member.TMDBID),
					logging.String(logging.FieldCollection, collection.Title),
				)
				continue
			}
			path := movie.FilePath()
			if path == "" {
				report.WithoutFile++
				logging.InfoEvent(ctx, logger, "movie has no downloaded file; skipping", "movie_without_file",
					logging.String("movie_title", movie.Title),
					logging.Int("tmdb_id", movie.TMDBID),
					logging.String(logging.FieldCollection, collection.Title),
				)
				continue
			}
			out = append(out, reconcile.SourceMovie{
				Title:          movie.Title,
				Path:           path,
				TMDBID:         movie.TMDBID,
				CollectionID:   collection.ID,
				CollectionName: collection.Title,
			})
		}
		reporter.Report(progress.Event{Phase: progress.PhaseSource, Current: i + 1, Total: len(collections), Message: collection.Title})
	}
	report.CollectedMovies = len(out)

	logger.InfoContext(ctx, "radarr catalog loaded",
		logging.Int("collections", report.Collections),
		logging.Int("library_movies", report.LibraryMovies),
		logging.Int("downloaded_members", report.CollectedMovies),
		logging.Int("members_without_file", report.WithoutFile),
	)
	return out, report, nil
}
