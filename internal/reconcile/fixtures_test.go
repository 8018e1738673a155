package reconcile_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"collectsync/internal/reconcile"
)

const alienCollection = "Alien Collection"

var alienTitles = []string{"Alien", "Aliens", "Alien 3", "Alien Resurrection"}

func alienSource() []reconcile.SourceMovie {
	movies := make([]reconcile.SourceMovie, 0, len(alienTitles))
	for i, title := range alienTitles {
		movies = append(movies, reconcile.SourceMovie{
			Title:          title,
			Path:           fmt.Sprintf("/data/movies/%s/%s.mkv", title, title),
			TMDBID:         348 + i,
			CollectionID:   8091,
			CollectionName: alienCollection,
		})
	}
	return movies
}

func alienTarget(collections ...string) []reconcile.TargetMovie {
	movies := make([]reconcile.TargetMovie, 0, len(alienTitles))
	for i, title := range alienTitles {
		movies = append(movies, reconcile.TargetMovie{
			RatingKey:   fmt.Sprintf("%d", 100+i),
			Title:       title,
			Path:        fmt.Sprintf(`\\plex\Movies\%s\%s.mkv`, title, title),
			Collections: collections,
		})
	}
	return movies
}

type targetCall struct {
	op           string
	collection   string
	collectionID string
	ratingKey    string
}

type fakeTarget struct {
	mu       sync.Mutex
	calls    []targetCall
	created  int
	failAdd  string
	failWith error
}

func (f *fakeTarget) CreateCollection(_ context.Context, name string, seed reconcile.TargetMovie) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	id := fmt.Sprintf("coll-%d", f.created)
	f.calls = append(f.calls, targetCall{op: "create", collection: name, collectionID: id, ratingKey: seed.RatingKey})
	return id, nil
}

func (f *fakeTarget) AddToCollection(_ context.Context, collectionID string, movie reconcile.TargetMovie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdd != "" && movie.RatingKey == f.failAdd {
		if f.failWith == nil {
			return errors.New("add failed")
		}
		return f.failWith
	}
	f.calls = append(f.calls, targetCall{op: "add", collectionID: collectionID, ratingKey: movie.RatingKey})
	return nil
}

func (f *fakeTarget) snapshot() []targetCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]targetCall, len(f.calls))
	copy(out, f.calls)
	return out
}
