package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"collectsync/internal/catalog"
	"collectsync/internal/progress"
	"collectsync/internal/services/plex"
	"collectsync/internal/services/radarr"
)

type fakeRadarr struct {
	collections []radarr.Collection
	movies      []radarr.Movie
	err         error
}

func (f fakeRadarr) Collections(context.Context) ([]radarr.Collection, error) {
	return f.collections, f.err
}

func (f fakeRadarr) Movies(context.Context) ([]radarr.Movie, error) {
	return f.movies, nil
}

func TestLoadSourceJoinsCollectionsWithFiles(t *testing.T) {
	client := fakeRadarr{
		collections: []radarr.Collection{{
			ID: 7, Title: "Alien Collection",
			Movies: []radarr.CollectionMovie{{TMDBID: 348, Title: "Alien"}, {TMDBID: 679, Title: "Aliens"}, {TMDBID: 8077, Title: "Alien 3"}},
		}},
		movies: []radarr.Movie{
			{TMDBID: 348, Title: "Alien", HasFile: true, MovieFile: &radarr.MovieFile{Path: "/m/Alien/Alien.mkv"}},
			{TMDBID: 679, Title: "Aliens"},
		},
	}

	movies, report, err := catalog.LoadSource(context.Background(), client, nil, nil)
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	if len(movies) != 1 || movies[0].Title != "Alien" || movies[0].CollectionName != "Alien Collection" || movies[0].CollectionID != 7 {
		t.Fatalf("unexpected movies %+v", movies)
	}
	if report.Members != 3 || report.WithoutFile != 1 || report.NotInLibrary != 1 || report.CollectedMovies != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestLoadSourcePropagatesErrors(t *testing.T) {
	boom := errors.New("radarr down")
	if _, _, err := catalog.LoadSource(context.Background(), fakeRadarr{err: boom}, nil, nil); !errors.Is(err, boom) {
		t.Fatalf("expected radarr error, got %v", err)
	}
}

type fakePlex struct {
	mu          sync.Mutex
	videos      []plex.Video
	tags        map[string][]string
	collections []plex.Collection
	failMeta    string
	created     []string
	added       []string
	deleted     []string
}

func (f *fakePlex) Identity(context.Context) (string, error) { return "machine-1", nil }

func (f *fakePlex) FindSection(_ context.Context, title string) (plex.Section, error) {
	return plex.Section{Key: "3", Title: title}, nil
}

func (f *fakePlex) Collections(context.Context, string) ([]plex.Collection, error) {
	return f.collections, nil
}

func (f *fakePlex) Movies(context.Context, string) ([]plex.Video, error) { return f.videos, nil }

func (f *fakePlex) Metadata(_ context.Context, ratingKey string) (plex.Video, error) {
	if ratingKey == f.failMeta {
		return plex.Video{}, errors.New("metadata failed")
	}
	video := plex.Video{RatingKey: ratingKey}
	for _, tag := range f.tags[ratingKey] {
		video.Collections = append(video.Collections, plex.Tag{Tag: tag})
	}
	return video, nil
}

func (f *fakePlex) CreateCollection(_ context.Context, sectionKey, machineID, title, ratingKey string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, fmt.Sprintf("%s|%s|%s|%s", sectionKey, machineID, title, ratingKey))
	return "c-1", nil
}

func (f *fakePlex) AddToCollection(_ context.Context, machineID, collectionID, ratingKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, fmt.Sprintf("%s|%s|%s", machineID, collectionID, ratingKey))
	return nil
}

func (f *fakePlex) DeleteCollection(_ context.Context, collectionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, collectionID)
	return nil
}

func video(ratingKey, title, file string) plex.Video {
	return plex.Video{RatingKey: ratingKey, Title: title, Media: []plex.Media{{Parts: []plex.Part{{File: file}}}}}
}

func TestLoadMoviesKeepsLibraryOrder(t *testing.T) {
	api := &fakePlex{tags: map[string][]string{"2": {"Alien Collection"}}}
	for i := 1; i <= 20; i++ {
		api.videos = append(api.videos, video(fmt.Sprint(i), fmt.Sprintf("Movie %d", i), fmt.Sprintf("/m/Movie %d/movie.mkv", i)))
	}
	api.videos = append(api.videos, plex.Video{RatingKey: "99", Title: "No file"})

	var (
		mu     sync.Mutex
		events int
	)
	reporter := progress.ReporterFunc(func(progress.Event) {
		mu.Lock()
		events++
		mu.Unlock()
	})
	library, err := catalog.OpenLibrary(context.Background(), api, "Movies",
		catalog.WithFetchConcurrency(4), catalog.WithRequestsPerSecond(0), catalog.WithReporter(reporter))
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	if library.MachineID() != "machine-1" || library.Section().Key != "3" {
		t.Fatalf("unexpected library %q %+v", library.MachineID(), library.Section())
	}

	movies, err := library.LoadMovies(context.Background())
	if err != nil {
		t.Fatalf("LoadMovies: %v", err)
	}
	if len(movies) != 20 {
		t.Fatalf("expected 20 movies with files, got %d", len(movies))
	}
	for i, movie := range movies {
		if movie.RatingKey != fmt.Sprint(i+1) {
			t.Fatalf("movie %d has rating key %s", i, movie.RatingKey)
		}
	}
	if !movies[1].InCollection("Alien Collection") || movies[0].InCollection("Alien Collection") {
		t.Fatalf("collection tags not attached: %+v %+v", movies[0], movies[1])
	}
	mu.Lock()
	defer mu.Unlock()
	if events < 21 {
		t.Fatalf("expected a progress event per movie, got %d", events)
	}
}

func TestLoadMoviesFailsOnMetadataError(t *testing.T) {
	api := &fakePlex{failMeta: "2", videos: []plex.Video{video("1", "A", "/m/A/a.mkv"), video("2", "B", "/m/B/b.mkv")}}
	library, err := catalog.OpenLibrary(context.Background(), api, "Movies", catalog.WithFetchConcurrency(2))
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	if _, err := library.LoadMovies(context.Background()); err == nil {
		t.Fatal("expected metadata error")
	}
}

func TestLoadRegistryKeepsFirstDuplicate(t *testing.T) {
	api := &fakePlex{collections: []plex.Collection{
		{RatingKey: "10", Title: "Alien Collection"},
		{RatingKey: "11", Title: "Alien Collection"},
		{RatingKey: "12", Title: "Heat"},
	}}
	library, err := catalog.OpenLibrary(context.Background(), api, "Movies")
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	registry, err := library.LoadRegistry(context.Background())
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if id, _ := registry.Lookup("Alien Collection"); id != "10" || registry.Len() != 2 {
		t.Fatalf("unexpected registry %+v", registry.Collections())
	}
}

func TestLibraryMutationsUseSectionAndMachine(t *testing.T) {
	api := &fakePlex{}
	library, err := catalog.OpenLibrary(context.Background(), api, "Movies")
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	ctx := context.Background()
	id, err := library.CreateCollection(ctx, "Alien Collection", targetMovie("100"))
	if err != nil || id != "c-1" {
		t.Fatalf("create = %q, %v", id, err)
	}
	if err := library.AddToCollection(ctx, id, targetMovie("101")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := library.DeleteCollection(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if api.created[0] != "3|machine-1|Alien Collection|100" || api.added[0] != "machine-1|c-1|101" || api.deleted[0] != "c-1" {
		t.Fatalf("unexpected calls %v %v %v", api.created, api.added, api.deleted)
	}
}
