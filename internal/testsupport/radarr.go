package testsupport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"collectsync/internal/services/radarr"
)

// FakeRadarr serves a fixed Radarr catalog.
type FakeRadarr struct {
	*httptest.Server
	APIKey      string
	Collections []radarr.Collection
	Movies      []radarr.Movie
}

// NewFakeRadarr starts a Radarr server and closes it when the test ends.
func NewFakeRadarr(t testing.TB) *FakeRadarr {
	t.Helper()
	f := &FakeRadarr{APIKey: "fake-radarr-key"}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/collection", func(w http.ResponseWriter, r *http.Request) {
		f.writeJSON(w, r, f.Collections)
	})
	mux.HandleFunc("GET /api/v3/movie", func(w http.ResponseWriter, r *http.Request) {
		f.writeJSON(w, r, f.Movies)
	})
	mux.HandleFunc("GET /api/v3/system/status", func(w http.ResponseWriter, r *http.Request) {
		f.writeJSON(w, r, radarr.SystemStatus{AppName: "Radarr", Version: "5.0.0"})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// AddCollection registers a collection and its members. Members with a
// non-empty path are added to the library with that file.
func (f *FakeRadarr) AddCollection(id int, title string, members ...radarr.Movie) {
	collection := radarr.Collection{ID: id, Title: title}
	for _, movie := range members {
		collection.Movies = append(collection.Movies, radarr.CollectionMovie{TMDBID: movie.TMDBID, Title: movie.Title})
		f.Movies = append(f.Movies, movie)
	}
	f.Collections = append(f.Collections, collection)
}

func (f *FakeRadarr) writeJSON(w http.ResponseWriter, r *http.Request, payload any) {
	if r.Header.Get("X-Api-Key") != f.APIKey {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// DownloadedMovie builds a Radarr movie with a file.
func DownloadedMovie(tmdbID int, title, path string) radarr.Movie {
	return radarr.Movie{TMDBID: tmdbID, Title: title, HasFile: true, MovieFile: &radarr.MovieFile{Path: path}}
}
