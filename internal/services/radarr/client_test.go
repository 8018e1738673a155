package radarr_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"collectsync/internal/services"
	"collectsync/internal/services/radarr"
)

func newServer(t *testing.T, handler http.HandlerFunc) *radarr.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := radarr.New(server.URL+"/", "secret", radarr.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestCollectionsSendsKeyAndDecodes(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/collection" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("api key header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":7,"title":"Alien Collection","tmdbId":8091,"movies":[{"tmdbId":348,"title":"Alien"},{"tmdbId":679,"title":"Aliens"}]}]`))
	})

	collections, err := client.Collections(context.Background())
	if err != nil {
		t.Fatalf("Collections: %v", err)
	}
	if len(collections) != 1 || collections[0].Title != "Alien Collection" || len(collections[0].Movies) != 2 {
		t.Fatalf("unexpected collections %+v", collections)
	}
	if collections[0].Movies[1].TMDBID != 679 {
		t.Fatalf("unexpected member %+v", collections[0].Movies[1])
	}
}

func TestMoviesFilePath(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":1,"tmdbId":348,"title":"Alien","hasFile":true,"movieFile":{"path":"/movies/Alien (1979)/Alien.mkv"}},
			{"id":2,"tmdbId":679,"title":"Aliens","hasFile":false}
		]`))
	})

	movies, err := client.Movies(context.Background())
	if err != nil {
		t.Fatalf("Movies: %v", err)
	}
	if movies[0].FilePath() != "/movies/Alien (1979)/Alien.mkv" {
		t.Fatalf("file path = %q", movies[0].FilePath())
	}
	if movies[1].FilePath() != "" {
		t.Fatalf("expected empty path for movie without file, got %q", movies[1].FilePath())
	}
}

func TestMovieByTMDBID(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tmdbId") == "348" {
			_, _ = w.Write([]byte(`[{"id":1,"tmdbId":348,"title":"Alien"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	movie, err := client.MovieByTMDBID(context.Background(), 348)
	if err != nil || movie.Title != "Alien" {
		t.Fatalf("lookup = %+v, %v", movie, err)
	}
	if _, err := client.MovieByTMDBID(context.Background(), 1); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusErrorsAreClassified(t *testing.T) {
	tests := []struct {
		status   int
		category string
	}{
		{http.StatusUnauthorized, services.CategoryConfiguration},
		{http.StatusInternalServerError, services.CategoryTransport},
	}
	for _, tt := range tests {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		})
		_, err := client.SystemStatus(context.Background())
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if got := services.Classify(err); got != tt.category {
			t.Fatalf("status %d: category = %q, want %q (%v)", tt.status, got, tt.category, err)
		}
	}
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})
	if _, err := client.Movies(context.Background()); !errors.Is(err, radarr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestMalformedJSONIsParseError(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"appName":`))
	})
	if _, err := client.SystemStatus(context.Background()); !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := radarr.New("http://radarr", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := radarr.New(" ", "key"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
