package plex_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"collectsync/internal/services"
	"collectsync/internal/services/plex"
)

func newClient(t *testing.T, handler http.HandlerFunc) *plex.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := plex.New(server.URL, "plex-token", plex.WithHTTPClient(server.Client()), plex.WithClientIdentifier("client-123"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestRequestsCarryStandardHeaders(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Plex-Token"); got != "plex-token" {
			t.Errorf("token header = %q", got)
		}
		if got := r.Header.Get("X-Plex-Client-Identifier"); got != "client-123" {
			t.Errorf("client identifier = %q", got)
		}
		if got := r.Header.Get("X-Plex-Product"); got != "collectsync" {
			t.Errorf("product = %q", got)
		}
		_, _ = w.Write([]byte(`<MediaContainer machineIdentifier="abc123" version="1.40.0"/>`))
	})
	id, err := client.Identity(context.Background())
	if err != nil || id != "abc123" {
		t.Fatalf("identity = %q, %v", id, err)
	}
}

func TestNewGeneratesClientIdentifier(t *testing.T) {
	client, err := plex.New("http://plex:32400", "token")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if id := client.ClientIdentifier(); len(id) != 32 || strings.Contains(id, "-") {
		t.Fatalf("unexpected generated identifier %q", id)
	}
}

func TestFindSectionIgnoresCase(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<MediaContainer><Directory key="1" title="Movies" type="movie"/><Directory key="2" title="TV Shows" type="show"/></MediaContainer>`))
	})
	section, err := client.FindSection(context.Background(), "movies")
	if err != nil || section.Key != "1" {
		t.Fatalf("section = %+v, %v", section, err)
	}
	_, err = client.FindSection(context.Background(), "Anime")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Movies, TV Shows") {
		t.Fatalf("expected available libraries in error, got %v", err)
	}
}

func TestMoviesAndMetadata(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/library/sections/1/all":
			if r.URL.Query().Get("type") != "1" {
				t.Errorf("expected movie type filter, got %q", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`<MediaContainer size="2">
				<Video ratingKey="100" title="Alien"><Media><Part file="/movies/Alien (1979)/Alien.mkv"/></Media></Video>
				<Video ratingKey="101" title="Aliens"><Media><Part file=""/><Part file="/movies/Aliens (1986)/Aliens.mkv"/></Media></Video>
			</MediaContainer>`))
		case "/library/metadata/100":
			_, _ = w.Write([]byte(`<MediaContainer size="1"><Video ratingKey="100" title="Alien"><Collection tag="Alien Collection"/><Collection tag="Sci-Fi"/></Video></MediaContainer>`))
		default:
			http.NotFound(w, r)
		}
	})

	movies, err := client.Movies(context.Background(), "1")
	if err != nil {
		t.Fatalf("movies: %v", err)
	}
	if len(movies) != 2 || movies[1].FilePath() != "/movies/Aliens (1986)/Aliens.mkv" {
		t.Fatalf("unexpected movies %+v", movies)
	}
	meta, err := client.Metadata(context.Background(), "100")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if names := meta.CollectionNames(); len(names) != 2 || names[0] != "Alien Collection" {
		t.Fatalf("collections = %v", names)
	}
	if _, err := client.Metadata(context.Background(), "999"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCollectionMutations(t *testing.T) {
	var seen []string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		query := r.URL.Query()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/library/collections":
			if query.Get("title") != "Alien Collection" || query.Get("sectionId") != "1" || query.Get("smart") != "0" {
				t.Errorf("unexpected create query %q", r.URL.RawQuery)
			}
			if query.Get("uri") != "server://abc/com.plexapp.plugins.library/library/metadata/100" {
				t.Errorf("unexpected uri %q", query.Get("uri"))
			}
			_, _ = w.Write([]byte(`<MediaContainer size="1"><Directory ratingKey="5000" title="Alien Collection" subtype="movie"/></MediaContainer>`))
		case r.Method == http.MethodPut && r.URL.Path == "/library/collections/5000/items":
			if query.Get("uri") != "server://abc/com.plexapp.plugins.library/library/metadata/101" {
				t.Errorf("unexpected uri %q", query.Get("uri"))
			}
			_, _ = w.Write([]byte(`<MediaContainer size="1"/>`))
		case r.Method == http.MethodDelete && r.URL.Path == "/library/collections/5000":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	id, err := client.CreateCollection(ctx, "1", "abc", "Alien Collection", "100")
	if err != nil || id != "5000" {
		t.Fatalf("create = %q, %v", id, err)
	}
	if err := client.AddToCollection(ctx, "abc", id, "101"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := client.DeleteCollection(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("requests = %v", seen)
	}
}

func TestCreateCollectionWithoutRatingKeyIsParseError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<MediaContainer size="0"/>`))
	})
	_, err := client.CreateCollection(context.Background(), "1", "abc", "Alien Collection", "100")
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestStatusErrorsIncludeBody(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	})
	_, err := client.Sections(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !errors.Is(err, plex.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "token expired") {
		t.Fatalf("expected status and body in error, got %v", err)
	}
}
