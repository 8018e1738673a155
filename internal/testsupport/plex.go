package testsupport

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"collectsync/internal/services/plex"
)

const fakeSectionKey = "1"

// FakePlexMovie is a movie in the fake library.
type FakePlexMovie struct {
	RatingKey string
	Title     string
	File      string
}

type fakeCollection struct {
	id      string
	title   string
	members []string
}

// FakePlex is an in-memory Plex server with one movie library. It records
// every mutating request.
type FakePlex struct {
	*httptest.Server
	Token     string
	MachineID string
	Library   string

	mu          sync.Mutex
	movies      []FakePlexMovie
	collections []*fakeCollection
	nextID      int
	mutations   []string
	failOn      string
}

// NewFakePlex starts a Plex server and closes it when the test ends.
func NewFakePlex(t testing.TB) *FakePlex {
	t.Helper()
	f := &FakePlex{Token: "fake-plex-token", MachineID: "fake-machine", Library: "Movies", nextID: 5000}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /identity", f.authorized(f.handleIdentity))
	mux.HandleFunc("GET /library/sections", f.authorized(f.handleSections))
	mux.HandleFunc("GET /library/sections/{key}/collections", f.authorized(f.handleCollections))
	mux.HandleFunc("GET /library/sections/{key}/all", f.authorized(f.handleMovies))
	mux.HandleFunc("GET /library/metadata/{ratingKey}", f.authorized(f.handleMetadata))
	mux.HandleFunc("POST /library/collections", f.authorized(f.handleCreate))
	mux.HandleFunc("PUT /library/collections/{id}/items", f.authorized(f.handleAdd))
	mux.HandleFunc("DELETE /library/collections/{id}", f.authorized(f.handleDelete))
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// AddMovie adds a movie to the library.
func (f *FakePlex) AddMovie(ratingKey, title, file string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies = append(f.movies, FakePlexMovie{RatingKey: ratingKey, Title: title, File: file})
}

// SeedCollection creates a collection without recording a mutation and
// returns its id.
func (f *FakePlex) SeedCollection(title string, ratingKeys ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createLocked(title, ratingKeys...)
}

// FailOn makes requests whose "METHOD path" starts with prefix fail with 500.
func (f *FakePlex) FailOn(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn = prefix
}

// Mutations returns the recorded "METHOD detail" mutation log.
func (f *FakePlex) Mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.mutations)
}

// CollectionMembers returns the rating keys in the named collection.
func (f *FakePlex) CollectionMembers(title string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.collections {
		if c.title == title {
			return slices.Clone(c.members)
		}
	}
	return nil
}

// CollectionTitles returns every collection title in creation order.
func (f *FakePlex) CollectionTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	titles := make([]string, 0, len(f.collections))
	for _, c := range f.collections {
		titles = append(titles, c.title)
	}
	return titles
}

func (f *FakePlex) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Plex-Token") != f.Token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		failOn := f.failOn
		f.mu.Unlock()
		if failOn != "" && strings.HasPrefix(r.Method+" "+r.URL.Path, failOn) {
			http.Error(w, "simulated failure", http.StatusInternalServerError)
			return
		}
		next(w, r)
	}
}

func (f *FakePlex) handleIdentity(w http.ResponseWriter, _ *http.Request) {
	writeXML(w, plex.MediaContainer{MachineIdentifier: f.MachineID, Version: "1.40.0"})
}

func (f *FakePlex) handleSections(w http.ResponseWriter, _ *http.Request) {
	writeXML(w, plex.MediaContainer{Size: 1, Directories: []plex.Directory{
		{Key: fakeSectionKey, Title: f.Library, Type: "movie"},
	}})
}

func (f *FakePlex) handleCollections(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("key") != fakeSectionKey {
		http.NotFound(w, r)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	container := plex.MediaContainer{Size: len(f.collections)}
	for _, c := range f.collections {
		container.Directories = append(container.Directories, plex.Directory{RatingKey: c.id, Title: c.title, Type: "collection", Subtype: "movie"})
	}
	writeXML(w, container)
}

func (f *FakePlex) handleMovies(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("key") != fakeSectionKey {
		http.NotFound(w, r)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	start, _ := strconv.Atoi(r.URL.Query().Get("X-Plex-Container-Start"))
	size, _ := strconv.Atoi(r.URL.Query().Get("X-Plex-Container-Size"))
	movies := f.movies
	if start > len(movies) {
		start = len(movies)
	}
	movies = movies[start:]
	if size > 0 && size < len(movies) {
		movies = movies[:size]
	}
	container := plex.MediaContainer{Size: len(movies), TotalSize: len(f.movies)}
	for _, m := range movies {
		container.Videos = append(container.Videos, f.videoLocked(m, false))
	}
	writeXML(w, container)
}

func (f *FakePlex) handleMetadata(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ratingKey := r.PathValue("ratingKey")
	for _, m := range f.movies {
		if m.RatingKey == ratingKey {
			writeXML(w, plex.MediaContainer{Size: 1, Videos: []plex.Video{f.videoLocked(m, true)}})
			return
		}
	}
	http.NotFound(w, r)
}

func (f *FakePlex) handleCreate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	title := query.Get("title")
	ratingKey, ok := f.ratingKeyFromURI(query.Get("uri"))
	if title == "" || !ok || query.Get("sectionId") != fakeSectionKey {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	id := f.createLocked(title, ratingKey)
	f.mutations = append(f.mutations, "POST "+title+" "+ratingKey)
	f.mu.Unlock()
	writeXML(w, plex.MediaContainer{Size: 1, Directories: []plex.Directory{{RatingKey: id, Title: title, Type: "collection", Subtype: "movie"}}})
}

func (f *FakePlex) handleAdd(w http.ResponseWriter, r *http.Request) {
	ratingKey, ok := f.ratingKeyFromURI(r.URL.Query().Get("uri"))
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	collection := f.findLocked(r.PathValue("id"))
	if collection == nil {
		http.NotFound(w, r)
		return
	}
	if !slices.Contains(collection.members, ratingKey) {
		collection.members = append(collection.members, ratingKey)
	}
	f.mutations = append(f.mutations, "PUT "+collection.id+" "+ratingKey)
	writeXML(w, plex.MediaContainer{Size: 1})
}

func (f *FakePlex) handleDelete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := r.PathValue("id")
	for i, c := range f.collections {
		if c.id == id {
			f.collections = append(f.collections[:i], f.collections[i+1:]...)
			f.mutations = append(f.mutations, "DELETE "+id)
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	http.NotFound(w, r)
}

func (f *FakePlex) createLocked(title string, ratingKeys ...string) string {
	id := strconv.Itoa(f.nextID)
	f.nextID++
	f.collections = append(f.collections, &fakeCollection{id: id, title: title, members: slices.Clone(ratingKeys)})
	return id
}

func (f *FakePlex) findLocked(id string) *fakeCollection {
	for _, c := range f.collections {
		if c.id == id {
			return c
		}
	}
	return nil
}

func (f *FakePlex) videoLocked(m FakePlexMovie, withTags bool) plex.Video {
	video := plex.Video{RatingKey: m.RatingKey, Key: "/library/metadata/" + m.RatingKey, Title: m.Title}
	if m.File != "" {
		video.Media = []plex.Media{{Parts: []plex.Part{{File: m.File}}}}
	}
	if withTags {
		for _, c := range f.collections {
			if slices.Contains(c.members, m.RatingKey) {
				video.Collections = append(video.Collections, plex.Tag{Tag: c.title})
			}
		}
	}
	return video
}

func (f *FakePlex) ratingKeyFromURI(uri string) (string, bool) {
	prefix := "server://" + f.MachineID + "/com.plexapp.plugins.library/library/metadata/"
	if !strings.HasPrefix(uri, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(uri, prefix)
	return key, key != ""
}

func writeXML(w http.ResponseWriter, container plex.MediaContainer) {
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(container)
}
