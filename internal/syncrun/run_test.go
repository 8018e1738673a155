package syncrun_test

import (
	"context"
	"errors"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"collectsync/internal/config"
	"collectsync/internal/history"
	"collectsync/internal/notifications"
	"collectsync/internal/services"
	"collectsync/internal/services/radarr"
	"collectsync/internal/syncrun"
	"collectsync/internal/testsupport"
)

var alienTitles = []string{"Alien (1979)", "Aliens (1986)", "Alien 3 (1992)", "Alien Resurrection (1997)"}

type recordingNotifier struct {
	mu        sync.Mutex
	completed []notifications.SyncSummary
	failed    []string
}

func (n *recordingNotifier) NotifySyncCompleted(_ context.Context, summary notifications.SyncSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, summary)
	return nil
}

func (n *recordingNotifier) NotifySyncFailed(_ context.Context, category, _ string, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, category)
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

// newAlienServers stocks both servers with the four Alien films. Radarr and
// Plex mount the same files under different roots.
func newAlienServers(t *testing.T) (*testsupport.FakeRadarr, *testsupport.FakePlex) {
	t.Helper()
	radarrSrv := testsupport.NewFakeRadarr(t)
	plexSrv := testsupport.NewFakePlex(t)
	members := make([]radarr.Movie, 0, len(alienTitles))
	for i, title := range alienTitles {
		members = append(members, testsupport.DownloadedMovie(348+i, title, "/data/movies/"+title+"/"+title+".mkv"))
		plexSrv.AddMovie(strconv.Itoa(100+i), title, "/media/Movies/"+title+"/"+title+".mkv")
	}
	radarrSrv.AddCollection(8091, "Alien Collection", members...)
	return radarrSrv, plexSrv
}

func runSync(t *testing.T, cfg *config.Config, opts syncrun.Options) (*syncrun.Summary, error) {
	t.Helper()
	return syncrun.Run(context.Background(), cfg, opts)
}

func TestRunCreatesCollectionThenAdds(t *testing.T) {
	radarrSrv, plexSrv := newAlienServers(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServers(radarrSrv, plexSrv))
	notifier := &recordingNotifier{}

	summary, err := runSync(t, cfg, syncrun.Options{Notifier: notifier})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"POST Alien Collection 100",
		"PUT 5000 101",
		"PUT 5000 102",
		"PUT 5000 103",
	}
	if got := plexSrv.Mutations(); !slices.Equal(got, want) {
		t.Fatalf("mutations = %v, want %v", got, want)
	}
	if got := plexSrv.CollectionMembers("Alien Collection"); !slices.Equal(got, []string{"100", "101", "102", "103"}) {
		t.Fatalf("members = %v", got)
	}

	counts := summary.Counts()
	if counts.Create != 1 || counts.Add != 3 || counts.Noop != 0 || counts.Unmatched != 0 {
		t.Fatalf("unexpected counts %+v", counts)
	}
	if summary.Library != "Movies" || summary.TargetMovies != 4 || summary.Groups != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	store := testsupport.MustOpenHistory(t, cfg)
	run, err := store.GetRun(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != history.StatusSucceeded || run.Counts.Created != 1 || run.Counts.Added != 3 {
		t.Fatalf("unexpected run record %+v", run)
	}
	recorded, err := store.Mutations(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("Mutations: %v", err)
	}
	if len(recorded) != 4 || recorded[0].Kind != "create" || recorded[1].CollectionID != "5000" {
		t.Fatalf("unexpected recorded mutations %+v", recorded)
	}

	if _, err := os.Stat(summary.LogPath); err != nil {
		t.Fatalf("run log missing: %v", err)
	}
	if len(notifier.completed) != 1 || notifier.completed[0].Created != 1 || notifier.completed[0].Added != 3 {
		t.Fatalf("unexpected completion notifications %+v", notifier.completed)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	radarrSrv, plexSrv := newAlienServers(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServers(radarrSrv, plexSrv))

	if _, err := runSync(t, cfg, syncrun.Options{Notifier: &recordingNotifier{}}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before := len(plexSrv.Mutations())

	summary, err := runSync(t, cfg, syncrun.Options{Notifier: &recordingNotifier{}})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if after := len(plexSrv.Mutations()); after != before {
		t.Fatalf("second run mutated plex: %d -> %d", before, after)
	}
	if counts := summary.Counts(); counts.Noop != 4 || counts.Mutations() != 0 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestRunDryRunAppliesNothing(t *testing.T) {
	radarrSrv, plexSrv := newAlienServers(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServers(radarrSrv, plexSrv))

	summary, err := runSync(t, cfg, syncrun.Options{DryRun: true, Notifier: &recordingNotifier{}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := plexSrv.Mutations(); len(got) != 0 {
		t.Fatalf("dry run mutated plex: %v", got)
	}
	if counts := summary.Counts(); counts.Create != 1 || counts.Add != 3 {
		t.Fatalf("unexpected planned counts %+v", counts)
	}
	if len(summary.Result.Outcomes) != 0 {
		t.Fatalf("dry run should not apply, got %d outcomes", len(summary.Result.Outcomes))
	}

	store := testsupport.MustOpenHistory(t, cfg)
	run, err := store.GetRun(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !run.DryRun || run.Counts.Created != 1 {
		t.Fatalf("unexpected dry run record %+v", run)
	}
}

func TestRunRespectsThresholdAndExclusions(t *testing.T) {
	tests := []struct {
		name string
		opts []testsupport.ConfigOption
	}{
		{name: "threshold", opts: []testsupport.ConfigOption{testsupport.WithMinForCollection(5)}},
		{name: "excluded", opts: []testsupport.ConfigOption{testsupport.WithExclusions("Alien Collection")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			radarrSrv, plexSrv := newAlienServers(t)
			opts := append([]testsupport.ConfigOption{testsupport.WithServers(radarrSrv, plexSrv)}, tc.opts...)
			cfg := testsupport.NewConfig(t, opts...)

			summary, err := runSync(t, cfg, syncrun.Options{Notifier: &recordingNotifier{}})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := plexSrv.Mutations(); len(got) != 0 {
				t.Fatalf("expected no mutations, got %v", got)
			}
			if summary.Groups != 0 {
				t.Fatalf("expected no groups, got %d", summary.Groups)
			}
		})
	}
}

func TestRunCountsUnmatchedMovies(t *testing.T) {
	radarrSrv, plexSrv := newAlienServers(t)
	radarrSrv.AddCollection(10, "Toy Story Collection",
		testsupport.DownloadedMovie(862, "Toy Story (1995)", "/data/movies/Toy Story (1995)/Toy Story (1995).mkv"),
		testsupport.DownloadedMovie(863, "Toy Story 2 (1999)", "/data/movies/Toy Story 2 (1999)/Toy Story 2 (1999).mkv"),
	)
	plexSrv.AddMovie("200", "Toy Story (1995)", "/media/Movies/Toy Story (1995)/Toy Story (1995).mkv")
	cfg := testsupport.NewConfig(t, testsupport.WithServers(radarrSrv, plexSrv))

	summary, err := runSync(t, cfg, syncrun.Options{Notifier: &recordingNotifier{}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if counts := summary.Counts(); counts.Create != 2 || counts.Add != 3 || counts.Unmatched != 1 {
		t.Fatalf("unexpected counts %+v", counts)
	}
	if got := plexSrv.CollectionMembers("Toy Story Collection"); !slices.Equal(got, []string{"200"}) {
		t.Fatalf("toy story members = %v", got)
	}
}

func TestRunDeletesExistingCollectionsFirst(t *testing.T) {
	radarrSrv, plexSrv := newAlienServers(t)
	oldID := plexSrv.SeedCollection("Old Collection", "100")
	cfg := testsupport.NewConfig(t, testsupport.WithServers(radarrSrv, plexSrv), testsupport.WithDeleteExisting())

	summary, err := runSync(t, cfg, syncrun.Options{Notifier: &recordingNotifier{}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	mutations := plexSrv.Mutations()
	if len(mutations) == 0 || mutations[0] != "DELETE "+oldID {
		t.Fatalf("expected delete first, got %v", mutations)
	}
	if summary.Deleted != 1 {
		t.Fatalf("deleted = %d, want 1", summary.Deleted)
	}
	if got := plexSrv.CollectionTitles(); !slices.Equal(got, []string{"Alien Collection"}) {
		t.Fatalf("collections = %v", got)
	}
}

func TestRunDryRunPlansAsIfReset(t *testing.T) {
	radarrSrv, plexSrv := newAlienServers(t)
	plexSrv.SeedCollection("Alien Collection", "100", "101", "102", "103")
	cfg := testsupport.NewConfig(t, testsupport.WithServers(radarrSrv, plexSrv), testsupport.WithDeleteExisting())

	summary, err := runSync(t, cfg, syncrun.Options{DryRun: true, Notifier: &recordingNotifier{}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := plexSrv.Mutations(); len(got) != 0 {
		t.Fatalf("dry run mutated plex: %v", got)
	}
	if summary.Deleted != 1 {
		t.Fatalf("planned deletes = %d, want 1", summary.Deleted)
	}
	if counts := summary.Counts(); counts.Create != 1 || counts.Add != 3 {
		t.Fatalf("unexpected planned counts %+v", counts)
	}
}

func TestRunFailureKeepsAppliedMutations(t *testing.T) {
	radarrSrv, plexSrv := newAlienServers(t)
	plexSrv.FailOn("PUT ")
	cfg := testsupport.NewConfig(t, testsupport.WithServers(radarrSrv, plexSrv))
	notifier := &recordingNotifier{}

	summary, err := runSync(t, cfg, syncrun.Options{Notifier: notifier})
	var runErr *syncrun.RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected RunError, got %v", err)
	}
	if runErr.Category != services.CategoryTransport {
		t.Fatalf("category = %q, want transport", runErr.Category)
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport marker, got %v", err)
	}
	if summary == nil || len(summary.Result.Outcomes) != 1 {
		t.Fatalf("expected the create outcome to survive, got %+v", summary)
	}

	store := testsupport.MustOpenHistory(t, cfg)
	run, err := store.GetRun(context.Background(), runErr.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != history.StatusFailed || run.FailureCategory != services.CategoryTransport {
		t.Fatalf("unexpected failed run %+v", run)
	}
	recorded, err := store.Mutations(context.Background(), runErr.RunID)
	if err != nil {
		t.Fatalf("Mutations: %v", err)
	}
	if len(recorded) != 1 || recorded[0].Kind != "create" {
		t.Fatalf("unexpected recorded mutations %+v", recorded)
	}

	data, err := os.ReadFile(runErr.LogPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(data), "sync failed") {
		t.Fatalf("run log missing failure line:\n%s", data)
	}
	if !slices.Equal(notifier.failed, []string{services.CategoryTransport}) {
		t.Fatalf("unexpected failure notifications %v", notifier.failed)
	}
}

func TestRunClassifiesBadCredentials(t *testing.T) {
	radarrSrv, plexSrv := newAlienServers(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServers(radarrSrv, plexSrv))
	cfg.Plex.Token = "wrong"

	_, err := runSync(t, cfg, syncrun.Options{Notifier: &recordingNotifier{}})
	var runErr *syncrun.RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected RunError, got %v", err)
	}
	if runErr.Category != services.CategoryConfiguration {
		t.Fatalf("category = %q, want configuration", runErr.Category)
	}
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	radarrSrv, plexSrv := newAlienServers(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServers(radarrSrv, plexSrv))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	held := flock.New(cfg.LockPath())
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer held.Unlock()

	_, err := runSync(t, cfg, syncrun.Options{Notifier: &recordingNotifier{}})
	if !errors.Is(err, syncrun.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if got := plexSrv.Mutations(); len(got) != 0 {
		t.Fatalf("locked run mutated plex: %v", got)
	}
}
