package preflight_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"collectsync/internal/preflight"
	"collectsync/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		passed bool
		detail string
	}{
		{name: "ok", path: dir, passed: true, detail: "read/write ok"},
		{name: "missing", path: filepath.Join(dir, "nope"), detail: "does not exist"},
		{name: "file", path: file, detail: "is not a directory"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := preflight.CheckDirectoryAccess("test", tc.path)
			if result.Passed != tc.passed {
				t.Fatalf("passed = %v, want %v (%s)", result.Passed, tc.passed, result.Detail)
			}
			if !strings.Contains(result.Detail, tc.detail) {
				t.Fatalf("detail %q missing %q", result.Detail, tc.detail)
			}
		})
	}
}

func TestRunAllPassesAgainstFakes(t *testing.T) {
	radarr := testsupport.NewFakeRadarr(t)
	plex := testsupport.NewFakePlex(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServers(radarr, plex))

	results := preflight.RunAll(context.Background(), cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(results), results)
	}
	if !preflight.Passed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
	if results[2].Detail != "Reachable (v5.0.0)" {
		t.Fatalf("unexpected radarr detail %q", results[2].Detail)
	}
	if results[3].Detail != "Reachable (machine fake-machine)" {
		t.Fatalf("unexpected plex detail %q", results[3].Detail)
	}
}

func TestRunAllReportsBadCredentials(t *testing.T) {
	radarr := testsupport.NewFakeRadarr(t)
	plex := testsupport.NewFakePlex(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServers(radarr, plex))
	cfg.Radarr.APIKey = "wrong"
	cfg.Plex.Token = "wrong"

	results := preflight.RunAll(context.Background(), cfg)
	if preflight.Passed(results) {
		t.Fatal("expected failures")
	}
	byName := map[string]preflight.Result{}
	for _, result := range results {
		byName[result.Name] = result
	}
	if got := byName["Radarr"].Detail; got != "auth failed (invalid api key)" {
		t.Fatalf("radarr detail = %q", got)
	}
	if got := byName["Plex"].Detail; got != "auth failed (invalid token)" {
		t.Fatalf("plex detail = %q", got)
	}
	if len(results) != 4 {
		t.Fatalf("library check should be skipped when plex fails, got %+v", results)
	}
}

func TestCheckLibraryUnknown(t *testing.T) {
	plex := testsupport.NewFakePlex(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServers(nil, plex))
	cfg.Plex.Library = "Films"

	result := preflight.CheckLibrary(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected unknown library to fail")
	}
	if !strings.Contains(result.Detail, "Movies") {
		t.Fatalf("expected available libraries in detail, got %q", result.Detail)
	}
}
