package reconcile_test

import (
	"testing"

	"collectsync/internal/reconcile"
)

func TestIdentityKey(t *testing.T) {
	tests := []struct {
		name string
		path string
		want reconcile.Key
	}{
		{name: "posix", path: "/movies/Alien (1979)/Alien (1979).mkv", want: "alien (1979)/alien (1979).mkv"},
		{name: "windows drive", path: `D:\Media\Movies\Alien (1979)\Alien (1979).mkv`, want: "alien (1979)/alien (1979).mkv"},
		{name: "unc share", path: `\\nas\share\Alien (1979)\Alien (1979).mkv`, want: "alien (1979)/alien (1979).mkv"},
		{name: "mixed separators", path: `/mnt/media\Alien (1979)/Alien (1979).mkv`, want: "alien (1979)/alien (1979).mkv"},
		{name: "bare file", path: "Alien.mkv", want: "alien.mkv"},
		{name: "root file", path: "/Alien.mkv", want: "alien.mkv"},
		{name: "single parent", path: "Aliens (1986)/Aliens.mkv", want: "aliens (1986)/aliens.mkv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reconcile.IdentityKey(tt.path); got != tt.want {
				t.Fatalf("IdentityKey(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIdentityKeyIgnoresMountDifferences(t *testing.T) {
	radarr := reconcile.IdentityKey("/data/movies/Heat (1995)/Heat (1995) Bluray-1080p.mkv")
	plex := reconcile.IdentityKey(`\\tower\movies\Heat (1995)\HEAT (1995) BLURAY-1080P.MKV`)
	if radarr != plex {
		t.Fatalf("expected equal keys, got %q and %q", radarr, plex)
	}
}

func TestIdentityKeyNormalizesUnicode(t *testing.T) {
	composed := reconcile.IdentityKey("/movies/AMÉLIE (2001)/Amélie.mkv")
	decomposed := reconcile.IdentityKey("/other/Ame\u0301lie (2001)/AME\u0301LIE.mkv")
	if composed != decomposed {
		t.Fatalf("expected equal keys, got %q and %q", composed, decomposed)
	}
}

func TestIdentityKeyDistinguishesFolders(t *testing.T) {
	a := reconcile.IdentityKey("/movies/Dune (1984)/movie.mkv")
	b := reconcile.IdentityKey("/movies/Dune (2021)/movie.mkv")
	if a == b {
		t.Fatalf("expected different keys for different folders, both %q", a)
	}
}
