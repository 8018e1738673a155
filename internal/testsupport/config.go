package testsupport

import (
	"path/filepath"
	"testing"

	"collectsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Radarr = config.Radarr{URL: "http://127.0.0.1:7878", APIKey: "test-radarr"}
	cfgVal.Plex = config.Plex{URL: "http://127.0.0.1:32400", Token: "test-plex", Library: "Movies", ClientIdentifier: "collectsync-test"}
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Sync.RequestsPerSecond = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRadarrURL points the config at a Radarr server.
func WithRadarrURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Radarr.URL = url
	}
}

// WithPlexURL points the config at a Plex server.
func WithPlexURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Plex.URL = url
	}
}

// WithServers points the config at the fake Radarr and Plex servers.
func WithServers(radarr *FakeRadarr, plex *FakePlex) ConfigOption {
	return func(b *configBuilder) {
		if radarr != nil {
			b.cfg.Radarr.URL = radarr.URL
			b.cfg.Radarr.APIKey = radarr.APIKey
		}
		if plex != nil {
			b.cfg.Plex.URL = plex.URL
			b.cfg.Plex.Token = plex.Token
		}
	}
}

// WithMinForCollection sets the collection membership threshold.
func WithMinForCollection(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Collections.MinForCollection = n
	}
}

// WithExclusions sets the excluded collection names.
func WithExclusions(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Collections.Exclusions = names
	}
}

// WithDeleteExisting enables the reset pass.
func WithDeleteExisting() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Collections.DeleteExisting = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
