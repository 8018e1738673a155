package config

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRadarr(); err != nil {
		return err
	}
	if err := c.validatePlex(); err != nil {
		return err
	}
	if err := c.validateCollections(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRadarr() error {
	if err := validateURL("radarr.url", c.Radarr.URL); err != nil {
		return err
	}
	if c.Radarr.APIKey == "" {
		return fmt.Errorf("radarr.api_key is required. Set RADARR_API_KEY env var or edit %s (create with 'collectsync config init')", displayConfigPath())
	}
	if c.Radarr.APIKey == placeholderRadarrAPIKey {
		return errors.New("radarr.api_key still holds the sample placeholder; replace it with your Radarr API key")
	}
	return nil
}

func (c *Config) validatePlex() error {
	if err := validateURL("plex.url", c.Plex.URL); err != nil {
		return err
	}
	if c.Plex.Token == "" {
		return fmt.Errorf("plex.token is required. Set PLEX_TOKEN env var or edit %s", displayConfigPath())
	}
	if c.Plex.Token == placeholderPlexToken {
		return errors.New("plex.token still holds the sample placeholder; replace it with your Plex token")
	}
	if c.Plex.Library == "" {
		return errors.New("plex.library must be set")
	}
	if c.Plex.Library == placeholderLibraryName {
		return errors.New("plex.library still holds the sample placeholder; set it to your movie library name")
	}
	return nil
}

func (c *Config) validateCollections() error {
	if c.Collections.MinForCollection < 1 {
		return errors.New("collections.min_for_collection must be >= 1")
	}
	return nil
}

func (c *Config) validateSync() error {
	if err := ensurePositiveMap(map[string]int{
		"sync.concurrency":              c.Sync.Concurrency,
		"sync.request_timeout":          c.Sync.RequestTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Sync.RequestsPerSecond < 0 {
		return errors.New("sync.requests_per_second must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}

func validateURL(key, value string) error {
	if value == "" {
		return fmt.Errorf("%s must be set", key)
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, value)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func displayConfigPath() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return defaultConfigPath
	}
	return path
}
