package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"collectsync/internal/config"
	"collectsync/internal/services"
	"collectsync/internal/services/plex"
	"collectsync/internal/services/radarr"
)

const checkTimeout = 10 * time.Second

// CheckRadarr verifies that the Radarr API is reachable and the key is valid.
func CheckRadarr(ctx context.Context, cfg *config.Config) Result {
	const name = "Radarr"

	client, err := radarr.New(cfg.Radarr.URL, cfg.Radarr.APIKey, radarr.WithTimeout(checkTimeout))
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	status, err := client.SystemStatus(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	detail := "Reachable"
	if version := strings.TrimSpace(status.Version); version != "" {
		detail = fmt.Sprintf("Reachable (v%s)", version)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckPlex verifies Plex connectivity and authentication.
func CheckPlex(ctx context.Context, cfg *config.Config) Result {
	const name = "Plex"

	client, err := newPlexClient(cfg)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	machineID, err := client.Identity(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (machine %s)", machineID)}
}

// CheckLibrary verifies that the configured library exists on the Plex server.
func CheckLibrary(ctx context.Context, cfg *config.Config) Result {
	name := fmt.Sprintf("Library %q", cfg.Plex.Library)

	client, err := newPlexClient(cfg)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	section, err := client.FindSection(checkCtx, cfg.Plex.Library)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if section.Type != "" && section.Type != "movie" {
		return Result{Name: name, Detail: fmt.Sprintf("section %s is a %s library, not movie", section.Key, section.Type)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Section %s", section.Key)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func newPlexClient(cfg *config.Config) (*plex.Client, error) {
	return plex.New(cfg.Plex.URL, cfg.Plex.Token,
		plex.WithTimeout(checkTimeout),
		plex.WithClientIdentifier(cfg.Plex.ClientIdentifier),
	)
}

func summarizeError(err error) string {
	switch {
	case errors.Is(err, radarr.ErrUnauthorized):
		return "auth failed (invalid api key)"
	case errors.Is(err, plex.ErrUnauthorized):
		return "auth failed (invalid token)"
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, services.ErrConfiguration), errors.Is(err, services.ErrNotFound):
		return err.Error()
	default:
		return fmt.Sprintf("unreachable (%v)", err)
	}
}
