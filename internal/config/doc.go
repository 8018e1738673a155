// Package config loads, normalizes, and validates collectsync configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a .env file sitting next to the config
// file, and honours environment fallbacks such as RADARR_API_KEY and
// PLEX_TOKEN. Sample placeholder values are rejected so a freshly generated
// config never reaches Radarr or Plex.
//
// Always obtain settings through this package so downstream code receives
// trimmed URLs, expanded directories, and clear validation errors.
package config
