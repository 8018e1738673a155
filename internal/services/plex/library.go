package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"collectsync/internal/services"
)

const (
	movieType       = "1"
	defaultPageSize = 500
)

// Identity returns the server machine identifier.
func (c *Client) Identity(ctx context.Context) (string, error) {
	var container MediaContainer
	if err := c.do(ctx, http.MethodGet, "identity", "/identity", nil, &container); err != nil {
		return "", err
	}
	id := strings.TrimSpace(container.MachineIdentifier)
	if id == "" {
		return "", services.Wrap(services.ErrParse, "plex", "identity", "response missing machineIdentifier", nil)
	}
	return id, nil
}

// Sections lists the library sections on the server.
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	var container MediaContainer
	if err := c.do(ctx, http.MethodGet, "list sections", "/library/sections", nil, &container); err != nil {
		return nil, err
	}
	sections := make([]Section, 0, len(container.Directories))
	for _, dir := range container.Directories {
		if dir.Key == "" || dir.Title == "" {
			continue
		}
		sections = append(sections, Section{Key: dir.Key, Title: dir.Title, Type: dir.Type})
	}
	return sections, nil
}

// FindSection resolves a library by title, ignoring case. An unknown title is
// a configuration error naming the libraries that do exist.
func (c *Client) FindSection(ctx context.Context, title string) (Section, error) {
	sections, err := c.Sections(ctx)
	if err != nil {
		return Section{}, err
	}
	wanted := strings.TrimSpace(title)
	for _, section := range sections {
		if strings.EqualFold(section.Title, wanted) {
			return section, nil
		}
	}
	names := make([]string, 0, len(sections))
	for _, section := range sections {
		names = append(names, section.Title)
	}
	sort.Strings(names)
	return Section{}, services.Wrap(services.ErrConfiguration, "plex", "find library",
		fmt.Sprintf("library %q not found (available: %s)", wanted, strings.Join(names, ", ")), nil)
}

// Collections lists the collections in a section.
func (c *Client) Collections(ctx context.Context, sectionKey string) ([]Collection, error) {
	var container MediaContainer
	path := "/library/sections/" + url.PathEscape(sectionKey) + "/collections"
	if err := c.do(ctx, http.MethodGet, "list collections", path, nil, &container); err != nil {
		return nil, err
	}
	collections := make([]Collection, 0, len(container.Directories))
	for _, dir := range container.Directories {
		if dir.RatingKey == "" || dir.Title == "" {
			continue
		}
		collections = append(collections, Collection{RatingKey: dir.RatingKey, Title: dir.Title})
	}
	return collections, nil
}

// Movies lists every movie in a section, paging through the library.
func (c *Client) Movies(ctx context.Context, sectionKey string) ([]Video, error) {
	path := "/library/sections/" + url.PathEscape(sectionKey) + "/all"
	var movies []Video
	for start := 0; ; start += defaultPageSize {
		params := url.Values{}
		params.Set("type", movieType)
		params.Set("X-Plex-Container-Start", strconv.Itoa(start))
		params.Set("X-Plex-Container-Size", strconv.Itoa(defaultPageSize))
		var container MediaContainer
		if err := c.do(ctx, http.MethodGet, "list movies", path, params, &container); err != nil {
			return nil, err
		}
		movies = append(movies, container.Videos...)
		if len(container.Videos) < defaultPageSize {
			return movies, nil
		}
		if container.TotalSize > 0 && len(movies) >= container.TotalSize {
			return movies, nil
		}
	}
}

// Metadata returns the full metadata for one item, including collection tags.
func (c *Client) Metadata(ctx context.Context, ratingKey string) (Video, error) {
	var container MediaContainer
	path := "/library/metadata/" + url.PathEscape(ratingKey)
	if err := c.do(ctx, http.MethodGet, "fetch metadata", path, nil, &container); err != nil {
		return Video{}, err
	}
	if len(container.Videos) == 0 {
		return Video{}, services.Wrap(services.ErrNotFound, "plex", "fetch metadata", "no video for rating key "+ratingKey, nil)
	}
	return container.Videos[0], nil
}
