package plex

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"collectsync/internal/services"
)

// ItemURI builds the library URI Plex expects when attaching items to a
// collection.
func ItemURI(machineID, ratingKey string) string {
	return "server://" + machineID + "/com.plexapp.plugins.library/library/metadata/" + ratingKey
}

// CreateCollection creates a regular collection in a section seeded with one
// item and returns the new collection's rating key.
func (c *Client) CreateCollection(ctx context.Context, sectionKey, machineID, title, ratingKey string) (string, error) {
	params := url.Values{}
	params.Set("type", movieType)
	params.Set("title", title)
	params.Set("smart", "0")
	params.Set("sectionId", sectionKey)
	params.Set("uri", ItemURI(machineID, ratingKey))

	var container MediaContainer
	if err := c.do(ctx, http.MethodPost, "create collection", "/library/collections", params, &container); err != nil {
		return "", err
	}
	for _, dir := range container.Directories {
		if id := strings.TrimSpace(dir.RatingKey); id != "" {
			return id, nil
		}
	}
	return "", services.Wrap(services.ErrParse, "plex", "create collection", "response missing collection ratingKey for "+title, nil)
}

// AddToCollection attaches an item to an existing collection.
func (c *Client) AddToCollection(ctx context.Context, machineID, collectionID, ratingKey string) error {
	params := url.Values{}
	params.Set("uri", ItemURI(machineID, ratingKey))
	path := "/library/collections/" + url.PathEscape(collectionID) + "/items"
	return c.do(ctx, http.MethodPut, "add to collection", path, params, nil)
}

// DeleteCollection removes a collection. Member items are not affected.
func (c *Client) DeleteCollection(ctx context.Context, collectionID string) error {
	path := "/library/collections/" + url.PathEscape(collectionID)
	return c.do(ctx, http.MethodDelete, "delete collection", path, nil, nil)
}
