package tilemap

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultUserAgent is sent when no other agent is configured. Public tile
// servers reject requests without one.
const DefaultUserAgent = "scanglobe/1.0"

// HTTPSource downloads tiles from a URL template. The placeholders {z}, {x}
// and {y} (or {level}, {column}, {row}) are replaced with the tile id.
type HTTPSource struct {
	template  string
	userAgent string
	client    *http.Client
}

// NewHTTPSource returns a source for template. A nil client gets a default
// client with a 30 second timeout.
func NewHTTPSource(template, userAgent string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPSource{template: template, userAgent: userAgent, client: client}
}

// URL expands the template for id.
func (s *HTTPSource) URL(id TileID) string {
	z, x, y := strconv.Itoa(id.Level), strconv.Itoa(id.Column), strconv.Itoa(id.Row)
	return strings.NewReplacer(
		"{z}", z, "{level}", z,
		"{x}", x, "{column}", x,
		"{y}", y, "{row}", y,
	).Replace(s.template)
}

func (s *HTTPSource) Fetch(ctx context.Context, id TileID) (image.Image, error) {
	tileURL := s.URL(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s failed: %w", tileURL, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s failed: %w", tileURL, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusNoContent:
		return nil, fmt.Errorf("tile %s: %w", tileURL, ErrTileNotFound)
	default:
		return nil, fmt.Errorf("failed to fetch tile %s: %s", tileURL, resp.Status)
	}
	return decodeTile(resp.Body, tileURL)
}
