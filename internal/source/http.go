package source

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"
)

// HTTPSource fetches frames from a static asset server.
type HTTPSource struct {
	base     string
	template string
	client   *http.Client
}

func NewHTTPSource(base, template string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		base:     strings.TrimSuffix(base, "/"),
		template: template,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name(seq int) string {
	return FrameName(s.template, seq)
}

func (s *HTTPSource) URL(seq int) string {
	return s.base + "/" + s.Name(seq)
}

func (s *HTTPSource) Frame(ctx context.Context, seq int) (image.Image, error) {
	return fetch(ctx, s.client, s.URL(seq))
}

func fetch(ctx context.Context, client *http.Client, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	return decode(resp.Body, url)
}

func (s *HTTPSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
