// Package assets loads puzzle media, manifests, titles and trivia questions
// from a media tree served over HTTP or read from a local directory.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// ErrNotFound is returned when a media file does not exist.
var ErrNotFound = errors.New("asset not found")

// Source reads files of the media tree by slash-separated name.
type Source interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	Stat(ctx context.Context, name string) error
	URL(name string) string
}

// FSSource reads from a file system and links files under a URL prefix.
type FSSource struct {
	fsys   fs.FS
	prefix string
}

func NewFSSource(fsys fs.FS, urlPrefix string) *FSSource {
	return &FSSource{fsys: fsys, prefix: urlPrefix}
}

func (s *FSSource) ReadFile(_ context.Context, name string) ([]byte, error) {
	b, err := fs.ReadFile(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return b, err
}

func (s *FSSource) Stat(_ context.Context, name string) error {
	_, err := fs.Stat(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}

func (s *FSSource) URL(name string) string {
	return strings.TrimSuffix(s.prefix, "/") + "/" + name
}

// HTTPSource fetches files relative to a base URL such as a CDN bucket.
type HTTPSource struct {
	client *http.Client
	base   *url.URL
}

func NewHTTPSource(client *http.Client, baseURL string) (*HTTPSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing media base url: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{client: client, base: u}, nil
}

func (s *HTTPSource) URL(name string) string {
	u := *s.base
	u.Path = path.Join(s.base.Path, name)
	return u.String()
}

func (s *HTTPSource) do(ctx context.Context, method, name string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.URL(name), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, name, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	case resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, name, resp.StatusCode)
	}
	return resp, nil
}

func (s *HTTPSource) ReadFile(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, name)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *HTTPSource) Stat(ctx context.Context, name string) error {
	resp, err := s.do(ctx, http.MethodHead, name)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
