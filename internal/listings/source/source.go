// Package source fetches the raw CSV bytes a variant is built from.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"listingmap_backend/internal/adapters/storage"

	"golang.org/x/sync/errgroup"
)

// MaxBytes caps a single source download.
const MaxBytes = 64 << 20

// ErrUnsupportedLocator is returned for a scheme no fetcher handles.
var ErrUnsupportedLocator = errors.New("unsupported source locator")

// Fetcher returns the full contents of one source.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, locator string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, locator string) ([]byte, error) {
	return f(ctx, locator)
}

// Files reads plain paths and file:// URLs relative to Root.
type Files struct {
	Root string
}

func (f Files) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(locator, "file://")
	if !filepath.IsAbs(path) && f.Root != "" {
		path = filepath.Join(f.Root, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()
	return readCapped(file)
}

// HTTP downloads http(s) URLs.
type HTTP struct {
	Client *http.Client
}

func NewHTTP(timeout time.Duration) HTTP {
	return HTTP{Client: &http.Client{Timeout: timeout}}
}

func (h HTTP) Fetch(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return readCapped(resp.Body)
}

// Objects reads minio://bucket/key locators from object storage.
type Objects struct {
	Store storage.ObjectReader
}

func (o Objects) Fetch(ctx context.Context, locator string) ([]byte, error) {
	bucket, key, err := ParseObjectLocator(locator)
	if err != nil {
		return nil, err
	}

	info, err := o.Store.Stat(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if err := storage.ValidateObject(info, MaxBytes); err != nil {
		return nil, err
	}

	obj, err := o.Store.Open(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = obj.Close()
	}()
	return readCapped(obj)
}

// ParseObjectLocator splits minio://bucket/key.
func ParseObjectLocator(locator string) (bucket, key string, err error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", err
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Scheme != "minio" || u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedLocator, locator)
	}
	return u.Host, key, nil
}

func readCapped(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if n > MaxBytes {
		return nil, fmt.Errorf("source exceeds %d bytes", MaxBytes)
	}
	return buf.Bytes(), nil
}

// Loader dispatches locators to fetchers by scheme.
type Loader struct {
	files   Fetcher
	http    Fetcher
	objects Fetcher
}

// NewLoader builds a loader. objects may be nil when object storage is not
// configured; minio:// locators then fail.
func NewLoader(files, http, objects Fetcher) *Loader {
	return &Loader{files: files, http: http, objects: objects}
}

// Fetch reads one locator.
func (l *Loader) Fetch(ctx context.Context, locator string) ([]byte, error) {
	var f Fetcher
	switch scheme(locator) {
	case "http", "https":
		f = l.http
	case "minio":
		f = l.objects
	case "", "file":
		f = l.files
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLocator, locator)
	}

	data, err := f.Fetch(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", locator, err)
	}
	return data, nil
}

// LoadPair fetches the reference and comparison sources concurrently. If
// either fails the pair fails.
func (l *Loader) LoadPair(ctx context.Context, reference, comparison string) (ref, cmp []byte, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ref, err = l.Fetch(gctx, reference)
		return err
	})
	g.Go(func() error {
		var err error
		cmp, err = l.Fetch(gctx, comparison)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return ref, cmp, nil
}

func scheme(locator string) string {
	i := strings.Index(locator, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(locator[:i])
}
