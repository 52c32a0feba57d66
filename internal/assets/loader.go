package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// maxAssetSize bounds a single download
const maxAssetSize = 4 << 20

// ErrEmptyAsset is returned for zero-length resources
var ErrEmptyAsset = errors.New("empty asset")

// Sound is the handle of a loaded sound. Audio decoding happens elsewhere;
// the client only needs to know the bytes arrived.
type Sound struct {
	Data []byte
}

// HTTPLoader fetches assets from the game server's static file tree
type HTTPLoader struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPLoader creates a loader rooted at baseURL. A ws:// or wss:// URL is
// mapped to http:// or https://.
func NewHTTPLoader(baseURL string, client *http.Client) (*HTTPLoader, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid asset URL: %w", err)
	}

	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported asset URL scheme %q", u.Scheme)
	}
	u.Path = ""
	u.RawQuery = ""

	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLoader{base: u, client: client}, nil
}

// URL returns the request URL for key on the given attempt
func (l *HTTPLoader) URL(key Key, attempt int) string {
	u := l.base.JoinPath(key.Path())
	q := u.Query()
	q.Set("retry", strconv.Itoa(attempt))
	u.RawQuery = q.Encode()
	return u.String()
}

// Load implements Loader
func (l *HTTPLoader) Load(ctx context.Context, key Key, attempt int) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL(key, attempt), nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", key, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return Decode(key, data)
}

// DirLoader reads assets from a local copy of the static tree
type DirLoader struct {
	root string
}

// NewDirLoader creates a loader rooted at dir
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{root: dir}
}

// Load implements Loader
func (l *DirLoader) Load(ctx context.Context, key Key, _ int) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(key.Path())))
	if err != nil {
		return nil, err
	}
	return Decode(key, data)
}

// Decode turns raw bytes into a handle: card images become image.Image,
// sounds are kept as opaque bytes.
func Decode(key Key, data []byte) (any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrEmptyAsset)
	}
	if _, ok := key.Sound(); ok {
		return Sound{Data: data}, nil
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return img, nil
}

// Image returns the decoded card image behind a handle
func Image(handle any) (image.Image, bool) {
	img, ok := handle.(image.Image)
	return img, ok
}

// SoundData returns the encoded audio behind a handle
func SoundData(handle any) ([]byte, bool) {
	s, ok := handle.(Sound)
	return s.Data, ok
}
