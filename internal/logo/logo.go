// Package logo fetches the header logo drawn on every report.
//
// Sources only deliver bytes. Decoding and embedding happen on the render
// surface, and any failure there or here makes the composer fall back to a
// text label.
package logo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

// DefaultURL is the logo used when none is configured.
const DefaultURL = "https://upload.wikimedia.org/wikipedia/commons/thumb/5/5b/Star_of_life2.svg/640px-Star_of_life2.svg.png"

// MaxBytes bounds the size of a downloaded logo.
const MaxBytes = 4 << 20

// ErrTooLarge is returned for logos larger than MaxBytes.
var ErrTooLarge = errors.New("logo exceeds size limit")

// HTTPSource downloads the logo on every Fetch.
type HTTPSource struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

// NewHTTPSource creates a source for url with the given timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{URL: url, Client: http.DefaultClient, Timeout: timeout}
}

// Fetch downloads the logo. Non-2xx responses are errors.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build logo request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch logo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch logo: unexpected status %s", resp.Status)
	}
	return readLimited(resp.Body)
}

// FileSource reads the logo from disk.
type FileSource struct {
	Path string
}

// Fetch reads the file.
func (s FileSource) Fetch(context.Context) ([]byte, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open logo: %w", err)
	}
	defer f.Close()
	return readLimited(f)
}

// Cached wraps a source and remembers its first successful result.
// Failures are not cached, so a later composition retries.
type Cached struct {
	src  interface{ Fetch(context.Context) ([]byte, error) }
	mu   sync.Mutex
	data []byte
}

// NewCached wraps src.
func NewCached(src interface{ Fetch(context.Context) ([]byte, error) }) *Cached {
	return &Cached{src: src}
}

// Fetch returns the cached bytes or fetches them.
func (c *Cached) Fetch(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data != nil {
		return c.data, nil
	}
	data, err := c.src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.data = data
	return data, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	if len(data) > MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
