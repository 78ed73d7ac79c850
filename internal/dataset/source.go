package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// DefaultMaxBytes caps how much of a source is read into memory.
const DefaultMaxBytes int64 = 16 << 20

// Fetcher retrieves raw table bytes from a remote location.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FileReader reads raw table bytes from the local filesystem.
// A missing file must be reported with an error matching fs.ErrNotExist.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// HTTPFetcher downloads a source with GET. Only 2xx responses are accepted.
type HTTPFetcher struct {
	Client   *http.Client
	MaxBytes int64
}

// NewHTTPFetcher returns a fetcher using client, or http.DefaultClient when nil.
func NewHTTPFetcher(client *http.Client, maxBytes int64) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{Client: client, MaxBytes: maxBytes}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected response %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	// A misconfigured host often answers with an HTML page and a 200.
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(strings.ToLower(ct), "text/html") {
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}

	return readLimited(resp.Body, f.MaxBytes)
}

// OSFiles reads local files with the os package.
type OSFiles struct {
	MaxBytes int64
}

// ReadFile implements FileReader.
func (o OSFiles) ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	maxBytes := o.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return readLimited(f, maxBytes)
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("source exceeds %d bytes", maxBytes)
	}
	return data, nil
}
