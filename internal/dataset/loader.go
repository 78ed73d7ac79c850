package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultFetchTimeout bounds a remote fetch when LoaderConfig.Timeout is unset.
const DefaultFetchTimeout = 10 * time.Second

// LoaderConfig describes where the table comes from.
type LoaderConfig struct {
	// RemoteURL is tried first when set.
	RemoteURL string

	// LocalPaths are probed in order; the first one that exists is used.
	LocalPaths []string

	// Timeout bounds the remote fetch.
	Timeout time.Duration

	Fetcher Fetcher
	Files   FileReader
	Logger  *slog.Logger
}

// Loader produces a fresh Table on every call to Load. It holds no table
// state between calls and is safe for concurrent use.
type Loader struct {
	remoteURL  string
	localPaths []string
	timeout    time.Duration
	fetcher    Fetcher
	files      FileReader
	logger     *slog.Logger
}

// NewLoader returns a Loader for cfg, filling unset collaborators with
// HTTPFetcher, OSFiles and slog.Default.
func NewLoader(cfg LoaderConfig) *Loader {
	l := &Loader{
		remoteURL:  strings.TrimSpace(cfg.RemoteURL),
		localPaths: append([]string(nil), cfg.LocalPaths...),
		timeout:    cfg.Timeout,
		fetcher:    cfg.Fetcher,
		files:      cfg.Files,
		logger:     cfg.Logger,
	}
	if l.timeout <= 0 {
		l.timeout = DefaultFetchTimeout
	}
	if l.fetcher == nil {
		l.fetcher = NewHTTPFetcher(nil, DefaultMaxBytes)
	}
	if l.files == nil {
		l.files = OSFiles{}
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Load reads the table. The remote source is tried first; any failure there
// (transport error, non-2xx status, timeout, unparsable body) falls back to
// the first local path that exists. A *LoadError is returned when neither
// produces a table.
func (l *Loader) Load(ctx context.Context) (*Table, error) {
	var remoteErr error
	if l.remoteURL != "" {
		table, err := l.loadRemote(ctx)
		if err == nil {
			return table, nil
		}
		remoteErr = err
		l.logger.Warn("remote dataset unavailable, falling back to local file",
			"url", l.remoteURL,
			"error", err,
		)
	}

	for _, path := range l.localPaths {
		data, err := l.files.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug("dataset candidate not found", "path", path)
			continue
		}
		if err != nil {
			return nil, &LoadError{Kind: KindSourceUnavailable, Source: path, Err: err}
		}

		table, err := Parse(data)
		if err != nil {
			return nil, &LoadError{Kind: KindParseFailure, Source: path, Err: err}
		}
		l.logger.Debug("dataset loaded", "source", path, "rows", table.Len())
		return table, nil
	}

	err := errors.New("no configured source could be read")
	if remoteErr != nil {
		err = fmt.Errorf("no local fallback after remote failure: %w", remoteErr)
	}
	return nil, &LoadError{Kind: KindSourceUnavailable, Source: l.describeSources(), Err: err}
}

func (l *Loader) loadRemote(ctx context.Context) (*Table, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	data, err := l.fetcher.Fetch(ctx, l.remoteURL)
	if err != nil {
		return nil, &LoadError{Kind: KindSourceUnavailable, Source: l.remoteURL, Err: err}
	}

	table, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Kind: KindParseFailure, Source: l.remoteURL, Err: err}
	}
	l.logger.Debug("dataset loaded", "source", l.remoteURL, "rows", table.Len())
	return table, nil
}

func (l *Loader) describeSources() string {
	sources := make([]string, 0, len(l.localPaths)+1)
	if l.remoteURL != "" {
		sources = append(sources, l.remoteURL)
	}
	sources = append(sources, l.localPaths...)
	if len(sources) == 0 {
		return "no sources configured"
	}
	return strings.Join(sources, ", ")
}

// ResolveLocalPaths makes every candidate absolute relative to the working
// directory and drops duplicates, keeping the first occurrence. It is meant
// to run once at startup; the result is handed to LoaderConfig.LocalPaths.
func ResolveLocalPaths(candidates []string) []string {
	seen := make(map[string]bool, len(candidates))
	resolved := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if abs, err := filepath.Abs(c); err == nil {
			c = abs
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		resolved = append(resolved, c)
	}
	return resolved
}

// FirstExisting returns the first path in paths that names a regular file.
func FirstExisting(paths []string) (string, bool) {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
