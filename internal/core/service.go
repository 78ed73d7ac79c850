package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/JonMunkholm/therafind/internal/dataset"
	"github.com/JonMunkholm/therafind/internal/logging"
)

// ErrSourceRequired is returned by NewService when no table source is given.
var ErrSourceRequired = errors.New("table source required")

// TableSource supplies the current table. *dataset.Loader satisfies it.
type TableSource interface {
	Load(ctx context.Context) (*dataset.Table, error)
}

// Service runs searches against a freshly loaded table. It keeps no table
// state between calls; an optional SearchLimiter bounds how many loads run
// at once.
type Service struct {
	source  TableSource
	logger  *slog.Logger
	limiter *SearchLimiter
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. A request ID carried by the search context is
// added to it per call.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLimiter bounds concurrent searches. Without it searches are unbounded.
func WithLimiter(limiter *SearchLimiter) Option {
	return func(s *Service) {
		s.limiter = limiter
	}
}

// NewService creates a Service reading from source.
func NewService(source TableSource, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	s := &Service{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search loads the table and filters it with req.
// A load failure is returned as is (a *dataset.LoadError) and no filtering
// is attempted.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	logger := logging.WithRequestID(ctx, s.logger)
	start := time.Now()

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			logger.Warn("search rejected", "error", err)
			return nil, err
		}
		defer s.limiter.Release()
	}

	table, err := s.source.Load(ctx)
	if err != nil {
		logger.Error("dataset load failed", "error", err)
		return nil, err
	}

	if missing := table.MissingColumns(BaseColumns()); len(missing) > 0 && table.Len() > 0 {
		logger.Warn("dataset header lacks expected columns; affected rows are skipped",
			"missing", missing,
		)
	}

	result := Filter(table, req)

	logger.Debug("search completed",
		"terms", req.String(),
		"unfiltered", req.IsEmpty(),
		"matched_rows", result.MatchedRows,
		"total_rows", result.TotalRows,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Limiter returns the configured limiter, or nil.
func (s *Service) Limiter() *SearchLimiter {
	return s.limiter
}
