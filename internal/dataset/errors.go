package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable matches any LoadError where no source could be read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrParseFailure matches any LoadError where a source was read but its
	// content was not a delimited table.
	ErrParseFailure = errors.New("parse failure")
)

// Kind classifies a load failure.
type Kind int

const (
	KindSourceUnavailable Kind = iota + 1
	KindParseFailure
)

func (k Kind) String() string {
	switch k {
	case KindSourceUnavailable:
		return "source unavailable"
	case KindParseFailure:
		return "parse failure"
	default:
		return "unknown"
	}
}

// LoadError is returned by [Loader.Load] when no table could be produced.
type LoadError struct {
	Kind   Kind
	Source string // URL, path, or list of candidates that was attempted
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Source)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match a LoadError against the package sentinels.
func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrSourceUnavailable:
		return e.Kind == KindSourceUnavailable
	case ErrParseFailure:
		return e.Kind == KindParseFailure
	}
	return false
}
