// Package loader finds and opens the shared library behind a trampoline table.
//
// Candidates are tried in order, typically: paths taken from environment variables, explicit paths,
// copies under the user cache directory, then names searched by the system loader. The first one that opens wins.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-multierror"

	"github.com/ZenLiuCN/trampoline"
)

var (
	// ErrNotFound occurs when a source does not point to an existing file.
	ErrNotFound = errors.New("library file not found")
	// ErrNoSources occurs when Open is given nothing to try.
	ErrNoSources = errors.New("no library sources")
)

// openShared is replaced in tests.
var openShared = trampoline.OpenShared

// Source is one candidate location of a library.
type Source interface {
	// Locate returns what to pass to the system loader.
	Locate() (string, error)
	String() string
}

type (
	custom string
	cached string
	system string
	env    string
)

// Custom is an explicit file path.
func Custom(path string) Source { return custom(path) }

// Cached is a path relative to the user cache directory.
func Cached(rel string) Source { return cached(rel) }

// System is a bare library name resolved by the platform search path.
func System(name string) Source { return system(name) }

// Env is an environment variable holding a file path.
func Env(key string) Source { return env(key) }

func (c custom) Locate() (string, error) { return exists(string(c)) }
func (c custom) String() string          { return "custom:" + string(c) }

func (c cached) Locate() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return exists(filepath.Join(dir, string(c)))
}
func (c cached) String() string { return "cached:" + string(c) }

func (s system) Locate() (string, error) { return string(s), nil }
func (s system) String() string          { return "system:" + string(s) }

func (e env) Locate() (string, error) {
	p := os.Getenv(string(e))
	if p == "" {
		return "", fmt.Errorf("%w: $%s is empty", ErrNotFound, string(e))
	}
	return exists(p)
}
func (e env) String() string { return "env:" + string(e) }

func exists(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return path, nil
}

// Open tries sources in order and returns the first library that opens.
//
// When all fail the error matches trampoline.ErrLibraryUnavailable and lists every attempt.
func Open(logger log.Logger, sources ...Source) (*trampoline.SharedLibrary, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %w", trampoline.ErrLibraryUnavailable, ErrNoSources)
	}
	var errs *multierror.Error
	for _, s := range sources {
		path, err := s.Locate()
		if err != nil {
			level.Debug(logger).Log("msg", "skip library source", "source", s, "err", err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", s, err))
			continue
		}
		so, err := openShared(path)
		if err != nil {
			level.Debug(logger).Log("msg", "library open failed", "source", s, "path", path, "err", err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", s, err))
			continue
		}
		level.Info(logger).Log("msg", "library opened", "source", s, "path", path)
		return so, nil
	}
	return nil, fmt.Errorf("%w: %v", trampoline.ErrLibraryUnavailable, errs.ErrorOrNil())
}

// Opener adapts Open for Table.Lazy.
func Opener(logger log.Logger, sources ...Source) func() (trampoline.Library, error) {
	return func() (trampoline.Library, error) {
		so, err := Open(logger, sources...)
		if err != nil {
			return nil, err
		}
		return so, nil
	}
}
