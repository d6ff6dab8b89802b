// Package catalogconfig loads the navigation and section configuration that
// drives catalog composition and hands out the current immutable snapshot.
package catalogconfig

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"opdsapi/internal/errs"
	"opdsapi/internal/logging"
)

// Source yields the raw configuration document.
type Source interface {
	Read(ctx context.Context) ([]byte, error)
	String() string
}

// Repository owns the current Catalog. Readers never lock; Load replaces the
// snapshot atomically and leaves the previous one in place on failure.
type Repository struct {
	src     Source
	current atomic.Pointer[Catalog]
}

func NewRepository(src Source) *Repository {
	return &Repository{src: src}
}

func (r *Repository) Load(ctx context.Context) error {
	data, err := r.src.Read(ctx)
	if err != nil {
		return errs.Config(fmt.Errorf("read %s: %w", r.src, err))
	}
	c, err := Parse(data)
	if err != nil {
		return err
	}
	r.current.Store(c)

	logging.Ctx(ctx).Info().
		Str("source", r.src.String()).
		Int("sections", len(c.sections)).
		Int("navigation_pages", len(c.pages)).
		Msg("catalog configuration loaded")
	return nil
}

// Catalog returns the current snapshot, or nil before the first Load.
func (r *Repository) Catalog() *Catalog {
	return r.current.Load()
}

// FileSource reads the document from disk.
type FileSource struct {
	Path string
}

func (f FileSource) Read(_ context.Context) ([]byte, error) {
	return os.ReadFile(f.Path)
}

func (f FileSource) String() string {
	return "file:" + f.Path
}

// StaticSource serves an in-memory document.
type StaticSource []byte

func (s StaticSource) Read(_ context.Context) ([]byte, error) {
	return s, nil
}

func (s StaticSource) String() string {
	return "static"
}
