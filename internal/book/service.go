package book

import (
	"context"
	"path"
	"strings"

	"opdsapi/internal/catalog"
	"opdsapi/internal/errs"
	"opdsapi/internal/provider"
)

// Service resolves download files and audiobook manifests for single items.
type Service struct {
	items ItemLookup
	links DownloadLinker
}

func NewService(items ItemLookup, links DownloadLinker) *Service {
	return &Service{items: items, links: links}
}

// DownloadURL returns the URL of the first file of identifier whose name
// matches pattern. An empty pattern matches the first file.
func (s *Service) DownloadURL(ctx context.Context, identifier, pattern, clientIP string) (string, error) {
	if pattern != "" {
		if _, err := path.Match(pattern, ""); err != nil {
			return "", errs.InvalidRequest("malformed glob_pattern %q", pattern)
		}
	}

	rec, err := s.items.Lookup(ctx, identifier, clientIP)
	if err != nil {
		return "", err
	}
	for _, f := range rec.Files {
		if pattern == "" || matches(pattern, f.Name) {
			return s.links.DownloadURL(identifier, f.Name), nil
		}
	}
	return "", errs.NotFound("no file in %q matches %q", identifier, pattern)
}

// Audiobook builds the manifest of an audio item. The reading order keeps
// the item's file order.
func (s *Service) Audiobook(ctx context.Context, identifier, clientIP string) (Manifest, error) {
	rec, err := s.items.Lookup(ctx, identifier, clientIP)
	if err != nil {
		return Manifest{}, err
	}
	if rec.MediaType != provider.MediaAudio {
		return Manifest{}, errs.NotFound("item %q is not an audiobook", identifier)
	}

	pub := catalog.NewPublication(rec)
	tracks := []Track{}
	for _, f := range rec.Files {
		if f.Format != audioFormat || !matches(audioGlob, f.Name) {
			continue
		}
		tracks = append(tracks, Track{
			Href:     s.links.DownloadURL(identifier, f.Name),
			Type:     "audio/mpeg",
			Title:    f.Title,
			Duration: provider.ParseRuntime(f.Length),
		})
	}

	return Manifest{
		Metadata:     pub.Metadata,
		Links:        pub.Images,
		ReadingOrder: tracks,
	}, nil
}

// matches globs against the base name so patterns like *pdf also find files
// in subdirectories. Matching is case-insensitive.
func matches(pattern, name string) bool {
	ok, _ := path.Match(strings.ToLower(pattern), strings.ToLower(path.Base(name)))
	return ok
}
