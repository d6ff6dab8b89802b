package book

import (
	"context"

	"opdsapi/internal/provider"
)

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=book

// ItemLookup resolves one archive.org item with its file list.
type ItemLookup interface {
	Lookup(ctx context.Context, identifier, clientIP string) (provider.Record, error)
}

// DownloadLinker builds the public download URL of a file in an item.
type DownloadLinker interface {
	DownloadURL(identifier, name string) string
}
