package catalog

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=catalog

import (
	"context"

	"opdsapi/internal/catalogconfig"
	"opdsapi/internal/provider"
)

// DataProvider runs queries and resolves identifiers to records.
type DataProvider interface {
	Search(ctx context.Context, req provider.SearchRequest) (int, []string, error)
	FetchRecords(ctx context.Context, ids []string, clientIP string) ([]provider.Record, error)
}

// ConfigSource hands out the current catalog configuration.
type ConfigSource interface {
	Catalog() *catalogconfig.Catalog
}
