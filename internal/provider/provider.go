// Package provider runs composed queries against archive.org and turns the
// results into normalized publication records.
package provider

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"opdsapi/internal/errs"
	"opdsapi/internal/logging"
	"opdsapi/internal/metrics"
	"opdsapi/internal/platform/archiveorg"
)

// ArchiveClient is the subset of the archive.org client the provider uses.
type ArchiveClient interface {
	Search(ctx context.Context, p archiveorg.SearchParams) (*archiveorg.SearchResponse, error)
	Metadata(ctx context.Context, identifier, clientIP string) (*archiveorg.Item, error)
}

type SearchRequest struct {
	Query    string
	Sort     []string
	Page     int
	PerPage  int
	ClientIP string
}

type Provider struct {
	client  ArchiveClient
	workers int
	// sem bounds metadata lookups across all requests.
	sem *semaphore.Weighted
}

func New(client ArchiveClient, workers int) *Provider {
	if workers < 1 {
		workers = 1
	}
	return &Provider{
		client:  client,
		workers: workers,
		sem:     semaphore.NewWeighted(int64(workers)),
	}
}

// Search returns the total hit count and the identifiers of one page.
func (p *Provider) Search(ctx context.Context, req SearchRequest) (int, []string, error) {
	res, err := p.client.Search(ctx, archiveorg.SearchParams{
		Query:    req.Query,
		Sort:     req.Sort,
		Page:     req.Page,
		Rows:     req.PerPage,
		ClientIP: req.ClientIP,
	})
	if err != nil {
		return 0, nil, upstreamError(ctx, err, "search")
	}

	ids := make([]string, 0, len(res.Response.Docs))
	for _, d := range res.Response.Docs {
		if d.Identifier == "" {
			return 0, nil, errs.Provider(nil, "search returned a document without identifier")
		}
		ids = append(ids, d.Identifier)
	}
	if res.Response.NumFound < len(ids) {
		return 0, nil, errs.Provider(nil, "search reported %d hits but returned %d", res.Response.NumFound, len(ids))
	}
	return res.Response.NumFound, ids, nil
}

// FetchRecords looks up every identifier concurrently. Failed lookups are
// logged and left out; the result keeps the input order. Only cancellation
// or an expired deadline fails the whole call.
func (p *Provider) FetchRecords(ctx context.Context, ids []string, clientIP string) ([]Record, error) {
	results := make([]*Record, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := p.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			metrics.WorkersInUse.Inc()
			defer func() {
				metrics.WorkersInUse.Dec()
				p.sem.Release(1)
			}()

			item, err := p.client.Metadata(gctx, id, clientIP)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				metrics.RecordFetchFailures.Inc()
				logging.Ctx(ctx).Warn().Err(err).Str("identifier", id).Msg("metadata lookup failed, omitting record")
				return nil
			}
			rec := NewRecord(id, item)
			results[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, upstreamError(ctx, err, "metadata")
	}

	records := make([]Record, 0, len(ids))
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}
	return records, nil
}

// Lookup fetches a single record, files included.
func (p *Provider) Lookup(ctx context.Context, identifier, clientIP string) (Record, error) {
	item, err := p.client.Metadata(ctx, identifier, clientIP)
	if err != nil {
		if errors.Is(err, archiveorg.ErrNotFound) {
			return Record{}, errs.NotFound("item %q not found", identifier)
		}
		return Record{}, upstreamError(ctx, err, "metadata")
	}
	return NewRecord(identifier, item), nil
}

func upstreamError(ctx context.Context, err error, op string) error {
	switch {
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return err
	case errors.Is(err, archiveorg.ErrCircuitOpen), errors.Is(err, context.DeadlineExceeded):
		return errs.ProviderUnavailable(err, "archive.org %s unavailable", op)
	default:
		return errs.Provider(err, "archive.org %s failed", op)
	}
}
