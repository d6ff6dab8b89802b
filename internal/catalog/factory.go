package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"opdsapi/internal/catalogconfig"
	"opdsapi/internal/errs"
	"opdsapi/internal/logging"
	"opdsapi/internal/metrics"
	"opdsapi/internal/provider"
	"opdsapi/internal/query"
)

type Options struct {
	ItemsPerPage  int
	ItemsPerGroup int
	// MaxResults is the deepest result the search backend will page to.
	MaxResults    int
	SearchSection string
	SearchItem    string
	ShelfURL      string
	ProfileURL    string
}

func (o *Options) setDefaults() {
	if o.ItemsPerPage <= 0 {
		o.ItemsPerPage = 25
	}
	if o.ItemsPerGroup <= 0 {
		o.ItemsPerGroup = 10
	}
	if o.MaxResults <= 0 {
		o.MaxResults = 10000
	}
	if o.SearchSection == "" {
		o.SearchSection = "search"
	}
	if o.SearchItem == "" {
		o.SearchItem = "user-search"
	}
}

// Factory builds catalog models. It is safe for concurrent use.
type Factory struct {
	config   ConfigSource
	provider DataProvider
	opts     Options
}

func NewFactory(config ConfigSource, p DataProvider, opts Options) *Factory {
	opts.setDefaults()
	return &Factory{config: config, provider: p, opts: opts}
}

var errNoCatalog = errors.New("catalog configuration not loaded")

// Build validates req and builds the catalog it describes.
func (f *Factory) Build(ctx context.Context, req Request) (*Model, error) {
	start := time.Now()
	m, err := f.build(ctx, req)
	metrics.RecordCatalogBuild(req.Type.String(), time.Since(start), err)
	return m, err
}

func (f *Factory) build(ctx context.Context, req Request) (*Model, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cat := f.config.Catalog()
	if cat == nil {
		return nil, errNoCatalog
	}

	switch req.Type {
	case TypeNavigation:
		return f.navigation(ctx, cat, req)
	case TypeBrowse:
		return f.listing(ctx, cat, req, query.OriginItem)
	case TypeSearch:
		return f.listing(ctx, cat, req, query.OriginFreeText)
	}
	return nil, errs.InvalidRequest("unknown catalog type")
}

func (f *Factory) navigation(ctx context.Context, cat *catalogconfig.Catalog, req Request) (*Model, error) {
	page, err := cat.NavigationPage(req.NavKey)
	if err != nil {
		return nil, err
	}

	var nav []Link
	for _, key := range page.ShowSections {
		s, err := cat.Section(key)
		if err != nil {
			continue
		}
		for _, item := range s.Items {
			nav = append(nav, Link{Title: item.Title, Href: browseURL(key, item.Key), Rel: "collection", Type: MediaTypeOPDS})
		}
	}
	for _, key := range page.ShowNavigationPages {
		p, err := cat.NavigationPage(key)
		if err != nil {
			continue
		}
		nav = append(nav, Link{Title: p.Title, Href: navigationURL(key), Rel: "collection", Type: MediaTypeOPDS})
	}

	groups, err := f.featuredGroups(ctx, cat, page.FeaturedGroups, req.ClientIP)
	if err != nil {
		return nil, err
	}

	return &Model{
		Metadata:   Metadata{Title: page.Title},
		Links:      f.commonLinks(req),
		Navigation: nav,
		Groups:     groups,
	}, nil
}

// featuredGroups fetches every group preview concurrently. Any failure
// fails the page.
func (f *Factory) featuredGroups(ctx context.Context, cat *catalogconfig.Catalog, fg *catalogconfig.FeaturedGroup, clientIP string) ([]Group, error) {
	if fg == nil || len(fg.Groups) == 0 {
		return nil, nil
	}
	section, err := cat.Section(fg.Section)
	if err != nil {
		return nil, err
	}

	items := make([]catalogconfig.QueryItem, 0, len(fg.Groups))
	for _, key := range fg.Groups {
		item, ok := section.Item(key)
		if !ok {
			return nil, errs.NotFound("featured item %q not found in section %q", key, section.Key)
		}
		items = append(items, item)
	}

	composer := query.NewComposer(cat)
	groups := make([]Group, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			res, err := composer.Compose(query.Root{Section: section, Item: &item, Origin: query.OriginItem}, nil)
			if err != nil {
				return err
			}
			total, records, err := f.fetch(gctx, res, 1, f.opts.ItemsPerGroup, clientIP)
			if err != nil {
				return err
			}
			groups[i] = Group{
				Title:         item.Title,
				NumberOfItems: total,
				Links:         []Link{{Rel: "self", Href: browseURL(section.Key, item.Key), Type: MediaTypeOPDS}},
				Publications:  records,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return groups, nil
}

// maxPage is the last page whose first result the search backend can reach.
func (f *Factory) maxPage() int {
	return (f.opts.MaxResults + f.opts.ItemsPerPage - 1) / f.opts.ItemsPerPage
}

// listing builds browse and search catalogs. They differ only in where the
// initial query fragment comes from.
func (f *Factory) listing(ctx context.Context, cat *catalogconfig.Catalog, req Request, origin query.Origin) (*Model, error) {
	root, err := f.resolve(cat, req, origin)
	if err != nil {
		return nil, err
	}
	if req.Page > f.maxPage() {
		return nil, errs.InvalidRequest("page %d is past the %d result limit", req.Page, f.opts.MaxResults)
	}

	res, err := query.NewComposer(cat).Compose(root, req.Facets)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Debug().
		Str("type", req.Type.String()).
		Str("query", res.Query).
		Strs("sort", res.Sort).
		Int("page", req.Page).
		Msg("composed catalog query")

	total, records, err := f.fetch(ctx, res, req.Page, f.opts.ItemsPerPage, req.ClientIP)
	if err != nil {
		return nil, err
	}

	numberOfItems := min(total, f.opts.MaxResults)
	title := root.Item.Title
	if origin == query.OriginFreeText {
		title = fmt.Sprintf("%s '%d'", title, total)
	}

	links := f.commonLinks(req)
	links = append(links, paginationLinks(req, numberOfItems, f.opts.ItemsPerPage)...)

	return &Model{
		Metadata: Metadata{
			Title:         title,
			NumberOfItems: &numberOfItems,
			ItemsPerPage:  f.opts.ItemsPerPage,
			CurrentPage:   req.Page,
		},
		Links:        links,
		Publications: records,
		Facets:       facetLinks(req, res.Remaining),
	}, nil
}

func (f *Factory) resolve(cat *catalogconfig.Catalog, req Request, origin query.Origin) (query.Root, error) {
	if req.Section != "" {
		s, err := cat.Section(req.Section)
		if err != nil {
			return query.Root{}, err
		}
		item, err := cat.Item(req.Section, req.Item)
		if err != nil {
			return query.Root{}, err
		}
		return query.Root{
			Section: s,
			Item:    &item,
			Origin:  origin,
			Text:    req.Query,
			Scoped:  origin == query.OriginFreeText,
		}, nil
	}

	if origin != query.OriginFreeText {
		return query.Root{}, errs.InvalidRequest("browse catalog requires section and item")
	}

	// Unscoped search takes its title, sort and facets from the configured
	// search section when there is one.
	s, err := cat.Section(f.opts.SearchSection)
	if err != nil {
		s = &catalogconfig.Section{Key: f.opts.SearchSection, Title: "Search"}
	}
	item, ok := s.Item(f.opts.SearchItem)
	if !ok {
		item = catalogconfig.QueryItem{Key: f.opts.SearchItem, Title: "Search results"}
	}
	return query.Root{Section: s, Item: &item, Origin: origin, Text: req.Query}, nil
}

func (f *Factory) fetch(ctx context.Context, res query.Result, page, perPage int, clientIP string) (int, []provider.Record, error) {
	total, ids, err := f.provider.Search(ctx, provider.SearchRequest{
		Query:    res.Query,
		Sort:     res.Sort,
		Page:     page,
		PerPage:  perPage,
		ClientIP: clientIP,
	})
	if err != nil {
		return 0, nil, err
	}

	records := []provider.Record{}
	if len(ids) > 0 {
		fetched, err := f.provider.FetchRecords(ctx, ids, clientIP)
		if err != nil {
			return 0, nil, err
		}
		records = append(records, fetched...)
	}
	return total, records, nil
}
