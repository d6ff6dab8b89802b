package catalog

import (
	"opdsapi/internal/catalogconfig"
)

const relShelf = "http://opds-spec.org/shelf"

// commonLinks are carried by every catalog: the templated search link, the
// shelf and profile links, then self.
func (f *Factory) commonLinks(req Request) []Link {
	return []Link{
		{Rel: "search", Href: "/catalog{?query}&type=search", Type: MediaTypeOPDS, Templated: true},
		{Rel: relShelf, Href: f.opts.ShelfURL, Type: MediaTypeOPDS},
		{Rel: "profile", Href: f.opts.ProfileURL, Type: MediaTypeProfile},
		{Rel: "self", Href: req.URL(), Type: MediaTypeOPDS},
	}
}

// paginationLinks returns first, previous, next and last for a listing of
// numberOfItems entries. previous is left out on the first page and next
// once the current page reaches the end.
func paginationLinks(req Request, numberOfItems, perPage int) []Link {
	if numberOfItems <= 0 || perPage <= 0 {
		return nil
	}
	last := (numberOfItems + perPage - 1) / perPage

	links := []Link{{Rel: "first", Href: req.WithPage(1).URL(), Type: MediaTypeOPDS}}
	if req.Page > 1 {
		prev := req.Page - 1
		if prev > last {
			prev = last
		}
		links = append(links, Link{Rel: "previous", Href: req.WithPage(prev).URL(), Type: MediaTypeOPDS})
	}
	if req.Page < last {
		links = append(links, Link{Rel: "next", Href: req.WithPage(req.Page + 1).URL(), Type: MediaTypeOPDS})
	}
	links = append(links, Link{Rel: "last", Href: req.WithPage(last).URL(), Type: MediaTypeOPDS})
	return links
}

// facetLinks renders one Facet per remaining section. Each link keeps the
// current state and appends its own selection.
func facetLinks(req Request, remaining []*catalogconfig.Section) []Facet {
	if len(remaining) == 0 {
		return nil
	}
	facets := make([]Facet, 0, len(remaining))
	for _, s := range remaining {
		links := make([]Link, 0, len(s.Items))
		for _, item := range s.Items {
			links = append(links, Link{
				Title: item.Title,
				Href:  req.WithFacet(s.Key, item.Key).URL(),
				Type:  MediaTypeOPDS,
			})
		}
		facets = append(facets, Facet{Title: s.Title, Links: links})
	}
	return facets
}

func browseURL(section, item string) string {
	return Request{Type: TypeBrowse, Section: section, Item: item}.URL()
}

func navigationURL(key string) string {
	return Request{Type: TypeNavigation, NavKey: key}.URL()
}
