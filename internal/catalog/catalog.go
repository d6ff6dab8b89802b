package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"opdsapi/internal/errs"
	"opdsapi/internal/query"
)

// Type selects how a catalog request is built.
type Type uint8

const (
	TypeNavigation Type = iota + 1
	TypeBrowse
	TypeSearch
)

func (t Type) String() string {
	switch t {
	case TypeNavigation:
		return "navigation"
	case TypeBrowse:
		return "browse"
	case TypeSearch:
		return "search"
	default:
		return "unknown"
	}
}

// ParseType maps the type parameter. An empty value means navigation.
func ParseType(s string) (Type, error) {
	switch s {
	case "", "navigation":
		return TypeNavigation, nil
	case "browse":
		return TypeBrowse, nil
	case "search":
		return TypeSearch, nil
	default:
		return 0, errs.InvalidRequest("unknown catalog type %q", s)
	}
}

// Request is one catalog request. Facets keep the order the client sent.
type Request struct {
	Type     Type
	NavKey   string
	Section  string
	Item     string
	Query    string
	Page     int
	Facets   []query.Selection
	ClientIP string
}

// ParseRequest reads a request from /catalog query parameters. The client
// IP is resolved by the transport and is not read here.
func ParseRequest(v url.Values) (Request, error) {
	t, err := ParseType(v.Get("type"))
	if err != nil {
		return Request{}, err
	}

	req := Request{
		Type:    t,
		NavKey:  v.Get("nav_key"),
		Section: v.Get("section"),
		Item:    v.Get("item"),
		Query:   v.Get("query"),
		Page:    1,
	}

	if p := v.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return Request{}, errs.InvalidRequest("page must be a positive integer")
		}
		req.Page = n
	}

	sections, items := v["facet_section"], v["facet_item"]
	if len(sections) != len(items) {
		return Request{}, errs.InvalidRequest("got %d facet_section and %d facet_item parameters", len(sections), len(items))
	}
	for i := range sections {
		req.Facets = append(req.Facets, query.Selection{Section: sections[i], Item: items[i]})
	}

	return req, nil
}

// Validate checks that the parameters required by the request type are set.
func (r Request) Validate() error {
	if r.Page < 1 {
		return errs.InvalidRequest("page must be a positive integer")
	}
	for _, f := range r.Facets {
		if f.Section == "" || f.Item == "" {
			return errs.InvalidRequest("facet_section and facet_item must not be empty")
		}
	}

	switch r.Type {
	case TypeNavigation:
		if r.NavKey == "" {
			return errs.InvalidRequest("navigation catalog requires nav_key")
		}
		if len(r.Facets) > 0 {
			return errs.InvalidRequest("navigation catalog does not take facets")
		}
	case TypeBrowse:
		if r.Section == "" || r.Item == "" {
			return errs.InvalidRequest("browse catalog requires section and item")
		}
	case TypeSearch:
		if strings.TrimSpace(r.Query) == "" {
			return errs.InvalidRequest("search catalog requires query")
		}
		if (r.Section == "") != (r.Item == "") {
			return errs.InvalidRequest("search scope requires both section and item")
		}
	default:
		return errs.InvalidRequest("unknown catalog type")
	}
	return nil
}

// Encode writes the request as a query string in a fixed parameter order:
// type, nav_key, section, item, query, page (omitted when 1), then the facet
// pairs in application order.
func (r Request) Encode() string {
	var b strings.Builder
	add := func(k, v string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}

	add("type", r.Type.String())
	if r.NavKey != "" {
		add("nav_key", r.NavKey)
	}
	if r.Section != "" {
		add("section", r.Section)
	}
	if r.Item != "" {
		add("item", r.Item)
	}
	if r.Query != "" {
		add("query", r.Query)
	}
	if r.Page > 1 {
		add("page", strconv.Itoa(r.Page))
	}
	for _, f := range r.Facets {
		add("facet_section", f.Section)
		add("facet_item", f.Item)
	}
	return b.String()
}

// URL is the /catalog link for r.
func (r Request) URL() string {
	return "/catalog?" + r.Encode()
}

// WithPage returns a copy of r on another page.
func (r Request) WithPage(page int) Request {
	r.Page = page
	return r
}

// WithFacet returns a copy of r with one more facet applied, back on page 1.
func (r Request) WithFacet(section, item string) Request {
	facets := make([]query.Selection, 0, len(r.Facets)+1)
	facets = append(facets, r.Facets...)
	r.Facets = append(facets, query.Selection{Section: section, Item: item})
	r.Page = 1
	return r
}
