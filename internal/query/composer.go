// Package query composes upstream search queries from a target section, an
// initial query source and an ordered chain of facet selections.
package query

import (
	"strings"

	"opdsapi/internal/catalogconfig"
	"opdsapi/internal/errs"
)

// Selection is one applied facet: an item of a facet section.
type Selection struct {
	Section string
	Item    string
}

// Origin tells where the initial query fragment comes from.
type Origin uint8

const (
	// OriginItem uses the target item's configured query.
	OriginItem Origin = iota
	// OriginFreeText uses a user supplied search term.
	OriginFreeText
)

// Root is the browse or search target facets are applied to.
type Root struct {
	Section *catalogconfig.Section
	// Item is nil for a free-text search that is not scoped to an item.
	Item   *catalogconfig.QueryItem
	Origin Origin
	Text   string
	// Scoped marks a free-text search the client restricted to a
	// section and item. Unscoped searches always carry the base query.
	Scoped bool
}

// Result is the composed state of one request.
type Result struct {
	Query     string
	Remaining []*catalogconfig.Section
	Active    []catalogconfig.QueryItem
	// Sort is nil when the provider default ordering applies.
	Sort []string
}

type Composer struct {
	catalog *catalogconfig.Catalog
}

func NewComposer(c *catalogconfig.Catalog) *Composer {
	return &Composer{catalog: c}
}

var quoteReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", `"`,
	"’", `"`,
	"`", `"`,
	"'", `"`,
)

// NormalizeText rewrites typographic and single quotes in a search term to
// the double quotes the upstream query syntax expects.
func NormalizeText(s string) string {
	return quoteReplacer.Replace(strings.TrimSpace(s))
}

// Compose builds the query for root with selections applied in order.
func (c *Composer) Compose(root Root, selections []Selection) (Result, error) {
	if root.Section == nil {
		return Result{}, errs.InvalidRequest("no target section")
	}

	var parts []string
	// Free-text searches always carry the base query, scoped or not.
	if root.Section.NeedsBaseQuery || root.Origin == OriginFreeText {
		parts = append(parts, c.catalog.BaseQuery)
	}

	switch root.Origin {
	case OriginFreeText:
		if root.Scoped && root.Item != nil {
			parts = append(parts, root.Item.Query)
		}
		parts = append(parts, NormalizeText(root.Text))
	default:
		if root.Item == nil {
			return Result{}, errs.InvalidRequest("no target item")
		}
		parts = append(parts, root.Item.Query)
	}

	offered := make(map[string]bool, len(root.Section.Facets))
	for _, f := range root.Section.Facets {
		offered[f] = true
	}

	var sortOverride []string
	applied := make(map[string]bool, len(selections))
	active := make([]catalogconfig.QueryItem, 0, len(selections))
	for _, sel := range selections {
		if applied[sel.Section] {
			return Result{}, errs.InvalidFacet(sel.Section, sel.Item, "facet section applied more than once")
		}
		if !offered[sel.Section] {
			return Result{}, errs.InvalidFacet(sel.Section, sel.Item, "not offered by section "+root.Section.Key)
		}
		fs, err := c.catalog.Section(sel.Section)
		if err != nil {
			return Result{}, errs.InvalidFacet(sel.Section, sel.Item, "unknown facet section")
		}
		item, ok := fs.Item(sel.Item)
		if !ok {
			return Result{}, errs.InvalidFacet(sel.Section, sel.Item, "unknown facet item")
		}
		applied[sel.Section] = true
		active = append(active, item)
		parts = append(parts, item.Query)
		if len(item.Sort) > 0 {
			sortOverride = item.Sort
		}
	}

	var remaining []*catalogconfig.Section
	for _, key := range root.Section.Facets {
		if applied[key] {
			continue
		}
		fs, err := c.catalog.Section(key)
		if err != nil || len(fs.Items) == 0 {
			continue
		}
		remaining = append(remaining, fs)
	}

	sort := sortOverride
	if sort == nil && root.Item != nil && len(root.Item.Sort) > 0 {
		sort = root.Item.Sort
	}

	return Result{
		Query:     join(parts),
		Remaining: remaining,
		Active:    active,
		Sort:      sort,
	}, nil
}

// join wraps each non-empty fragment in parentheses and ANDs them.
func join(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" AND ")
		}
		b.WriteByte('(')
		b.WriteString(p)
		b.WriteByte(')')
	}
	return b.String()
}
