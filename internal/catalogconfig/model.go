package catalogconfig

import (
	"opdsapi/internal/errs"
)

// QueryItem is a browseable leaf: a titled search fragment.
type QueryItem struct {
	Key   string   `validate:"required"`
	Title string   `validate:"required"`
	Query string
	Sort  []string `validate:"dive,required"`
}

// Section groups items. Facets names the other sections offered as
// refinements while this section is being browsed.
type Section struct {
	Key            string      `validate:"required"`
	Title          string      `validate:"required"`
	NeedsBaseQuery bool
	Facets         []string    `validate:"unique,dive,required"`
	Items          []QueryItem `validate:"dive"`

	index map[string]int
}

// Item looks up an item by key.
func (s *Section) Item(key string) (QueryItem, bool) {
	i, ok := s.index[key]
	if !ok {
		return QueryItem{}, false
	}
	return s.Items[i], true
}

type FeaturedGroup struct {
	Section string   `validate:"required"`
	Groups  []string `validate:"min=1,unique,dive,required"`
}

type NavigationPage struct {
	Key                 string         `validate:"required"`
	Title               string         `validate:"required"`
	ShowSections        []string       `validate:"unique,dive,required"`
	ShowNavigationPages []string       `validate:"unique,dive,required"`
	FeaturedGroups      *FeaturedGroup `validate:"omitnil"`
}

// Catalog is the parsed configuration document. It is never mutated after
// Parse returns and is safe for concurrent readers.
type Catalog struct {
	BaseQuery string

	sections   []*Section
	sectionIdx map[string]*Section
	pages      []*NavigationPage
	pageIdx    map[string]*NavigationPage
}

func (c *Catalog) Section(key string) (*Section, error) {
	s, ok := c.sectionIdx[key]
	if !ok {
		return nil, errs.NotFound("section %q not found", key)
	}
	return s, nil
}

func (c *Catalog) NavigationPage(key string) (*NavigationPage, error) {
	p, ok := c.pageIdx[key]
	if !ok {
		return nil, errs.NotFound("navigation page %q not found", key)
	}
	return p, nil
}

func (c *Catalog) Item(section, key string) (QueryItem, error) {
	s, err := c.Section(section)
	if err != nil {
		return QueryItem{}, err
	}
	item, ok := s.Item(key)
	if !ok {
		return QueryItem{}, errs.NotFound("item %q not found in section %q", key, section)
	}
	return item, nil
}

// Sections returns the sections in document order.
func (c *Catalog) Sections() []*Section {
	return c.sections
}

// NavigationPages returns the navigation pages in document order.
func (c *Catalog) NavigationPages() []*NavigationPage {
	return c.pages
}
