package catalog

import (
	"time"

	"github.com/goccy/go-json"

	"opdsapi/internal/provider"
)

const (
	MediaTypeOPDS        = "application/opds+json"
	MediaTypePublication = "application/opds-publication+json"
	MediaTypeProfile     = "application/opds-profile+json"
)

// Model is a built catalog. Nil slices are left out of the JSON document;
// a non-nil empty Publications is written as [].
type Model struct {
	Metadata     Metadata
	Links        []Link
	Publications []provider.Record
	Navigation   []Link
	Groups       []Group
	Facets       []Facet
}

type Metadata struct {
	Title string `json:"title"`
	// NumberOfItems is nil on navigation pages.
	NumberOfItems *int `json:"numberOfItems,omitempty"`
	ItemsPerPage  int  `json:"itemsPerPage,omitempty"`
	CurrentPage   int  `json:"currentPage,omitempty"`
}

type Link struct {
	Rel        string          `json:"rel,omitempty"`
	Href       string          `json:"href"`
	Type       string          `json:"type,omitempty"`
	Title      string          `json:"title,omitempty"`
	Templated  bool            `json:"templated,omitempty"`
	Height     int             `json:"height,omitempty"`
	Width      int             `json:"width,omitempty"`
	Properties *LinkProperties `json:"properties,omitempty"`
}

type LinkProperties struct {
	Availability        *LinkAvailability     `json:"availability,omitempty"`
	IndirectAcquisition []IndirectAcquisition `json:"indirectAcquisition,omitempty"`
}

type LinkAvailability struct {
	State string     `json:"state"`
	Until *time.Time `json:"until,omitempty"`
}

type IndirectAcquisition struct {
	Type  string                `json:"type"`
	Child []IndirectAcquisition `json:"child,omitempty"`
}

// Group is a featured preview on a navigation page.
type Group struct {
	Title         string
	NumberOfItems int
	Links         []Link
	Publications  []provider.Record
}

// Facet is one selectable refinement section; every link applies one item.
type Facet struct {
	Title string
	Links []Link
}

type titleMetadata struct {
	Title string `json:"title"`
}

type groupMetadata struct {
	Title         string `json:"title"`
	NumberOfItems int    `json:"numberOfItems"`
}

type groupJSON struct {
	Metadata     groupMetadata `json:"metadata"`
	Links        []Link        `json:"links"`
	Publications []Publication `json:"publications"`
}

type facetJSON struct {
	Metadata titleMetadata `json:"metadata"`
	Links    []Link        `json:"links"`
}

type modelJSON struct {
	Metadata     Metadata       `json:"metadata"`
	Links        []Link         `json:"links"`
	Publications *[]Publication `json:"publications,omitempty"`
	Navigation   []Link         `json:"navigation,omitempty"`
	Groups       []groupJSON    `json:"groups,omitempty"`
	Facets       []facetJSON    `json:"facets,omitempty"`
}

// MarshalJSON writes the OPDS 2.0 feed document.
func (m *Model) MarshalJSON() ([]byte, error) {
	out := modelJSON{
		Metadata:   m.Metadata,
		Links:      m.Links,
		Navigation: m.Navigation,
	}
	if out.Links == nil {
		out.Links = []Link{}
	}
	if m.Publications != nil {
		pubs := publications(m.Publications)
		out.Publications = &pubs
	}
	for _, g := range m.Groups {
		out.Groups = append(out.Groups, groupJSON{
			Metadata:     groupMetadata{Title: g.Title, NumberOfItems: g.NumberOfItems},
			Links:        g.Links,
			Publications: publications(g.Publications),
		})
	}
	for _, f := range m.Facets {
		out.Facets = append(out.Facets, facetJSON{
			Metadata: titleMetadata{Title: f.Title},
			Links:    f.Links,
		})
	}
	return json.Marshal(out)
}

func publications(records []provider.Record) []Publication {
	out := make([]Publication, 0, len(records))
	for _, r := range records {
		out = append(out, NewPublication(r))
	}
	return out
}
