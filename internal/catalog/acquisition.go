package catalog

import (
	"fmt"
	"slices"
	"strings"

	"opdsapi/internal/provider"
)

const (
	archiveDetailsURL  = "https://archive.org/details"
	archiveDownloadURL = "https://archive.org/download"
	archiveThumbnail   = "__ia_thumb.jpg"
	loanSelfURL        = "https://archive.org/services/loans/loan/?action=webpub"
	loanBorrowURL      = "https://archive.org/services/loans/loan/?opds=1"
	acquisitionTitle   = "Internet Archive"

	relOpenAccess = "http://opds-spec.org/acquisition/open-access"
	relBorrow     = "http://opds-spec.org/acquisition/borrow"
	relSample     = "http://opds-spec.org/acquisition/sample"

	typeLCPLicense = "application/vnd.readium.lcp.license.v1.0+json"

	freeEPUBFormat = "Remediated EPUB"
)

// lcpChildTypes maps the extension in an urn:lcp external identifier to the
// protected content type.
var lcpChildTypes = map[string]string{
	"pdf":   "application/pdf",
	"epub":  "application/epub+zip",
	"lcpau": "application/audiobook+lcp",
	"lcpdf": "application/pdf+lcp",
}

type Contributor struct {
	Name string `json:"name"`
}

type PublicationMetadata struct {
	Type          string        `json:"@type"`
	Title         string        `json:"title"`
	Identifier    string        `json:"identifier"`
	Author        []Contributor `json:"author,omitempty"`
	Language      []string      `json:"language,omitempty"`
	Published     string        `json:"published,omitempty"`
	NumberOfPages int           `json:"numberOfPages,omitempty"`
	Duration      float64       `json:"duration,omitempty"`
	Description   string        `json:"description,omitempty"`
}

// Publication is the OPDS publication document of one record.
type Publication struct {
	Metadata PublicationMetadata `json:"metadata"`
	Links    []Link              `json:"links"`
	Images   []Link              `json:"images"`
}

func NewPublication(r provider.Record) Publication {
	md := PublicationMetadata{
		Type:          "http://schema.org/Book",
		Title:         r.Title,
		Identifier:    archiveDetailsURL + "/" + r.Identifier,
		Language:      r.Language,
		Published:     r.Published,
		NumberOfPages: r.NumberOfPages,
		Duration:      r.Duration,
		Description:   r.Description,
	}
	if r.MediaType == provider.MediaAudio {
		md.Type = "http://schema.org/Audiobook"
	}
	for _, a := range r.Author {
		md.Author = append(md.Author, Contributor{Name: a})
	}

	links := []Link{{
		Rel:  relSample,
		Type: "text/html",
		Href: fmt.Sprintf("%s/%s&view=theater", archiveDetailsURL, r.Identifier),
	}}
	links = append(links, acquisitionLinks(r)...)

	return Publication{Metadata: md, Links: links, Images: Images(r.Identifier)}
}

// Images are the cover links of an item.
func Images(identifier string) []Link {
	href := fmt.Sprintf("%s/%s/%s", archiveDownloadURL, identifier, archiveThumbnail)
	return []Link{
		{Rel: "cover", Href: href, Type: "image/jpeg", Height: 1400, Width: 800},
		{Href: href, Type: "image/jpeg", Height: 700, Width: 400},
	}
}

func acquisitionLinks(r provider.Record) []Link {
	if !r.AccessRestricted {
		self := Link{
			Rel:   "self",
			Type:  MediaTypePublication,
			Href:  fmt.Sprintf("%s&identifier=%s", loanSelfURL, r.Identifier),
			Title: acquisitionTitle,
		}
		return append([]Link{self}, openAccessLinks(r)...)
	}

	self := Link{
		Rel:   "self",
		Type:  MediaTypePublication,
		Href:  fmt.Sprintf("%s&identifier=%s&opds=1", loanSelfURL, r.Identifier),
		Title: acquisitionTitle,
	}
	return []Link{self, borrowLink(r)}
}

func openAccessLinks(r provider.Record) []Link {
	available := func() *LinkProperties {
		return &LinkProperties{Availability: &LinkAvailability{State: "available"}}
	}

	switch r.MediaType {
	case provider.MediaAudio:
		return []Link{{
			Rel:        relOpenAccess,
			Type:       "application/audiobook+json",
			Href:       "/audiobooks/" + r.Identifier,
			Title:      acquisitionTitle,
			Properties: available(),
		}}
	default:
		links := []Link{{
			Rel:        relOpenAccess,
			Type:       "application/pdf",
			Href:       fmt.Sprintf("/book/%s?glob_pattern=*pdf", r.Identifier),
			Title:      acquisitionTitle,
			Properties: available(),
		}}
		if slices.Contains(r.Formats, freeEPUBFormat) {
			links = append(links, Link{
				Rel:        relOpenAccess,
				Type:       "application/epub+zip",
				Href:       fmt.Sprintf("/book/%s?glob_pattern=*epub", r.Identifier),
				Title:      acquisitionTitle,
				Properties: available(),
			})
		}
		return links
	}
}

func borrowLink(r provider.Record) Link {
	availability := linkAvailability(r.Availability)
	link := Link{
		Rel:        relBorrow,
		Type:       MediaTypePublication,
		Title:      acquisitionTitle,
		Properties: &LinkProperties{Availability: availability},
	}
	if availability.State != "available" || len(r.ExternalIdentifiers) == 0 {
		return link
	}

	link.Href = fmt.Sprintf("%s&identifier=%s&action=webpub", loanBorrowURL, r.Identifier)
	var filenameBase string
	for _, ext := range r.ExternalIdentifiers {
		info, ok := parseLCP(ext)
		if !ok {
			continue
		}
		if filenameBase == "" {
			filenameBase = info.filenameBase
		}
		link.Properties.IndirectAcquisition = append(link.Properties.IndirectAcquisition, IndirectAcquisition{
			Type:  typeLCPLicense,
			Child: []IndirectAcquisition{{Type: info.contentType}},
		})
	}
	if filenameBase != "" && filenameBase != r.Identifier {
		link.Href += "&filename_base=" + filenameBase
	}
	return link
}

// linkAvailability folds the record status into the two OPDS states a
// borrow link can carry.
func linkAvailability(a provider.Availability) *LinkAvailability {
	switch a.Status {
	case provider.StatusAvailable, provider.StatusOpen:
		return &LinkAvailability{State: "available"}
	default:
		return &LinkAvailability{State: "unavailable", Until: a.Until}
	}
}

type lcpInfo struct {
	filenameBase string
	contentType  string
}

// parseLCP reads urn:lcp:<filename_base>:<ext>:<uuid>.
func parseLCP(ext string) (lcpInfo, bool) {
	parts := strings.Split(ext, ":")
	if len(parts) < 4 || parts[0] != "urn" || parts[1] != "lcp" {
		return lcpInfo{}, false
	}
	ct, ok := lcpChildTypes[parts[3]]
	if !ok {
		return lcpInfo{}, false
	}
	return lcpInfo{filenameBase: parts[2], contentType: ct}, true
}
