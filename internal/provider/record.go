package provider

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"opdsapi/internal/platform/archiveorg"
)

type MediaType string

const (
	MediaTexts MediaType = "texts"
	MediaAudio MediaType = "audio"
)

// StringList is a value that is a single string or a list of strings.
// It marshals as a bare string when it holds exactly one value.
type StringList []string

func (l StringList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]string(l))
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Record is one normalized publication.
type Record struct {
	Identifier          string       `json:"identifier"`
	MediaType           MediaType    `json:"mediatype"`
	Title               string       `json:"title"`
	Published           string       `json:"published,omitempty"`
	NumberOfPages       int          `json:"numberOfPages,omitempty"`
	Duration            float64      `json:"duration,omitempty"`
	Author              StringList   `json:"author,omitempty"`
	Description         string       `json:"description,omitempty"`
	Language            StringList   `json:"language,omitempty"`
	Formats             []string     `json:"formats,omitempty"`
	ExternalIdentifiers []string     `json:"external_identifiers,omitempty"`
	AccessRestricted    bool         `json:"access_restricted"`
	Availability        Availability `json:"available_info"`

	Files []archiveorg.File `json:"-"`
}

// NewRecord normalizes an item's raw metadata.
func NewRecord(identifier string, item *archiveorg.Item) Record {
	md := item.Metadata
	lending := ParseLending(md)

	r := Record{
		Identifier:          identifier,
		MediaType:           mediaType(first(md["mediatype"])),
		Title:               first(md["title"]),
		Published:           first(md["publicdate"]),
		NumberOfPages:       cast.ToInt(firstAny(md["imagecount"])),
		Duration:            ParseRuntime(first(md["runtime"])),
		Author:              list(md["creator"]),
		Description:         description(md["description"]),
		Language:            languages(md["language"]),
		Formats:             formats(item.Files),
		ExternalIdentifiers: list(md["external-identifier"]),
		AccessRestricted:    lending.AccessRestricted != nil && *lending.AccessRestricted,
		Availability:        ComputeAvailability(lending),
		Files:               item.Files,
	}
	if r.Title == "" {
		r.Title = identifier
	}
	return r
}

func mediaType(v string) MediaType {
	if v == string(MediaAudio) {
		return MediaAudio
	}
	return MediaTexts
}

// ParseRuntime converts "H:MM:SS", "MM:SS" or plain seconds to seconds.
func ParseRuntime(v string) float64 {
	if v == "" {
		return 0
	}
	parts := strings.Split(v, ":")
	var total float64
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0
		}
		total = total*60 + f
	}
	return total
}

func description(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, strings.ReplaceAll(cast.ToString(e), "\n", "<br />"))
		}
		return strings.Join(parts, "<br><br>")
	default:
		return ""
	}
}

func languages(raw any) StringList {
	var out StringList
	for _, v := range list(raw) {
		if name := languageName(v); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// languageName maps an ISO 639 code to its English name. Longer values are
// taken to be names already.
func languageName(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || utf8.RuneCountInString(v) > 3 {
		return v
	}
	tag, err := language.Parse(v)
	if err != nil {
		return v
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return v
}

func formats(files []archiveorg.File) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range files {
		if f.Format == "" || seen[f.Format] {
			continue
		}
		seen[f.Format] = true
		out = append(out, f.Format)
	}
	return out
}

// list flattens a string-or-list metadata value.
func list(raw any) StringList {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		out := make(StringList, 0, len(v))
		for _, e := range v {
			if s := strings.TrimSpace(cast.ToString(e)); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		if s := strings.TrimSpace(cast.ToString(v)); s != "" {
			return StringList{s}
		}
		return nil
	}
}

func first(raw any) string {
	return cast.ToString(firstAny(raw))
}

func firstAny(raw any) any {
	if v, ok := raw.([]any); ok {
		if len(v) == 0 {
			return nil
		}
		return v[0]
	}
	return raw
}
