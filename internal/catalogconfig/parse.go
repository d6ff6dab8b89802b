package catalogconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"opdsapi/internal/errs"
)

type document struct {
	BaseQuery  *string       `yaml:"base_query"`
	Sections   yaml.MapSlice `yaml:"sections"`
	Navigation yaml.MapSlice `yaml:"navigation"`
}

type sectionDoc struct {
	Title          string        `yaml:"title"`
	NeedsBaseQuery *bool         `yaml:"needs_base_query"`
	Facets         []string      `yaml:"facets"`
	Items          yaml.MapSlice `yaml:"items"`
}

type itemDoc struct {
	Title string   `yaml:"title"`
	Query string   `yaml:"query"`
	Sort  sortList `yaml:"sort"`
}

type navigationDoc struct {
	Title               string       `yaml:"title"`
	ShowSections        []string     `yaml:"show_sections"`
	ShowNavigationPages []string     `yaml:"show_navigation_pages"`
	FeaturedGroups      *featuredDoc `yaml:"featured_groups"`
}

type featuredDoc struct {
	Section string   `yaml:"section"`
	Groups  []string `yaml:"groups"`
}

// sortList accepts either a single sort expression or a list of them.
type sortList []string

func (s *sortList) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
	case string:
		if v != "" {
			*s = sortList{v}
		}
	case []any:
		out := make(sortList, 0, len(v))
		for _, e := range v {
			str, ok := e.(string)
			if !ok {
				return fmt.Errorf("sort must be a string or a list of strings, got element %T", e)
			}
			out = append(out, str)
		}
		*s = out
	default:
		return fmt.Errorf("sort must be a string or a list of strings, got %T", raw)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes and validates a catalog document. JSON and YAML are both
// accepted. Every problem found is reported; no partial catalog is returned.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, errs.Config(fmt.Errorf("decode: %w", err))
	}

	var problems []error
	if doc.BaseQuery == nil {
		problems = append(problems, errors.New("base_query is required"))
	}
	if len(doc.Sections) == 0 {
		problems = append(problems, errors.New("at least one section is required"))
	}

	c := &Catalog{
		sectionIdx: make(map[string]*Section, len(doc.Sections)),
		pageIdx:    make(map[string]*NavigationPage, len(doc.Navigation)),
	}
	if doc.BaseQuery != nil {
		c.BaseQuery = normalizeQuotes(*doc.BaseQuery)
	}

	for _, entry := range doc.Sections {
		key := fmt.Sprint(entry.Key)
		if c.sectionIdx[key] != nil {
			problems = append(problems, fmt.Errorf("duplicate section %q", key))
			continue
		}
		s, err := buildSection(key, entry.Value)
		if err != nil {
			problems = append(problems, fmt.Errorf("section %q: %w", key, err))
			continue
		}
		c.sections = append(c.sections, s)
		c.sectionIdx[key] = s
	}

	for _, entry := range doc.Navigation {
		key := fmt.Sprint(entry.Key)
		if c.pageIdx[key] != nil {
			problems = append(problems, fmt.Errorf("duplicate navigation page %q", key))
			continue
		}
		p, err := buildNavigationPage(key, entry.Value)
		if err != nil {
			problems = append(problems, fmt.Errorf("navigation %q: %w", key, err))
			continue
		}
		c.pages = append(c.pages, p)
		c.pageIdx[key] = p
	}

	problems = append(problems, c.checkReferences()...)
	if len(problems) > 0 {
		return nil, errs.Config(errors.Join(problems...))
	}
	return c, nil
}

func buildSection(key string, raw any) (*Section, error) {
	var sd sectionDoc
	if err := remarshal(raw, &sd); err != nil {
		return nil, err
	}

	s := &Section{
		Key:            key,
		Title:          sd.Title,
		NeedsBaseQuery: sd.NeedsBaseQuery == nil || *sd.NeedsBaseQuery,
		Facets:         sd.Facets,
		index:          make(map[string]int, len(sd.Items)),
	}

	var problems []error
	for _, entry := range sd.Items {
		itemKey := fmt.Sprint(entry.Key)
		if _, dup := s.index[itemKey]; dup {
			problems = append(problems, fmt.Errorf("duplicate item %q", itemKey))
			continue
		}
		var id itemDoc
		if err := remarshal(entry.Value, &id); err != nil {
			problems = append(problems, fmt.Errorf("item %q: %w", itemKey, err))
			continue
		}
		s.index[itemKey] = len(s.Items)
		s.Items = append(s.Items, QueryItem{
			Key:   itemKey,
			Title: id.Title,
			Query: normalizeQuotes(id.Query),
			Sort:  id.Sort,
		})
	}

	if err := validate.Struct(s); err != nil {
		problems = append(problems, err)
	}
	return s, errors.Join(problems...)
}

func buildNavigationPage(key string, raw any) (*NavigationPage, error) {
	var nd navigationDoc
	if err := remarshal(raw, &nd); err != nil {
		return nil, err
	}
	p := &NavigationPage{
		Key:                 key,
		Title:               nd.Title,
		ShowSections:        nd.ShowSections,
		ShowNavigationPages: nd.ShowNavigationPages,
	}
	if nd.FeaturedGroups != nil {
		p.FeaturedGroups = &FeaturedGroup{Section: nd.FeaturedGroups.Section, Groups: nd.FeaturedGroups.Groups}
	}
	if err := validate.Struct(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Catalog) checkReferences() []error {
	var problems []error
	for _, s := range c.sections {
		for _, f := range s.Facets {
			switch {
			case f == s.Key:
				problems = append(problems, fmt.Errorf("section %q: offers itself as a facet", s.Key))
			case c.sectionIdx[f] == nil:
				problems = append(problems, fmt.Errorf("section %q: facet references unknown section %q", s.Key, f))
			}
		}
	}
	for _, p := range c.pages {
		for _, key := range p.ShowSections {
			if c.sectionIdx[key] == nil {
				problems = append(problems, fmt.Errorf("navigation %q: show_sections references unknown section %q", p.Key, key))
			}
		}
		for _, key := range p.ShowNavigationPages {
			if c.pageIdx[key] == nil {
				problems = append(problems, fmt.Errorf("navigation %q: show_navigation_pages references unknown page %q", p.Key, key))
			}
		}
		if fg := p.FeaturedGroups; fg != nil {
			s := c.sectionIdx[fg.Section]
			if s == nil {
				problems = append(problems, fmt.Errorf("navigation %q: featured_groups references unknown section %q", p.Key, fg.Section))
				continue
			}
			for _, g := range fg.Groups {
				if _, ok := s.Item(g); !ok {
					problems = append(problems, fmt.Errorf("navigation %q: featured group %q not found in section %q", p.Key, g, fg.Section))
				}
			}
		}
	}
	return problems
}

// remarshal decodes one ordered node into a typed document struct.
func remarshal(node any, out any) error {
	if node == nil {
		return errors.New("value is empty")
	}
	b, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	return yaml.UnmarshalWithOptions(b, out, yaml.UseOrderedMap())
}

// The upstream query syntax only understands double quotes.
func normalizeQuotes(q string) string {
	return strings.ReplaceAll(q, "'", `"`)
}
