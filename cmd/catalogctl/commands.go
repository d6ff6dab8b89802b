package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"opdsapi/internal/catalogconfig"
	"opdsapi/internal/query"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Inspect OPDS catalog configuration documents",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newValidateCommand(), newComposeCommand(), newNavCommand())
	return root
}

func loadCatalog(path string) (*catalogconfig.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return catalogconfig.Parse(data)
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "validate <file>",
		Short:   "Parse a document and report every problem in it",
		Args:    cobra.ExactArgs(1),
		Example: `  catalogctl validate db/catalog.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d sections, %d navigation pages\n",
				len(c.Sections()), len(c.NavigationPages()))
			return nil
		},
	}
}

func newComposeCommand() *cobra.Command {
	var (
		file    string
		section string
		item    string
		text    string
		facets  []string
	)
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Print the search query, sort and remaining facets for a browse or scoped search",
		Example: `  catalogctl compose --section categories --item adventure
  catalogctl compose --section categories --item adventure --facet languages=english
  catalogctl compose --section categories --item adventure --query "treasure island"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(file)
			if err != nil {
				return err
			}
			s, err := c.Section(section)
			if err != nil {
				return err
			}
			qi, err := c.Item(section, item)
			if err != nil {
				return err
			}

			selections := make([]query.Selection, 0, len(facets))
			for _, f := range facets {
				fs, fi, ok := strings.Cut(f, "=")
				if !ok || fs == "" || fi == "" {
					return fmt.Errorf("facet %q is not section=item", f)
				}
				selections = append(selections, query.Selection{Section: fs, Item: fi})
			}

			root := query.Root{Section: s, Item: &qi, Origin: query.OriginItem}
			if text != "" {
				root.Origin = query.OriginFreeText
				root.Text = text
				root.Scoped = true
			}
			res, err := query.NewComposer(c).Compose(root, selections)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "query: %s\n", res.Query)
			fmt.Fprintf(out, "sort:  %s\n", strings.Join(res.Sort, ", "))
			for _, r := range res.Remaining {
				fmt.Fprintf(out, "facet: %s (%s, %d items)\n", r.Key, r.Title, len(r.Items))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "db/catalog.json", "catalog configuration document")
	cmd.Flags().StringVar(&section, "section", "", "section key")
	cmd.Flags().StringVar(&item, "item", "", "item key")
	cmd.Flags().StringVarP(&text, "query", "q", "", "free-text search scoped to the item")
	cmd.Flags().StringArrayVar(&facets, "facet", nil, "applied facet as section=item, repeatable")
	_ = cmd.MarkFlagRequired("section")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newNavCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     "nav <key>",
		Short:   "Print the outline of a navigation page",
		Args:    cobra.ExactArgs(1),
		Example: `  catalogctl nav main`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(file)
			if err != nil {
				return err
			}
			p, err := c.NavigationPage(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", p.Title, p.Key)
			for _, key := range p.ShowSections {
				s, err := c.Section(key)
				if err != nil {
					continue
				}
				fmt.Fprintf(out, "  section %s\n", s.Title)
				for _, it := range s.Items {
					fmt.Fprintf(out, "    %s -> type=browse&section=%s&item=%s\n", it.Title, s.Key, it.Key)
				}
			}
			for _, key := range p.ShowNavigationPages {
				if sub, err := c.NavigationPage(key); err == nil {
					fmt.Fprintf(out, "  page %s -> type=navigation&nav_key=%s\n", sub.Title, sub.Key)
				}
			}
			if fg := p.FeaturedGroups; fg != nil {
				fmt.Fprintf(out, "  featured from %s: %s\n", fg.Section, strings.Join(fg.Groups, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "db/catalog.json", "catalog configuration document")
	return cmd
}
