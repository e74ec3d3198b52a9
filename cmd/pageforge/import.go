package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/livetemplate/pageforge/internal/config"
	"github.com/livetemplate/pageforge/internal/importer"
	"github.com/livetemplate/pageforge/internal/pages"
	"github.com/livetemplate/pageforge/internal/store"
)

var (
	importOutput  string
	importCreate  bool
	importSlug    string
	importTitle   string
	importPublish bool
)

var importCmd = &cobra.Command{
	Use:   "import <file.md|->",
	Short: "Convert Markdown into page content",
	Long: `Import converts a Markdown document into page elements. The content is
written to stdout (or --output). With --create a page is stored instead,
titled from the frontmatter or the first heading.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		doc, err := importer.Parse(data)
		if err != nil {
			return err
		}
		for _, s := range doc.Skipped {
			logger.Warn().Str("construct", s).Msg("markdown construct skipped")
		}
		content, err := doc.Content()
		if err != nil {
			return err
		}

		if !importCreate {
			if importOutput != "" {
				return os.WriteFile(importOutput, []byte(content+"\n"), 0o644)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), content)
			return err
		}

		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		ctx := context.Background()
		owner := config.GetOperator()
		p, err := b.pages.Create(ctx, owner, createInput(doc, content, args[0]))
		if err != nil {
			return err
		}
		if importPublish {
			if p, err = b.pages.Publish(ctx, owner, p.ID); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s /p/%s (%s)\n", p.ID, p.Slug, p.Status)
		return nil
	},
}

// createInput fills page metadata from flags, then frontmatter, then the
// file name.
func createInput(doc *importer.Document, content, name string) pages.CreateInput {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "-" {
		base = ""
	}

	in := pages.CreateInput{
		Title:       firstNonEmpty(importTitle, doc.Title(), base),
		Description: doc.Meta.Description,
		Slug: firstNonEmpty(
			pages.NormalizeSlug(importSlug),
			pages.NormalizeSlug(doc.Meta.Slug),
			slugify(base),
			slugify(doc.Title()),
		),
		Content:  content,
		MetaTags: store.MetaTags{
			Title:       doc.Meta.Title,
			Description: doc.Meta.Description,
			Keywords:    strings.Join(doc.Meta.Keywords, ", "),
		},
	}
	if s := store.Status(doc.Meta.Status); s.Valid() {
		in.Status = s
	}
	return in
}

// slugify lowercases s and joins its words with dashes.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Write content to this file instead of stdout")
	importCmd.Flags().BoolVar(&importCreate, "create", false, "Store the result as a new page")
	importCmd.Flags().StringVar(&importSlug, "slug", "", "Slug of the created page")
	importCmd.Flags().StringVar(&importTitle, "title", "", "Title of the created page")
	importCmd.Flags().BoolVar(&importPublish, "publish", false, "Publish the created page")
}
