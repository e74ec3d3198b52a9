// Package importer converts Markdown documents into page elements.
package importer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/livetemplate/pageforge"
)

// Frontmatter is the optional YAML header of an imported document.
type Frontmatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Slug        string   `yaml:"slug"`
	Keywords    []string `yaml:"keywords"`
	Status      string   `yaml:"status"`
}

// Document is the result of an import.
type Document struct {
	Meta     Frontmatter
	Elements []*pageforge.Element
	// Skipped names the Markdown constructs that have no element
	// counterpart, such as raw HTML blocks.
	Skipped []string
}

// Content returns the elements in the stored content format.
func (d *Document) Content() (string, error) {
	return pageforge.EncodeForest(d.Elements)
}

// Title returns the frontmatter title, else the text of the first
// top-level heading.
func (d *Document) Title() string {
	if d.Meta.Title != "" {
		return d.Meta.Title
	}
	for _, e := range d.Elements {
		if e.Type == pageforge.TypeHeading {
			return e.Content
		}
	}
	return ""
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Parse converts src into elements. Headings, paragraphs, images, thematic
// breaks, lists, code blocks, block quotes and tables map to elements; a
// paragraph holding a single link becomes a button.
func Parse(src []byte) (*Document, error) {
	meta, body, err := extractFrontmatter(src)
	if err != nil {
		return nil, err
	}

	root := markdown.Parser().Parse(text.NewReader(body))
	c := &converter{source: body}
	doc := &Document{Meta: meta}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		doc.Elements = append(doc.Elements, c.block(n)...)
	}
	doc.Skipped = c.skipped
	if doc.Elements == nil {
		doc.Elements = []*pageforge.Element{}
	}
	return doc, nil
}

// extractFrontmatter splits a leading "---" delimited YAML header from the
// body.
func extractFrontmatter(content []byte) (Frontmatter, []byte, error) {
	var fm Frontmatter
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return fm, content, nil
	}

	end := bytes.Index(content[4:], []byte("\n---"))
	if end == -1 {
		return fm, nil, fmt.Errorf("unclosed frontmatter")
	}
	header := content[4 : 4+end]
	rest := content[4+end+4:]
	rest = bytes.TrimPrefix(rest, []byte("\n"))

	if err := yaml.Unmarshal(header, &fm); err != nil {
		return fm, nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	return fm, rest, nil
}

type converter struct {
	source  []byte
	skipped []string
}

func newElement(t pageforge.ElementType, name string) *pageforge.Element {
	e, _ := pageforge.NewElement(t)
	e.Name = name
	return e
}

func (c *converter) block(n ast.Node) []*pageforge.Element {
	switch n := n.(type) {
	case *ast.Heading:
		e := newElement(pageforge.TypeHeading, "Heading")
		e.Level = n.Level
		e.Content = c.inline(n)
		return []*pageforge.Element{e}

	case *ast.Paragraph, *ast.TextBlock:
		return c.paragraph(n)

	case *ast.ThematicBreak:
		return []*pageforge.Element{newElement(pageforge.TypeDivider, "Divider")}

	case *ast.List:
		return []*pageforge.Element{c.list(n)}

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		e := newElement(pageforge.TypeText, "Code")
		e.Content = strings.TrimRight(c.lines(n), "\n")
		e.Styles.Set("fontFamily", "monospace")
		e.Styles.Set("whiteSpace", "pre-wrap")
		e.Styles.Set("backgroundColor", "#f3f4f6")
		e.Styles.Set("padding", "12px")
		return []*pageforge.Element{e}

	case *ast.Blockquote:
		var parts []string
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			parts = append(parts, c.inline(child))
		}
		e := newElement(pageforge.TypeText, "Quote")
		e.Content = strings.Join(parts, "\n")
		e.Styles.Set("fontStyle", "italic")
		e.Styles.Set("borderLeft", "4px solid #e5e7eb")
		e.Styles.Set("padding", "0 0 0 16px")
		return []*pageforge.Element{e}

	case *east.Table:
		return []*pageforge.Element{c.table(n)}

	case *ast.HTMLBlock:
		c.skipped = append(c.skipped, "html block")
		return nil
	}
	c.skipped = append(c.skipped, n.Kind().String())
	return nil
}

// paragraph maps a paragraph to images, a button or a text element.
func (c *converter) paragraph(n ast.Node) []*pageforge.Element {
	var (
		images []*pageforge.Element
		links  []*ast.Link
		other  bool
	)
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child := child.(type) {
		case *ast.Image:
			e := newElement(pageforge.TypeImage, "Image")
			e.Src = string(child.Destination)
			e.Alt = c.inline(child)
			images = append(images, e)
		case *ast.Link:
			links = append(links, child)
		case *ast.Text:
			if len(bytes.TrimSpace(child.Segment.Value(c.source))) > 0 {
				other = true
			}
		default:
			other = true
		}
	}

	switch {
	case !other && len(links) == 0 && len(images) > 0:
		return images
	case !other && len(images) == 0 && len(links) == 1:
		e := newElement(pageforge.TypeButton, "Button")
		e.Content = c.inline(links[0])
		e.Link = string(links[0].Destination)
		return []*pageforge.Element{e}
	}

	e := newElement(pageforge.TypeText, "Text")
	e.Content = c.inline(n)
	return []*pageforge.Element{e}
}

// list maps a list to a vertical container with one text per item.
// Nested lists become nested containers.
func (c *converter) list(n *ast.List) *pageforge.Element {
	box := newElement(pageforge.TypeContainer, "List")
	box.Layout = pageforge.LayoutVertical
	box.Styles.Set("gap", "4px")
	box.Styles.Set("border", "none")

	number := n.Start
	if number == 0 {
		number = 1
	}
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if n.IsOrdered() {
			marker = strconv.Itoa(number) + ". "
			number++
		}
		var parts []string
		var nested []*pageforge.Element
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			if sub, ok := child.(*ast.List); ok {
				nested = append(nested, c.list(sub))
				continue
			}
			parts = append(parts, c.inline(child))
		}
		e := newElement(pageforge.TypeText, "List Item")
		e.Content = marker + strings.Join(parts, "\n")
		e.Styles.Set("margin", "0")
		box.Children = append(box.Children, e)
		box.Children = append(box.Children, nested...)
	}
	return box
}

// table maps a GFM table to a grid container of text cells.
func (c *converter) table(n *east.Table) *pageforge.Element {
	grid := newElement(pageforge.TypeContainer, "Table")
	grid.Layout = pageforge.LayoutGrid
	grid.Columns = len(n.Alignments)
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		_, header := row.(*east.TableHeader)
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			e := newElement(pageforge.TypeText, "Cell")
			e.Content = c.inline(cell)
			e.Styles.Set("margin", "0")
			if header {
				e.Styles.Set("fontWeight", "bold")
			}
			grid.Children = append(grid.Children, e)
		}
	}
	return grid
}

// inline flattens the inline content of n to plain text.
func (c *converter) inline(n ast.Node) string {
	var buf strings.Builder
	c.writeInline(&buf, n)
	return strings.TrimSpace(buf.String())
}

func (c *converter) writeInline(buf *strings.Builder, n ast.Node) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child := child.(type) {
		case *ast.Text:
			buf.Write(child.Segment.Value(c.source))
			switch {
			case child.HardLineBreak():
				buf.WriteByte('\n')
			case child.SoftLineBreak():
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(child.Value)
		case *ast.AutoLink:
			buf.Write(child.URL(c.source))
		case *ast.RawHTML:
			// dropped
		default:
			c.writeInline(buf, child)
		}
	}
}

func (c *converter) lines(n ast.Node) string {
	var buf strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(c.source))
	}
	return buf.String()
}
