// Package render turns an element forest into static HTML for publication
// and editor previews.
package render

import (
	"html"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/livetemplate/pageforge"
	"github.com/livetemplate/pageforge/internal/security"
)

// Renderer serializes element forests to HTML. It holds no per-call state
// and is safe for concurrent use.
type Renderer struct {
	utilityClasses bool
	log            zerolog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger that receives render errors.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// WithUtilityClasses makes tw-* style entries render as class tokens.
func WithUtilityClasses(enabled bool) Option {
	return func(r *Renderer) { r.utilityClasses = enabled }
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRenderer = New()

// Render renders a forest with the default renderer.
func Render(forest []*pageforge.Element) string {
	return defaultRenderer.Render(forest)
}

// Render returns the page-content wrapper holding every element in order.
// Elements the renderer does not understand become visible placeholders and
// are logged.
func (r *Renderer) Render(forest []*pageforge.Element) string {
	out, errs := r.RenderWithErrors(forest)
	for _, err := range errs {
		r.log.Warn().Err(err).Msg("rendered placeholder for malformed element")
	}
	return out
}

// RenderWithErrors is Render that returns the placeholder errors instead of
// logging them.
func (r *Renderer) RenderWithErrors(forest []*pageforge.Element) (string, []error) {
	w := &writer{r: r}
	w.WriteString(`<div class="page-content">`)
	w.elements(forest)
	w.WriteString(`</div>`)
	return w.String(), w.errs
}

// RenderElement renders a single element and its subtree without the page
// wrapper.
func (r *Renderer) RenderElement(e *pageforge.Element) string {
	w := &writer{r: r}
	w.element(e)
	return w.String()
}

type writer struct {
	strings.Builder
	r    *Renderer
	errs []error
}

func (w *writer) elements(list []*pageforge.Element) {
	for _, e := range list {
		w.element(e)
	}
}

func (w *writer) element(e *pageforge.Element) {
	if e == nil {
		return
	}
	switch e.Type {
	case pageforge.TypeHeading:
		w.heading(e)
	case pageforge.TypeText:
		w.open("p", e, nil, e.Styles)
		w.text(e.Content)
		w.WriteString("</p>")
	case pageforge.TypeImage:
		w.image(e)
	case pageforge.TypeButton:
		w.button(e)
	case pageforge.TypeContainer:
		w.container(e)
	case pageforge.TypeForm:
		w.form(e)
	case pageforge.TypeVideo:
		w.video(e)
	case pageforge.TypeDivider:
		w.WriteString("<hr")
		w.classes(e, nil)
		w.style(e.Styles)
		w.WriteString(" />")
	case pageforge.TypeSpacer:
		w.spacer(e)
	default:
		w.placeholder(e)
	}
}

func (w *writer) heading(e *pageforge.Element) {
	tag := "h" + strconv.Itoa(e.HeadingLevel())
	w.open(tag, e, nil, e.Styles)
	w.text(e.Content)
	w.WriteString("</" + tag + ">")
}

func (w *writer) image(e *pageforge.Element) {
	w.WriteString("<img")
	w.attr("src", security.SafeMedia(e.Src))
	w.attr("alt", e.Alt)
	w.classes(e, nil)
	w.style(e.Styles)
	w.WriteString(" />")
}

func (w *writer) button(e *pageforge.Element) {
	variant := e.Variant
	switch variant {
	case pageforge.VariantPrimary, pageforge.VariantSecondary, pageforge.VariantOutline, pageforge.VariantText:
	default:
		variant = pageforge.VariantPrimary
	}
	classes := []string{"button", "button-" + variant}

	if e.Link != "" {
		w.WriteString("<a")
		w.attr("href", security.SafeLink(e.Link))
		w.attr("target", "_blank")
		w.attr("rel", "noopener noreferrer")
		w.classes(e, classes)
		w.style(e.Styles)
		w.WriteString(">")
		w.text(e.Content)
		w.WriteString("</a>")
		return
	}
	w.WriteString(`<button type="button"`)
	w.classes(e, classes)
	w.style(e.Styles)
	w.WriteString(">")
	w.text(e.Content)
	w.WriteString("</button>")
}

func (w *writer) container(e *pageforge.Element) {
	styles := e.Styles.Clone()
	layout := e.Layout
	switch layout {
	case pageforge.LayoutHorizontal:
		styles.Set("display", "flex")
		styles.Set("flexDirection", "row")
	case pageforge.LayoutGrid:
		styles.Set("display", "grid")
		styles.Set("gridTemplateColumns", "repeat("+strconv.Itoa(e.GridColumns())+", 1fr)")
	default:
		layout = pageforge.LayoutVertical
		styles.Set("display", "flex")
		styles.Set("flexDirection", "column")
	}

	w.WriteString("<div")
	w.attr("data-layout", layout)
	w.classes(e, nil)
	w.style(styles)
	w.WriteString(">")
	w.elements(e.Children)
	w.WriteString("</div>")
}

func (w *writer) spacer(e *pageforge.Element) {
	styles := pageforge.NewStyles("height", e.SpacerHeight())
	for _, s := range e.Styles.Entries() {
		if s.Property == "height" {
			continue
		}
		styles.Set(s.Property, s.Value)
	}
	w.WriteString(`<div aria-hidden="true"`)
	w.classes(e, nil)
	w.style(styles)
	w.WriteString("></div>")
}

func (w *writer) placeholder(e *pageforge.Element) {
	w.errs = append(w.errs, &pageforge.RenderError{ID: e.ID, Type: e.Type})
	w.WriteString(`<div class="render-error"`)
	w.attr("data-element-id", e.ID)
	w.WriteString(` style="border: 1px dashed #dc2626; padding: 8px; color: #dc2626;">`)
	w.text("Unsupported element type: " + string(e.Type))
	w.WriteString("</div>")
}

// open writes a start tag with the element's classes and style.
func (w *writer) open(tag string, e *pageforge.Element, classes []string, styles pageforge.Styles) {
	w.WriteString("<" + tag)
	w.classes(e, classes)
	w.style(styles)
	w.WriteString(">")
}

func (w *writer) attr(name, value string) {
	w.WriteString(" " + name + `="`)
	w.WriteString(html.EscapeString(value))
	w.WriteString(`"`)
}

func (w *writer) text(s string) {
	w.WriteString(html.EscapeString(s))
}

func (w *writer) style(styles pageforge.Styles) {
	if decl := Declarations(styles); decl != "" {
		w.attr("style", decl)
	}
}

func (w *writer) classes(e *pageforge.Element, base []string) {
	all := base
	if w.r.utilityClasses {
		all = append(append([]string(nil), base...), UtilityClasses(e.Styles)...)
	}
	if len(all) > 0 {
		w.attr("class", strings.Join(all, " "))
	}
}
