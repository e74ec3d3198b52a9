package editor

import (
	"github.com/livetemplate/pageforge"
)

func text(id string) *pageforge.Element {
	return &pageforge.Element{ID: id, Type: pageforge.TypeText, Name: "Text " + id, Content: id}
}

func box(id string, children ...*pageforge.Element) *pageforge.Element {
	if children == nil {
		children = []*pageforge.Element{}
	}
	return &pageforge.Element{ID: id, Type: pageforge.TypeContainer, Name: "Box " + id, Layout: pageforge.LayoutVertical, Children: children}
}

// sample builds a, b[c, d[e]], f.
func sample() []*pageforge.Element {
	return []*pageforge.Element{
		text("a"),
		box("b", text("c"), box("d", text("e"))),
		text("f"),
	}
}

func ids(list []*pageforge.Element) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.ID)
	}
	return out
}

func childIDs(forest []*pageforge.Element, id string) []string {
	e, ok := pageforge.FindByID(forest, id)
	if !ok {
		return nil
	}
	return ids(e.Children)
}

func mustTemplate(kind pageforge.ElementType) *pageforge.Template {
	t, ok := pageforge.TemplateFor(kind)
	if !ok {
		panic("no template for " + string(kind))
	}
	return t
}
