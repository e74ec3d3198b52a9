// Package pageforge is the page-document model of the page builder: typed
// elements, ordered style maps, documents, templates and the pure tree
// mutations the editor applies to them.
package pageforge

import "encoding/json"

// ElementType is the variant tag of an Element.
type ElementType string

const (
	TypeHeading   ElementType = "heading"
	TypeText      ElementType = "text"
	TypeImage     ElementType = "image"
	TypeButton    ElementType = "button"
	TypeContainer ElementType = "container"
	TypeForm      ElementType = "form"
	TypeVideo     ElementType = "video"
	TypeDivider   ElementType = "divider"
	TypeSpacer    ElementType = "spacer"
)

// Types lists every known variant in palette order.
var Types = []ElementType{
	TypeHeading, TypeText, TypeImage, TypeButton, TypeContainer,
	TypeForm, TypeVideo, TypeDivider, TypeSpacer,
}

// Known reports whether t is one of the supported variants.
func (t ElementType) Known() bool {
	for _, k := range Types {
		if k == t {
			return true
		}
	}
	return false
}

// Layout values for containers.
const (
	LayoutVertical   = "vertical"
	LayoutHorizontal = "horizontal"
	LayoutGrid       = "grid"
)

// Button variants.
const (
	VariantPrimary   = "primary"
	VariantSecondary = "secondary"
	VariantOutline   = "outline"
	VariantText      = "text"
)

// Form field kinds.
const (
	FieldText     = "text"
	FieldEmail    = "email"
	FieldNumber   = "number"
	FieldTextarea = "textarea"
	FieldSelect   = "select"
	FieldCheckbox = "checkbox"
	FieldRadio    = "radio"
)

// DefaultHeadingLevel is used when a heading carries no valid level.
const DefaultHeadingLevel = 2

// DefaultGridColumns is used when a grid container has no column count.
const DefaultGridColumns = 2

// DefaultSpacerHeight is used when a spacer has no height.
const DefaultSpacerHeight = "32px"

// Element is one node of a page. The Type tag decides which of the
// variant fields are meaningful; only containers carry Children.
type Element struct {
	ID     string      `json:"id"`
	Type   ElementType `json:"type"`
	Name   string      `json:"name"`
	Styles Styles      `json:"styles"`

	// heading, text, button
	Content string `json:"content,omitempty"`
	// heading
	Level int `json:"level,omitempty"`
	// image, video
	Src string `json:"src,omitempty"`
	Alt string `json:"alt,omitempty"`
	// button
	Link    string `json:"link,omitempty"`
	Variant string `json:"variant,omitempty"`
	// container
	Children []*Element `json:"children,omitempty"`
	Layout   string     `json:"layout,omitempty"`
	Columns  int        `json:"columns,omitempty"`
	// form
	Fields      []FormField `json:"fields,omitempty"`
	SubmitLabel string      `json:"submitLabel,omitempty"`
	Action      string      `json:"action,omitempty"`
	Method      string      `json:"method,omitempty"`
	// video
	Autoplay bool `json:"autoplay,omitempty"`
	Controls bool `json:"controls,omitempty"`
	Loop     bool `json:"loop,omitempty"`
	Muted    bool `json:"muted,omitempty"`
	// spacer
	Height string `json:"height,omitempty"`
}

// FormField is one input of a form element.
type FormField struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	Label       string        `json:"label"`
	Placeholder string        `json:"placeholder,omitempty"`
	Required    bool          `json:"required,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
}

// FieldOption is a choice of a select or radio field.
type FieldOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// IsContainer reports whether the element may hold children.
func (e *Element) IsContainer() bool {
	return e != nil && e.Type == TypeContainer
}

// HeadingLevel returns the element's level, or DefaultHeadingLevel when it
// is outside 1..6.
func (e *Element) HeadingLevel() int {
	if e.Level < 1 || e.Level > 6 {
		return DefaultHeadingLevel
	}
	return e.Level
}

// GridColumns returns the column count for grid layout.
func (e *Element) GridColumns() int {
	if e.Columns < 1 {
		return DefaultGridColumns
	}
	return e.Columns
}

// SpacerHeight returns the spacer height or its fallback.
func (e *Element) SpacerHeight() string {
	if e.Height == "" {
		return DefaultSpacerHeight
	}
	return e.Height
}

// FormMethod returns GET or POST; anything else maps to POST.
func (e *Element) FormMethod() string {
	switch e.Method {
	case "GET", "get", "Get":
		return "GET"
	default:
		return "POST"
	}
}

// Clone returns a deep copy of the element and its subtree.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := *e
	c.Styles = e.Styles.Clone()
	if e.Fields != nil {
		c.Fields = make([]FormField, len(e.Fields))
		for i, f := range e.Fields {
			c.Fields[i] = f
			if f.Options != nil {
				c.Fields[i].Options = append([]FieldOption(nil), f.Options...)
			}
		}
	}
	if e.Children != nil {
		c.Children = make([]*Element, len(e.Children))
		for i, child := range e.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// CloneForest deep copies a forest.
func CloneForest(forest []*Element) []*Element {
	if forest == nil {
		return nil
	}
	out := make([]*Element, len(forest))
	for i, e := range forest {
		out[i] = e.Clone()
	}
	return out
}

// MarshalJSON always writes a children array for containers so an empty
// container survives a round trip.
func (e Element) MarshalJSON() ([]byte, error) {
	type plain Element
	if e.Type != TypeContainer {
		return json.Marshal(plain(e))
	}
	children := e.Children
	if children == nil {
		children = []*Element{}
	}
	return json.Marshal(struct {
		plain
		Children []*Element `json:"children"`
	}{plain(e), children})
}

// UnmarshalJSON decodes an element, giving containers a non-nil children
// slice.
func (e *Element) UnmarshalJSON(data []byte) error {
	type plain Element
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = Element(p)
	if e.Type == TypeContainer && e.Children == nil {
		e.Children = []*Element{}
	}
	return nil
}

// Validate reports type-tag consistency problems in the element's subtree.
func (e *Element) Validate() []error {
	return ValidateForest([]*Element{e})
}
