package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/livetemplate/pageforge"
)

var (
	// ErrUnknownProperty is returned for a property the element type does
	// not have.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrInvalidValue is returned when a value cannot be parsed for its
	// property.
	ErrInvalidValue = errors.New("invalid value")
)

// Input is the control the editor panel shows for a property.
type Input string

const (
	InputText     Input = "text"
	InputTextarea Input = "textarea"
	InputColor    Input = "color"
	InputSelect   Input = "select"
	InputNumber   Input = "number"
	InputCheckbox Input = "checkbox"
)

// Target says where a property value is stored.
type Target string

const (
	// TargetStyle values live in the element's style map.
	TargetStyle Target = "style"
	// TargetField values live in a variant field of the element.
	TargetField Target = "field"
)

// Choice is one option of a select input.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PropertyDef describes one editable property.
type PropertyDef struct {
	Group       string   `json:"group"`
	Property    string   `json:"property"`
	Label       string   `json:"label"`
	Input       Input    `json:"input"`
	Options     []Choice `json:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Target      Target   `json:"target"`
}

func opts(pairs ...string) []Choice {
	out := make([]Choice, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Choice{Label: pairs[i], Value: pairs[i+1]})
	}
	return out
}

func fieldDef(group, property, label string, input Input, options ...Choice) PropertyDef {
	return PropertyDef{Group: group, Property: property, Label: label, Input: input, Options: options, Target: TargetField}
}

func styleDef(group, property, label string, input Input, placeholder string, options ...Choice) PropertyDef {
	return PropertyDef{Group: group, Property: property, Label: label, Input: input, Options: options, Placeholder: placeholder, Target: TargetStyle}
}

var (
	fontFamilies = opts(
		"Arial", "Arial, sans-serif",
		"Times New Roman", "'Times New Roman', serif",
		"Courier New", "'Courier New', monospace",
		"Georgia", "Georgia, serif",
		"Verdana", "Verdana, sans-serif",
		"Trebuchet MS", "'Trebuchet MS', sans-serif",
	)
	fontWeights = opts(
		"Normal", "normal", "Bold", "bold", "Lighter", "lighter", "Bolder", "bolder",
		"100", "100", "200", "200", "300", "300", "400", "400", "500", "500",
		"600", "600", "700", "700", "800", "800", "900", "900",
	)
	fontStyles   = opts("Normal", "normal", "Italic", "italic", "Oblique", "oblique")
	textAligns   = opts("Left", "left", "Center", "center", "Right", "right", "Justify", "justify")
	borderStyles = opts("None", "", "Solid", "solid", "Dashed", "dashed", "Dotted", "dotted")
	objectFits   = opts("Fill", "fill", "Contain", "contain", "Cover", "cover", "None", "none", "Scale Down", "scale-down")
	levels       = opts("H1", "1", "H2", "2", "H3", "3", "H4", "4", "H5", "5", "H6", "6")
	variants     = opts(
		"Primary", pageforge.VariantPrimary,
		"Secondary", pageforge.VariantSecondary,
		"Outline", pageforge.VariantOutline,
		"Text", pageforge.VariantText,
	)
	layouts = opts(
		"Vertical", pageforge.LayoutVertical,
		"Horizontal", pageforge.LayoutHorizontal,
		"Grid", pageforge.LayoutGrid,
	)
	methods = opts("POST", "POST", "GET", "GET")
)

func contentDefs(kind pageforge.ElementType) []PropertyDef {
	defs := []PropertyDef{fieldDef("Content", "name", "Name", InputText)}
	switch kind {
	case pageforge.TypeHeading:
		defs = append(defs,
			fieldDef("Content", "content", "Text", InputText),
			fieldDef("Content", "level", "Level", InputSelect, levels...))
	case pageforge.TypeText:
		defs = append(defs, fieldDef("Content", "content", "Text", InputTextarea))
	case pageforge.TypeImage:
		defs = append(defs,
			fieldDef("Content", "src", "Image URL", InputText),
			fieldDef("Content", "alt", "Alt Text", InputText))
	case pageforge.TypeButton:
		defs = append(defs,
			fieldDef("Content", "content", "Label", InputText),
			fieldDef("Content", "link", "Link", InputText),
			fieldDef("Content", "variant", "Variant", InputSelect, variants...))
	case pageforge.TypeContainer:
		defs = append(defs,
			fieldDef("Layout", "layout", "Layout", InputSelect, layouts...),
			fieldDef("Layout", "columns", "Columns", InputNumber))
	case pageforge.TypeForm:
		defs = append(defs,
			fieldDef("Content", "submitLabel", "Submit Label", InputText),
			fieldDef("Content", "action", "Action", InputText),
			fieldDef("Content", "method", "Method", InputSelect, methods...))
	case pageforge.TypeVideo:
		defs = append(defs,
			fieldDef("Content", "src", "Video URL", InputText),
			fieldDef("Playback", "autoplay", "Autoplay", InputCheckbox),
			fieldDef("Playback", "controls", "Controls", InputCheckbox),
			fieldDef("Playback", "loop", "Loop", InputCheckbox),
			fieldDef("Playback", "muted", "Muted", InputCheckbox))
	case pageforge.TypeSpacer:
		defs = append(defs, fieldDef("Dimensions", "height", "Height", InputText))
	}
	return defs
}

var typographyDefs = []PropertyDef{
	styleDef("Typography", "fontFamily", "Font Family", InputSelect, "", fontFamilies...),
	styleDef("Typography", "fontSize", "Font Size", InputText, "16px"),
	styleDef("Typography", "fontWeight", "Weight", InputSelect, "", fontWeights...),
	styleDef("Typography", "fontStyle", "Style", InputSelect, "", fontStyles...),
	styleDef("Typography", "lineHeight", "Line Height", InputText, "1.5"),
	styleDef("Typography", "color", "Color", InputColor, "#000000"),
	styleDef("Typography", "textAlign", "Alignment", InputSelect, "", textAligns...),
}

var commonDefs = []PropertyDef{
	styleDef("Spacing", "marginTop", "Margin Top", InputText, "0px"),
	styleDef("Spacing", "marginRight", "Margin Right", InputText, "0px"),
	styleDef("Spacing", "marginBottom", "Margin Bottom", InputText, "0px"),
	styleDef("Spacing", "marginLeft", "Margin Left", InputText, "0px"),
	styleDef("Spacing", "paddingTop", "Padding Top", InputText, "0px"),
	styleDef("Spacing", "paddingRight", "Padding Right", InputText, "0px"),
	styleDef("Spacing", "paddingBottom", "Padding Bottom", InputText, "0px"),
	styleDef("Spacing", "paddingLeft", "Padding Left", InputText, "0px"),
	styleDef("Background", "backgroundColor", "Color", InputColor, "#ffffff"),
	styleDef("Border", "borderWidth", "Width", InputText, "0px"),
	styleDef("Border", "borderStyle", "Style", InputSelect, "", borderStyles...),
	styleDef("Border", "borderColor", "Color", InputColor, "#000000"),
	styleDef("Border", "borderRadius", "Radius", InputText, "0px"),
}

// Schema returns the ordered property table for an element type: content
// fields first, then style groups.
func Schema(kind pageforge.ElementType) []PropertyDef {
	defs := contentDefs(kind)
	switch kind {
	case pageforge.TypeHeading, pageforge.TypeText, pageforge.TypeButton:
		defs = append(defs, typographyDefs...)
	}
	switch kind {
	case pageforge.TypeImage, pageforge.TypeVideo, pageforge.TypeContainer, pageforge.TypeDivider, pageforge.TypeButton:
		defs = append(defs,
			styleDef("Dimensions", "width", "Width", InputText, "100%"),
			styleDef("Dimensions", "height", "Height", InputText, "auto"))
	}
	if kind == pageforge.TypeImage {
		defs = append(defs, styleDef("Dimensions", "objectFit", "Object Fit", InputSelect, "", objectFits...))
	}
	return append(defs, commonDefs...)
}

// Lookup finds the definition of property for kind.
func Lookup(kind pageforge.ElementType, property string, target Target) (PropertyDef, bool) {
	for _, d := range Schema(kind) {
		if d.Property == property && d.Target == target {
			return d, true
		}
	}
	return PropertyDef{}, false
}

// ApplyStyleChange sets a style on the element with the given id. An empty
// value removes the key. A spacer's height goes to its dedicated field.
// Style keys outside the schema are accepted; the style map is open.
func ApplyStyleChange(forest []*pageforge.Element, id, property, value string) ([]*pageforge.Element, error) {
	property = strings.TrimSpace(property)
	if property == "" {
		return forest, fmt.Errorf("style change on %q: %w", id, ErrUnknownProperty)
	}
	return pageforge.UpdateByID(forest, id, func(e *pageforge.Element) {
		if e.Type == pageforge.TypeSpacer && property == "height" {
			e.Height = value
			return
		}
		if value == "" {
			e.Styles.Delete(property)
			return
		}
		e.Styles.Set(property, value)
	})
}

// ApplyPropertyChange sets a variant field on the element with the given
// id, parsing numbers and booleans. Properties the element type does not
// have are rejected.
func ApplyPropertyChange(forest []*pageforge.Element, id, property, value string) ([]*pageforge.Element, error) {
	elem, ok := pageforge.FindByID(forest, id)
	if !ok {
		return forest, &pageforge.NotFoundError{Op: "property", ID: id}
	}
	if _, ok := Lookup(elem.Type, property, TargetField); !ok {
		return forest, fmt.Errorf("%s on %s: %w", property, elem.Type, ErrUnknownProperty)
	}
	set, err := setter(property, value)
	if err != nil {
		return forest, err
	}
	return pageforge.UpdateByID(forest, id, set)
}

func setter(property, value string) (func(*pageforge.Element), error) {
	switch property {
	case "name":
		return func(e *pageforge.Element) { e.Name = value }, nil
	case "content":
		return func(e *pageforge.Element) { e.Content = value }, nil
	case "src":
		return func(e *pageforge.Element) { e.Src = strings.TrimSpace(value) }, nil
	case "alt":
		return func(e *pageforge.Element) { e.Alt = value }, nil
	case "link":
		return func(e *pageforge.Element) { e.Link = strings.TrimSpace(value) }, nil
	case "submitLabel":
		return func(e *pageforge.Element) { e.SubmitLabel = value }, nil
	case "action":
		return func(e *pageforge.Element) { e.Action = strings.TrimSpace(value) }, nil
	case "height":
		return func(e *pageforge.Element) { e.Height = strings.TrimSpace(value) }, nil
	case "level":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 1 || n > 6 {
			return nil, fmt.Errorf("level %q: %w", value, ErrInvalidValue)
		}
		return func(e *pageforge.Element) { e.Level = n }, nil
	case "columns":
		n := 0
		if v := strings.TrimSpace(value); v != "" {
			var err error
			if n, err = strconv.Atoi(v); err != nil || n < 1 {
				return nil, fmt.Errorf("columns %q: %w", value, ErrInvalidValue)
			}
		}
		return func(e *pageforge.Element) { e.Columns = n }, nil
	case "variant":
		if !hasChoice(variants, value) {
			return nil, fmt.Errorf("variant %q: %w", value, ErrInvalidValue)
		}
		return func(e *pageforge.Element) { e.Variant = value }, nil
	case "layout":
		if !hasChoice(layouts, value) {
			return nil, fmt.Errorf("layout %q: %w", value, ErrInvalidValue)
		}
		return func(e *pageforge.Element) { e.Layout = value }, nil
	case "method":
		m := strings.ToUpper(strings.TrimSpace(value))
		if !hasChoice(methods, m) {
			return nil, fmt.Errorf("method %q: %w", value, ErrInvalidValue)
		}
		return func(e *pageforge.Element) { e.Method = m }, nil
	case "autoplay", "controls", "loop", "muted":
		b, err := parseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", property, value, ErrInvalidValue)
		}
		return func(e *pageforge.Element) {
			switch property {
			case "autoplay":
				e.Autoplay = b
			case "controls":
				e.Controls = b
			case "loop":
				e.Loop = b
			case "muted":
				e.Muted = b
			}
		}, nil
	}
	return nil, fmt.Errorf("%s: %w", property, ErrUnknownProperty)
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "off":
		return false, nil
	case "on":
		return true, nil
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}

func hasChoice(list []Choice, value string) bool {
	for _, o := range list {
		if o.Value == value {
			return true
		}
	}
	return false
}
