package pageforge

import "github.com/google/uuid"

// NewID returns a fresh element identifier.
func NewID() string {
	return uuid.NewString()
}

// Template is a named default-property blueprint for one element type.
type Template struct {
	Type     ElementType `json:"type"`
	Name     string      `json:"name"`
	Icon     string      `json:"icon"`
	Defaults *Element    `json:"defaultProps"`
}

// Instantiate materializes a new element from the template with a fresh id.
// Form fields get fresh ids as well so two forms never share field names.
func (t *Template) Instantiate() *Element {
	e := t.Defaults.Clone()
	e.ID = NewID()
	for i := range e.Fields {
		e.Fields[i].ID = NewID()
	}
	if e.Type == TypeContainer && e.Children == nil {
		e.Children = []*Element{}
	}
	return e
}

var defaultStyles = map[ElementType][]string{
	TypeHeading: {
		"color", "#000000",
		"fontFamily", "Arial, sans-serif",
		"fontWeight", "bold",
		"margin", "0 0 16px 0",
	},
	TypeText: {
		"color", "#333333",
		"fontFamily", "Arial, sans-serif",
		"fontSize", "16px",
		"lineHeight", "1.5",
		"margin", "0 0 16px 0",
	},
	TypeImage: {
		"width", "100%",
		"height", "auto",
		"objectFit", "cover",
		"margin", "0 0 16px 0",
	},
	TypeButton: {
		"backgroundColor", "#3b82f6",
		"color", "#ffffff",
		"fontFamily", "Arial, sans-serif",
		"fontSize", "16px",
		"fontWeight", "bold",
		"padding", "8px 16px",
		"borderRadius", "4px",
		"border", "none",
		"cursor", "pointer",
		"margin", "0 0 16px 0",
	},
	TypeContainer: {
		"display", "flex",
		"flexDirection", "column",
		"gap", "16px",
		"padding", "16px",
		"border", "1px solid #e5e7eb",
		"borderRadius", "4px",
		"margin", "0 0 16px 0",
	},
	TypeForm: {
		"display", "flex",
		"flexDirection", "column",
		"gap", "16px",
		"padding", "16px",
		"border", "1px solid #e5e7eb",
		"borderRadius", "4px",
		"margin", "0 0 16px 0",
	},
	TypeVideo: {
		"width", "100%",
		"height", "auto",
		"margin", "0 0 16px 0",
	},
	TypeDivider: {
		"width", "100%",
		"height", "1px",
		"backgroundColor", "#e5e7eb",
		"margin", "16px 0",
	},
	TypeSpacer: {
		"width", "100%",
		"margin", "0",
	},
}

func styled(t ElementType) Styles {
	return NewStyles(defaultStyles[t]...)
}

// Palette returns the ordered template catalog, one template per element
// type. Each call returns fresh values.
func Palette() []*Template {
	return []*Template{
		{
			Type: TypeHeading, Name: "Heading", Icon: "heading",
			Defaults: &Element{
				Type: TypeHeading, Name: "Heading", Content: "Heading Text",
				Level: DefaultHeadingLevel, Styles: styled(TypeHeading),
			},
		},
		{
			Type: TypeText, Name: "Text", Icon: "text",
			Defaults: &Element{
				Type: TypeText, Name: "Text",
				Content: "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Nullam euismod, nisl eget aliquam ultricies, nunc nisl aliquet nunc, quis aliquam nisl nunc eu nisl.",
				Styles:  styled(TypeText),
			},
		},
		{
			Type: TypeImage, Name: "Image", Icon: "image",
			Defaults: &Element{
				Type: TypeImage, Name: "Image",
				Src: "https://via.placeholder.com/800x400", Alt: "Placeholder image",
				Styles: styled(TypeImage),
			},
		},
		{
			Type: TypeButton, Name: "Button", Icon: "button",
			Defaults: &Element{
				Type: TypeButton, Name: "Button", Content: "Click Me",
				Link: "#", Variant: VariantPrimary, Styles: styled(TypeButton),
			},
		},
		{
			Type: TypeContainer, Name: "Container", Icon: "container",
			Defaults: &Element{
				Type: TypeContainer, Name: "Container", Children: []*Element{},
				Layout: LayoutVertical, Styles: styled(TypeContainer),
			},
		},
		{
			Type: TypeForm, Name: "Form", Icon: "form",
			Defaults: &Element{
				Type: TypeForm, Name: "Form",
				Fields: []FormField{
					{Type: FieldText, Label: "Name", Placeholder: "Enter your name", Required: true},
					{Type: FieldEmail, Label: "Email", Placeholder: "Enter your email", Required: true},
					{Type: FieldTextarea, Label: "Message", Placeholder: "Enter your message", Required: true},
				},
				SubmitLabel: "Submit", Method: "POST", Styles: styled(TypeForm),
			},
		},
		{
			Type: TypeVideo, Name: "Video", Icon: "video",
			Defaults: &Element{
				Type: TypeVideo, Name: "Video",
				Src: "https://www.youtube.com/embed/dQw4w9WgXcQ", Controls: true,
				Styles: styled(TypeVideo),
			},
		},
		{
			Type: TypeDivider, Name: "Divider", Icon: "divider",
			Defaults: &Element{Type: TypeDivider, Name: "Divider", Styles: styled(TypeDivider)},
		},
		{
			Type: TypeSpacer, Name: "Spacer", Icon: "spacer",
			Defaults: &Element{
				Type: TypeSpacer, Name: "Spacer", Height: DefaultSpacerHeight,
				Styles: styled(TypeSpacer),
			},
		},
	}
}

// TemplateFor returns the palette template for t.
func TemplateFor(t ElementType) (*Template, bool) {
	for _, tpl := range Palette() {
		if tpl.Type == t {
			return tpl, true
		}
	}
	return nil, false
}

// NewElement instantiates the palette template for t.
func NewElement(t ElementType) (*Element, bool) {
	tpl, ok := TemplateFor(t)
	if !ok {
		return nil, false
	}
	return tpl.Instantiate(), true
}
