package render

import (
	"strconv"

	"github.com/livetemplate/pageforge"
	"github.com/livetemplate/pageforge/internal/security"
)

func (w *writer) form(e *pageforge.Element) {
	w.WriteString("<form")
	w.attr("action", security.SafeLink(e.Action))
	w.attr("method", e.FormMethod())
	w.classes(e, nil)
	w.style(e.Styles)
	w.WriteString(">")

	for i := range e.Fields {
		w.field(&e.Fields[i])
	}

	label := e.SubmitLabel
	if label == "" {
		label = "Submit"
	}
	w.WriteString(`<button type="submit">`)
	w.text(label)
	w.WriteString("</button></form>")
}

func (w *writer) field(f *pageforge.FormField) {
	w.WriteString(`<div class="form-field">`)
	switch f.Type {
	case pageforge.FieldCheckbox:
		w.WriteString(`<input type="checkbox"`)
		w.attr("id", f.ID)
		w.attr("name", f.ID)
		w.required(f.Required)
		w.WriteString(" />")
		w.label(f.ID, f.Label, false)

	case pageforge.FieldRadio:
		w.WriteString("<fieldset><legend>")
		w.text(f.Label)
		if f.Required {
			w.WriteString(" *")
		}
		w.WriteString("</legend>")
		for i, opt := range f.Options {
			id := f.ID + "_" + strconv.Itoa(i)
			w.WriteString(`<div><input type="radio"`)
			w.attr("id", id)
			w.attr("name", f.ID)
			w.attr("value", opt.Value)
			w.required(f.Required && i == 0)
			w.WriteString(" />")
			w.label(id, opt.Label, false)
			w.WriteString("</div>")
		}
		w.WriteString("</fieldset>")

	case pageforge.FieldTextarea:
		w.label(f.ID, f.Label, f.Required)
		w.WriteString("<textarea")
		w.attr("id", f.ID)
		w.attr("name", f.ID)
		w.attr("placeholder", f.Placeholder)
		w.required(f.Required)
		w.WriteString("></textarea>")

	case pageforge.FieldSelect:
		w.label(f.ID, f.Label, f.Required)
		w.WriteString("<select")
		w.attr("id", f.ID)
		w.attr("name", f.ID)
		w.required(f.Required)
		w.WriteString(">")
		for _, opt := range f.Options {
			w.WriteString("<option")
			w.attr("value", opt.Value)
			w.WriteString(">")
			w.text(opt.Label)
			w.WriteString("</option>")
		}
		w.WriteString("</select>")

	default:
		kind := f.Type
		if kind != pageforge.FieldEmail && kind != pageforge.FieldNumber {
			kind = pageforge.FieldText
		}
		w.label(f.ID, f.Label, f.Required)
		w.WriteString("<input")
		w.attr("type", kind)
		w.attr("id", f.ID)
		w.attr("name", f.ID)
		w.attr("placeholder", f.Placeholder)
		w.required(f.Required)
		w.WriteString(" />")
	}
	w.WriteString("</div>")
}

func (w *writer) label(forID, text string, required bool) {
	w.WriteString("<label")
	w.attr("for", forID)
	w.WriteString(">")
	w.text(text)
	if required {
		w.WriteString(" *")
	}
	w.WriteString("</label>")
}

func (w *writer) required(required bool) {
	if required {
		w.WriteString(" required")
	}
}
