package render

import (
	"bytes"
	"fmt"
	"html/template"
)

// PageMeta is the document-level data of a published page.
type PageMeta struct {
	Title       string
	Description string
	Keywords    string
	Lang        string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
{{- end}}
{{- if .Keywords}}
<meta name="keywords" content="{{.Keywords}}">
{{- end}}
<style>
.page-content{max-width:960px;margin:0 auto;padding:16px}
.page-content img,.page-content video,.page-content iframe{max-width:100%}
.form-field{margin-bottom:1rem}
.form-field label{display:block;margin-bottom:.5rem}
.render-error{font-family:monospace}
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Document wraps rendered page content in a complete HTML document.
func Document(meta PageMeta, body string) (string, error) {
	if meta.Lang == "" {
		meta.Lang = "en"
	}
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		PageMeta
		Body template.HTML
	}{meta, template.HTML(body)})
	if err != nil {
		return "", fmt.Errorf("render page document: %w", err)
	}
	return buf.String(), nil
}
