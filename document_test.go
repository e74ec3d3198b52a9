package pageforge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRoundTrip(t *testing.T) {
	var forest []*Element
	for _, tpl := range Palette() {
		forest = append(forest, tpl.Instantiate())
	}
	container := forest[4]
	require.Equal(t, TypeContainer, container.Type)
	inner := forest[0].Clone()
	inner.ID = NewID()
	container.Children = append(container.Children, inner, box("nested"))
	container.Layout = LayoutGrid
	container.Columns = 3

	content, err := EncodeForest(forest)
	require.NoError(t, err)

	doc, err := ParseDocumentString(content)
	require.NoError(t, err)
	assert.Equal(t, forest, doc.Elements)

	again, err := doc.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, content, string(again))
}

func TestDocumentPreservesStyleOrder(t *testing.T) {
	content := `{"elements":[{"id":"1","type":"text","name":"T","styles":{"zIndex":"2","color":"red","margin":"0"},"content":"x"}]}`
	doc, err := ParseDocumentString(content)
	require.NoError(t, err)

	var props []string
	for _, e := range doc.Elements[0].Styles.Entries() {
		props = append(props, e.Property)
	}
	assert.Equal(t, []string{"zIndex", "color", "margin"}, props)

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.Equal(t, content, string(out))
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"not json", "<html>"},
		{"array root", `[1,2]`},
		{"no elements", `{"blocks":[]}`},
		{"elements not array", `{"elements":{}}`},
		{"bad element", `{"elements":[{"id":1}]}`},
		{"null element", `{"elements":[null]}`},
		{"null child", `{"elements":[{"id":"c","type":"container","name":"C","styles":{},"children":[null]}]}`},
		{"duplicate ids", `{"elements":[{"id":"a","type":"text","name":"A","styles":{}},{"id":"a","type":"text","name":"B","styles":{}}]}`},
		{"duplicate nested id", `{"elements":[{"id":"a","type":"container","name":"C","styles":{},"children":[{"id":"a","type":"text","name":"T","styles":{}}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocumentString(tt.content)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
		})
	}
}

func TestParseDocumentEmptyElements(t *testing.T) {
	doc, err := ParseDocumentString(`{"elements":[]}`)
	require.NoError(t, err)
	assert.NotNil(t, doc.Elements)
	assert.Empty(t, doc.Elements)
}

func TestHasElements(t *testing.T) {
	assert.True(t, HasElements(`{"elements":[]}`))
	assert.True(t, HasElements(`{"elements":[{"id":"a","type":"divider","name":"d","styles":{}}]}`))
	assert.False(t, HasElements(`{"elements":null}`))
	assert.False(t, HasElements(`plain text`))
	assert.False(t, HasElements(``))
}
