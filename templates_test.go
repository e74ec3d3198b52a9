package pageforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaletteCoversEveryType(t *testing.T) {
	palette := Palette()
	require.Len(t, palette, len(Types))
	for i, tpl := range palette {
		assert.Equal(t, Types[i], tpl.Type)
		assert.Equal(t, tpl.Type, tpl.Defaults.Type)
		assert.Empty(t, ValidateForest([]*Element{tpl.Instantiate()}), tpl.Name)
	}
}

func TestInstantiateStampsFreshIDs(t *testing.T) {
	tpl, ok := TemplateFor(TypeHeading)
	require.True(t, ok)

	a, b := tpl.Instantiate(), tpl.Instantiate()
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, a.Level)
	assert.Equal(t, "Heading Text", a.Content)
}

func TestInstantiateDoesNotShareState(t *testing.T) {
	tpl, _ := TemplateFor(TypeText)
	a := tpl.Instantiate()
	a.Styles.Set("color", "red")

	b := tpl.Instantiate()
	v, _ := b.Styles.Get("color")
	assert.Equal(t, "#333333", v)
}

func TestSpacerTemplateDefaults(t *testing.T) {
	e, ok := NewElement(TypeSpacer)
	require.True(t, ok)
	assert.Equal(t, "32px", e.Height)
	_, hasHeight := e.Styles.Get("height")
	assert.False(t, hasHeight)
}

func TestNewElementUnknownType(t *testing.T) {
	_, ok := NewElement("carousel")
	assert.False(t, ok)
}
