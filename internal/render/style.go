package render

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/livetemplate/pageforge"
)

// utilityPrefix marks style entries that carry utility class tokens rather
// than CSS declarations.
const utilityPrefix = "tw-"

// vendorPrefixes are the camelCase spellings of vendor-prefixed properties,
// e.g. WebkitTransform or msFlex.
var vendorPrefixes = []string{"Webkit", "Moz", "Ms", "ms"}

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
)

// CSSProperty converts a camelCase style key to its CSS name. Keys that are
// already kebab-case or custom properties pass through. Vendor-prefixed
// keys keep their leading dash.
func CSSProperty(key string) string {
	if strings.HasPrefix(key, "--") || strings.ToLower(key) == key {
		return key
	}
	lead := ""
	for _, p := range vendorPrefixes {
		if rest, ok := strings.CutPrefix(key, p); ok && rest != "" && unicode.IsUpper(rune(rest[0])) {
			lead = "-"
			break
		}
	}
	kebab := matchFirstCap.ReplaceAllString(key, "${1}-${2}")
	kebab = matchAllCap.ReplaceAllString(kebab, "${1}-${2}")
	return lead + strings.ToLower(kebab)
}

// Declarations renders a style map as inline CSS, one "property: value;"
// per entry in stored order. Values are emitted verbatim.
func Declarations(styles pageforge.Styles) string {
	parts := make([]string, 0, styles.Len())
	for _, s := range styles.Entries() {
		if s.Property == "" || strings.HasPrefix(s.Property, utilityPrefix) {
			continue
		}
		parts = append(parts, CSSProperty(s.Property)+": "+s.Value+";")
	}
	return strings.Join(parts, " ")
}

// UtilityClasses returns the class tokens stored under tw-* keys.
func UtilityClasses(styles pageforge.Styles) []string {
	var classes []string
	for _, s := range styles.Entries() {
		if !strings.HasPrefix(s.Property, utilityPrefix) {
			continue
		}
		classes = append(classes, strings.Fields(s.Value)...)
	}
	return classes
}
