package pageforge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Document is the persisted content of a page.
type Document struct {
	Elements []*Element `json:"elements"`
}

// ParseDocument decodes page content. Content that is not JSON, has no
// elements array, or holds null elements or repeated ids yields a
// *ParseError.
func ParseDocument(content []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, &ParseError{Message: "content is empty", Hint: `expected {"elements": [...]}`}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		pe := &ParseError{Message: "content is not a JSON object", Err: err}
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			pe.Offset = syntax.Offset
		}
		return nil, pe
	}

	elems, ok := raw["elements"]
	if !ok || !isJSONArray(elems) {
		return nil, (&ParseError{Message: "missing elements array"}).WithHint(`wrap elements as {"elements": [...]}`)
	}

	doc := &Document{}
	if err := json.Unmarshal(elems, &doc.Elements); err != nil {
		return nil, &ParseError{Message: "invalid element", Err: err}
	}
	if doc.Elements == nil {
		doc.Elements = []*Element{}
	}
	if err := checkShape(doc.Elements); err != nil {
		return nil, (&ParseError{Message: "invalid element tree", Err: err}).WithHint("every element must be an object with a unique id")
	}
	return doc, nil
}

// ParseDocumentString is ParseDocument for string content.
func ParseDocumentString(content string) (*Document, error) {
	return ParseDocument([]byte(content))
}

// HasElements reports whether content is a JSON object carrying an elements
// array, which is what triggers contentHtml regeneration.
func HasElements(content string) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return false
	}
	elems, ok := raw["elements"]
	return ok && isJSONArray(elems)
}

// Marshal serializes the document as {"elements": [...]}.
func (d *Document) Marshal() ([]byte, error) {
	out := Document{Elements: d.Elements}
	if out.Elements == nil {
		out.Elements = []*Element{}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return b, nil
}

// String returns the serialized document, or an empty document on error.
func (d *Document) String() string {
	b, err := d.Marshal()
	if err != nil {
		return `{"elements":[]}`
	}
	return string(b)
}

// EncodeForest serializes a forest as document content.
func EncodeForest(forest []*Element) (string, error) {
	b, err := (&Document{Elements: forest}).Marshal()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func isJSONArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}
