package document

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// prettyOptions mirrors a two-space indented JSON encoding. Width 1 keeps
// every array on its own lines instead of folding short ones.
var prettyOptions = &pretty.Options{
	Width:    1,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// Document is a parsed dashboard document.
//
// A Document is immutable; [Document.SetRange] returns a new one.
type Document struct {
	raw    []byte
	panels []Panel
}

// Load reads and parses the document stored at path.
//
// Every failure is returned as a [*ConfigLoadError] carrying path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	doc, err := Parse(data)
	if err != nil {
		var le *ConfigLoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Parse validates data and returns the document it holds.
//
// The root must be a JSON object with a "panels" array, and every panel must
// be an object whose "id" is a number or a string.
func Parse(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ConfigLoadError{Err: errors.New("invalid JSON")}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &ConfigLoadError{Err: errors.New("document root must be an object")}
	}

	list := root.Get("panels")
	if !list.IsArray() {
		return nil, &ConfigLoadError{Err: errors.New(`"panels" must be an array`)}
	}

	items := list.Array()
	panels := make([]Panel, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, &ConfigLoadError{Err: fmt.Errorf("panels[%d]: must be an object", i)}
		}
		id, ok := idString(item.Get("id"))
		if !ok {
			return nil, &ConfigLoadError{Err: fmt.Errorf("panels[%d]: id must be a number or a string", i)}
		}
		panels = append(panels, Panel{index: i, id: id, res: item})
	}

	return &Document{raw: data, panels: panels}, nil
}

// Bytes returns the document exactly as it was parsed.
func (d *Document) Bytes() []byte {
	return d.raw
}

// Pretty returns the document re-indented with two spaces per level.
// Key order and values are preserved.
func (d *Document) Pretty() []byte {
	return pretty.PrettyOptions(d.raw, prettyOptions)
}

// Panels returns the panels in document order.
func (d *Document) Panels() []Panel {
	out := make([]Panel, len(d.panels))
	copy(out, d.panels)
	return out
}

// Find returns the first panel whose id, rendered as a string, equals id.
func (d *Document) Find(id string) (Panel, bool) {
	for _, p := range d.panels {
		if p.id == id {
			return p, true
		}
	}
	return Panel{}, false
}

// idString renders a panel id the way it is used as a map key.
func idString(r gjson.Result) (string, bool) {
	switch r.Type {
	case gjson.Number:
		return r.String(), true
	case gjson.String:
		return r.Str, true
	default:
		return "", false
	}
}
