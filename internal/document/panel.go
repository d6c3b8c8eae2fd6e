package document

import "github.com/tidwall/gjson"

// Panel is a read-only view of one entry in the document's "panels" array.
type Panel struct {
	index int
	id    string
	res   gjson.Result
}

// ID returns the panel id rendered as a string.
func (p Panel) ID() string { return p.id }

// Index returns the panel's position in the "panels" array.
func (p Panel) Index() int { return p.index }

// Type returns the panel type tag, or "" when absent.
func (p Panel) Type() string { return p.res.Get("type").String() }

// Title returns the raw "title" value, or nil when absent.
func (p Panel) Title() []byte { return rawOrNil(p.res.Get("title")) }

// Unit returns fieldConfig.defaults.unit, or "" when unset.
func (p Panel) Unit() string {
	r := p.defaults().Get("unit")
	if !truthy(r) {
		return ""
	}
	return r.String()
}

// Min returns the raw fieldConfig.defaults.min value, or nil when absent.
func (p Panel) Min() []byte { return rawOrNil(p.defaults().Get("min")) }

// Max returns the raw fieldConfig.defaults.max value, or nil when absent.
func (p Panel) Max() []byte { return rawOrNil(p.defaults().Get("max")) }

// Thresholds returns the raw fieldConfig.defaults.thresholds.steps value,
// or an empty JSON array when unset.
func (p Panel) Thresholds() []byte {
	r := p.defaults().Get("thresholds.steps")
	if !truthy(r) {
		return []byte("[]")
	}
	return []byte(r.Raw)
}

// Neutral returns the raw fieldConfig.defaults.custom.neutral value, or nil
// when absent.
func (p Panel) Neutral() []byte { return rawOrNil(p.defaults().Get("custom.neutral")) }

// Orientation returns options.orientation, or "auto" when unset.
func (p Panel) Orientation() string {
	r := p.res.Get("options.orientation")
	if !truthy(r) {
		return "auto"
	}
	return r.String()
}

// ShowThresholdLabels reports options.showThresholdLabels, false when unset.
func (p Panel) ShowThresholdLabels() bool {
	return truthy(p.res.Get("options.showThresholdLabels"))
}

// ShowThresholdMarkers reports options.showThresholdMarkers. Absent or null
// means true; an explicit value is honoured.
func (p Panel) ShowThresholdMarkers() bool {
	r := p.res.Get("options.showThresholdMarkers")
	if !r.Exists() || r.Type == gjson.Null {
		return true
	}
	return truthy(r)
}

// hasObject reports whether path resolves to a JSON object on the panel.
func (p Panel) hasObject(path string) bool {
	return p.res.Get(path).IsObject()
}

func (p Panel) defaults() gjson.Result {
	return p.res.Get("fieldConfig.defaults")
}

func rawOrNil(r gjson.Result) []byte {
	if !r.Exists() {
		return nil
	}
	return []byte(r.Raw)
}

// truthy follows JSON falsiness: absent, null, false, 0 and "" are false.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		return true
	}
}
