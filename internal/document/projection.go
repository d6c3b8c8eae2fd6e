package document

import "encoding/json"

// panelTypeGauge is the panel type that carries gauge display settings.
const panelTypeGauge = "gauge"

// Projection is the display-oriented record served for one panel.
//
// Raw fields are copied verbatim from the document and omitted when the
// document does not carry them.
type Projection struct {
	Title            json.RawMessage  `json:"title,omitempty"`
	Unit             string           `json:"unit"`
	Min              json.RawMessage  `json:"min,omitempty"`
	Max              json.RawMessage  `json:"max,omitempty"`
	Thresholds       json.RawMessage  `json:"thresholds"`
	CustomProperties CustomProperties `json:"customProperties"`
	GaugeConfig      *GaugeConfig     `json:"gaugeConfig,omitempty"`
}

// CustomProperties holds the per-panel display hints.
type CustomProperties struct {
	Neutral     json.RawMessage `json:"neutral,omitempty"`
	Orientation string          `json:"orientation"`
}

// GaugeConfig is attached to gauge panels only.
type GaugeConfig struct {
	ShowThresholdLabels  bool `json:"showThresholdLabels"`
	ShowThresholdMarkers bool `json:"showThresholdMarkers"`
}

// Project maps every panel id to its [Projection].
//
// When two panels share an id the later one wins, matching plain object
// assignment in document order.
func (d *Document) Project() map[string]Projection {
	out := make(map[string]Projection, len(d.panels))
	for _, p := range d.panels {
		out[p.ID()] = p.Project()
	}
	return out
}

// Project builds the [Projection] for a single panel.
func (p Panel) Project() Projection {
	proj := Projection{
		Title:      p.Title(),
		Unit:       p.Unit(),
		Min:        p.Min(),
		Max:        p.Max(),
		Thresholds: p.Thresholds(),
		CustomProperties: CustomProperties{
			Neutral:     p.Neutral(),
			Orientation: p.Orientation(),
		},
	}

	if p.Type() == panelTypeGauge {
		proj.GaugeConfig = &GaugeConfig{
			ShowThresholdLabels:  p.ShowThresholdLabels(),
			ShowThresholdMarkers: p.ShowThresholdMarkers(),
		}
	}

	return proj
}
