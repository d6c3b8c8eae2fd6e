package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// msgRangeNotNumeric is the message returned when min or max is not a number.
const msgRangeNotNumeric = "Min and max values must be numbers"

// Range is a requested min/max pair as raw JSON values.
//
// Min greater than Max is accepted.
type Range struct {
	Min json.RawMessage
	Max json.RawMessage
}

// Validate returns a [*ValidationError] unless both bounds are JSON numbers.
func (r Range) Validate() error {
	if !isNumber(r.Min) || !isNumber(r.Max) {
		return &ValidationError{Message: msgRangeNotNumeric}
	}
	return nil
}

// Canonical returns r with both bounds rewritten in shortest number form,
// so 1e2 becomes 100 and 1.50 becomes 1.5. Call after Validate.
func (r Range) Canonical() Range {
	return Range{Min: canonicalNumber(r.Min), Max: canonicalNumber(r.Max)}
}

// canonicalNumber formats a JSON number the way JavaScript prints it:
// plain decimals between 1e-6 and 1e21, exponent form outside, and null
// for values that overflow float64.
func canonicalNumber(raw json.RawMessage) json.RawMessage {
	f := gjson.ParseBytes(bytes.TrimSpace(raw)).Num
	switch {
	case math.IsInf(f, 0) || math.IsNaN(f):
		return json.RawMessage("null")
	case f == 0:
		return json.RawMessage("0")
	}

	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))
	}

	// Go pads the exponent to two digits; JavaScript does not
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return json.RawMessage(mant + "e" + sign + digits)
}

func isNumber(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return false
	}
	return gjson.ParseBytes(raw).Type == gjson.Number
}

// SetRange returns a copy of d in which the first panel with the given id
// has fieldConfig.defaults.min and max set to r.
//
// Missing fieldConfig or fieldConfig.defaults objects are created. Every
// other byte of the document is left as it was.
func (d *Document) SetRange(id string, r Range) (*Document, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	r = r.Canonical()

	p, ok := d.Find(id)
	if !ok {
		return nil, &NotFoundError{PanelID: id}
	}

	base := fmt.Sprintf("panels.%d.fieldConfig", p.Index())
	raw := d.raw

	var err error
	if !p.hasObject("fieldConfig") {
		if raw, err = sjson.SetRawBytes(raw, base, []byte("{}")); err != nil {
			return nil, fmt.Errorf("create fieldConfig: %w", err)
		}
	}
	if !p.hasObject("fieldConfig.defaults") {
		if raw, err = sjson.SetRawBytes(raw, base+".defaults", []byte("{}")); err != nil {
			return nil, fmt.Errorf("create fieldConfig.defaults: %w", err)
		}
	}
	if raw, err = sjson.SetRawBytes(raw, base+".defaults.min", r.Min); err != nil {
		return nil, fmt.Errorf("set min: %w", err)
	}
	if raw, err = sjson.SetRawBytes(raw, base+".defaults.max", r.Max); err != nil {
		return nil, fmt.Errorf("set max: %w", err)
	}

	return Parse(raw)
}
