package feed

import (
	"encoding/json"
	"time"

	"github.com/teranos/epicdash/errors"
)

// Field names of the /data response.
const (
	FieldTPS        = "tps"
	FieldRPM        = "rpm"
	FieldAFR        = "afr"
	FieldCLT        = "clt"
	FieldIAT        = "iat"
	FieldMAP        = "map"
	FieldBoost      = "boost"
	FieldOilPress   = "oil_press"
	FieldShiftLight = "shift_light"
	FieldTimestamp  = "timestamp"
)

// Reading is one /data sample. Values holds every numeric field the ECU
// sent; a field that is missing is simply absent.
type Reading struct {
	Values     map[string]float64
	ShiftLight bool
	// Timestamp is milliseconds since ECU boot.
	Timestamp int64
}

// Get returns the value of field.
func (r Reading) Get(field string) (float64, bool) {
	v, ok := r.Values[field]
	return v, ok
}

// Fields returns the numeric field names present.
func (r Reading) Fields() []string {
	out := make([]string, 0, len(r.Values))
	for k := range r.Values {
		out = append(out, k)
	}
	return out
}

// Time returns Timestamp as a duration.
func (r Reading) Time() time.Duration {
	return time.Duration(r.Timestamp) * time.Millisecond
}

// UnmarshalJSON accepts a flat object. Non-numeric fields other than
// shift_light are ignored.
func (r *Reading) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode reading")
	}
	out := Reading{Values: make(map[string]float64, len(raw))}
	for k, msg := range raw {
		switch k {
		case FieldShiftLight:
			var b bool
			if err := json.Unmarshal(msg, &b); err != nil {
				var n float64
				if json.Unmarshal(msg, &n) == nil {
					b = n != 0
				}
			}
			out.ShiftLight = b
		case FieldTimestamp:
			var n float64
			if err := json.Unmarshal(msg, &n); err == nil {
				out.Timestamp = int64(n)
			}
		default:
			var n float64
			if err := json.Unmarshal(msg, &n); err == nil {
				out.Values[k] = n
			}
		}
	}
	*r = out
	return nil
}

// MarshalJSON writes the flat wire form.
func (r Reading) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(r.Values)+2)
	for k, v := range r.Values {
		m[k] = v
	}
	m[FieldShiftLight] = r.ShiftLight
	m[FieldTimestamp] = r.Timestamp
	return json.Marshal(m)
}
