package contracts

import (
	"encoding/json"
	"math"
)

// FieldState tags a Field value
type FieldState uint8

const (
	FieldAbsent  FieldState = iota // provider did not supply it, or it could not be computed
	FieldPresent                   // usable value
	FieldNulled                    // supplied but invalidated by a sanity rule
)

// Field is an optional numeric value that remembers why it was invalidated.
// ⭐ SSOT: Nulled 값은 Absent와 동일하게 취급 (필터/점수 모두)
type Field struct {
	State  FieldState
	Value  float64 // original value for Nulled
	Reason string  // set for Nulled
}

// Present wraps a finite value. NaN and ±Inf become Absent.
func Present(v float64) Field {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Field{}
	}
	return Field{State: FieldPresent, Value: v}
}

// Absent returns a missing field
func Absent() Field {
	return Field{}
}

// FromPtr converts an optional provider value
func FromPtr(p *float64) Field {
	if p == nil {
		return Field{}
	}
	return Present(*p)
}

// Get returns the value only when it is usable
func (f Field) Get() (float64, bool) {
	if f.State != FieldPresent {
		return 0, false
	}
	return f.Value, true
}

// Or returns the usable value or def
func (f Field) Or(def float64) float64 {
	if v, ok := f.Get(); ok {
		return v
	}
	return def
}

// IsPresent reports whether the value is usable
func (f Field) IsPresent() bool {
	return f.State == FieldPresent
}

// IsNulled reports whether a sanity rule invalidated the value
func (f Field) IsNulled() bool {
	return f.State == FieldNulled
}

// Null invalidates a present value, keeping the original for audit.
// Absent fields stay absent; an already nulled field keeps its first reason.
func (f Field) Null(reason string) Field {
	if f.State != FieldPresent {
		return f
	}
	return Field{State: FieldNulled, Value: f.Value, Reason: reason}
}

// Ptr returns a pointer to the usable value, nil otherwise
func (f Field) Ptr() *float64 {
	if v, ok := f.Get(); ok {
		return &v
	}
	return nil
}

type nulledJSON struct {
	Nulled float64 `json:"nulled"`
	Reason string  `json:"reason"`
}

// MarshalJSON renders present values as numbers, absent as null and
// nulled values as {"nulled": original, "reason": ...}
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.State {
	case FieldPresent:
		return json.Marshal(f.Value)
	case FieldNulled:
		return json.Marshal(nulledJSON{Nulled: f.Value, Reason: f.Reason})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the three shapes produced by MarshalJSON
func (f *Field) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Field{}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = Present(v)
		return nil
	}

	var n nulledJSON
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = Field{State: FieldNulled, Value: n.Nulled, Reason: n.Reason}
	return nil
}
