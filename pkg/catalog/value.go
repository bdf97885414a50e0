package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ValueType tags a custom data value.
type ValueType int

// Custom data value types.
const (
	TypeString ValueType = iota
	TypeInteger
	TypeFloat
	TypeBoolean
	TypeVector3
	TypeColor
)

// Value is a typed custom data value. Only the field matching Type is set.
type Value struct {
	Type   ValueType
	String string
	Int    int64
	Float  float64
	Bool   bool
	Vec3   mgl32.Vec3
	Color  [4]float32
}

// StringValue wraps s.
func StringValue(s string) Value { return Value{Type: TypeString, String: s} }

// IntValue wraps i.
func IntValue(i int64) Value { return Value{Type: TypeInteger, Int: i} }

// FloatValue wraps f.
func FloatValue(f float64) Value { return Value{Type: TypeFloat, Float: f} }

// BoolValue wraps b.
func BoolValue(b bool) Value { return Value{Type: TypeBoolean, Bool: b} }

// Vec3Value wraps v.
func Vec3Value(v mgl32.Vec3) Value { return Value{Type: TypeVector3, Vec3: v} }

// ColorValue wraps an rgba colour in [0,1].
func ColorValue(r, g, b, a float32) Value { return Value{Type: TypeColor, Color: [4]float32{r, g, b, a}} }

type valueJSON struct {
	Type  *int            `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON writes {"type":int,"value":...}.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Type {
	case TypeString:
		payload = v.String
	case TypeInteger:
		payload = v.Int
	case TypeFloat:
		payload = v.Float
	case TypeBoolean:
		payload = v.Bool
	case TypeVector3:
		payload = [3]float32(v.Vec3)
	case TypeColor:
		payload = v.Color
	default:
		return nil, fmt.Errorf("unknown value type %d", int(v.Type))
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	t := int(v.Type)
	return json.Marshal(valueJSON{Type: &t, Value: raw})
}

// UnmarshalJSON reads {"type":int,"value":...}. An unknown type or a value
// that does not match its type is an error.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w valueJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type == nil {
		return fmt.Errorf("missing value type")
	}

	out := Value{Type: ValueType(*w.Type)}
	var err error
	switch out.Type {
	case TypeString:
		err = json.Unmarshal(w.Value, &out.String)
	case TypeInteger:
		err = json.Unmarshal(w.Value, &out.Int)
	case TypeFloat:
		err = json.Unmarshal(w.Value, &out.Float)
	case TypeBoolean:
		err = json.Unmarshal(w.Value, &out.Bool)
	case TypeVector3:
		var a [3]float32
		err = json.Unmarshal(w.Value, &a)
		out.Vec3 = a
	case TypeColor:
		err = json.Unmarshal(w.Value, &out.Color)
	default:
		return fmt.Errorf("unknown value type %d", *w.Type)
	}
	if err != nil {
		return fmt.Errorf("value of type %d: %w", *w.Type, err)
	}
	*v = out
	return nil
}
