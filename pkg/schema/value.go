package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tags the dynamic type held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNumber
	KindBool
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindText:
		return "string"
	default:
		return "absent"
	}
}

// Value is a number, boolean or string carried in an input or output bag.
// The zero Value is absent.
type Value struct {
	kind Kind
	num  float64
	b    bool
	s    string
}

// Number wraps a float64.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Kind returns the tag of the value.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value is absent.
func (v Value) IsZero() bool { return v.kind == KindAbsent }

// AsNumber coerces the value to a float64. Booleans are 1 or 0, text that does
// not parse as a number is NaN, absent is 0.
func (v Value) AsNumber() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return 0
	}
}

// AsBool coerces the value to a bool by truthiness: non-zero numbers and
// non-empty text are true.
func (v Value) AsBool() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindBool:
		return v.b
	case KindText:
		return v.s != ""
	default:
		return false
	}
}

// AsText coerces the value to a string.
func (v Value) AsText() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindText:
		return v.s
	default:
		return ""
	}
}

// Interface returns the underlying Go value (float64, bool, string or nil).
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindText:
		return v.s
	default:
		return nil
	}
}

// Equal reports whether two values hold the same kind and payload. NaN equals NaN.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case KindBool:
		return v.b == o.b
	case KindText:
		return v.s == o.s
	default:
		return true
	}
}

func (v Value) String() string {
	if v.kind == KindAbsent {
		return "<absent>"
	}
	return v.AsText()
}

// ValueOf converts a decoded JSON/YAML scalar into a Value.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case bool:
		return Bool(t), nil
	case string:
		return Text(t), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", x)
	}
}

// MarshalJSON encodes non-finite numbers as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}
	val, err := ValueOf(x)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var x any
	if err := node.Decode(&x); err != nil {
		return err
	}
	val, err := ValueOf(x)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*v = val
	return nil
}

// InputBag maps input field names to caller-supplied values. A missing key
// means "use the declared default".
type InputBag map[string]Value

// UnmarshalJSON drops null entries so they read as absent.
func (b *InputBag) UnmarshalJSON(data []byte) error {
	var raw map[string]Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	bag := make(InputBag, len(raw))
	for k, v := range raw {
		if !v.IsZero() {
			bag[k] = v
		}
	}
	*b = bag
	return nil
}

// InputBagFrom converts a loosely typed map (decoded JSON, MCP arguments) into an InputBag.
func InputBagFrom(m map[string]any) (InputBag, error) {
	bag := make(InputBag, len(m))
	for k, x := range m {
		v, err := ValueOf(x)
		if err != nil {
			return nil, NewErrorf(ErrCodeValidation, "input %q: %s", k, err.Error()).WithCause(err)
		}
		if !v.IsZero() {
			bag[k] = v
		}
	}
	return bag, nil
}

// OutputBag maps declared output field names to computed values.
type OutputBag map[string]Value
