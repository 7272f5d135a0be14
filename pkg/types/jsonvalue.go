package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// JSONKind identifies the concrete type stored in a JSONValue.
type JSONKind int

const (
	// JSONUndefined marks a value that was not present at all. It is the zero value.
	JSONUndefined JSONKind = iota
	JSONNull
	JSONString
	JSONNumber
	JSONBool
	JSONObject
	JSONArray
)

// String returns the kind name used in error messages.
func (k JSONKind) String() string {
	switch k {
	case JSONUndefined:
		return "undefined"
	case JSONNull:
		return "null"
	case JSONString:
		return "string"
	case JSONNumber:
		return "number"
	case JSONBool:
		return "boolean"
	case JSONObject:
		return "object"
	case JSONArray:
		return "array"
	default:
		return fmt.Sprintf("JSONKind(%d)", int(k))
	}
}

// JSONValue is a loosely typed JSON value. Unlike map[string]any it keeps
// object members in the order they were decoded and tells an absent value
// (the zero value) apart from an explicit null.
type JSONValue struct {
	Kind   JSONKind
	String string
	Number float64
	Bool   bool
	Object []JSONMember
	Array  []JSONValue
}

// JSONMember is a single key/value pair of a JSON object.
type JSONMember struct {
	Key   string
	Value JSONValue
}

// NewNull returns an explicit JSON null.
func NewNull() JSONValue { return JSONValue{Kind: JSONNull} }

// NewString returns a JSON string.
func NewString(s string) JSONValue { return JSONValue{Kind: JSONString, String: s} }

// NewNumber returns a JSON number.
func NewNumber(f float64) JSONValue { return JSONValue{Kind: JSONNumber, Number: f} }

// NewBool returns a JSON boolean.
func NewBool(b bool) JSONValue { return JSONValue{Kind: JSONBool, Bool: b} }

// Member pairs a key with a value for NewObject.
func Member(key string, v JSONValue) JSONMember {
	return JSONMember{Key: key, Value: v}
}

// NewObject builds an object. A repeated key keeps its first position and its last value.
func NewObject(members ...JSONMember) JSONValue {
	v := JSONValue{Kind: JSONObject, Object: make([]JSONMember, 0, len(members))}
	for _, m := range members {
		v.setMember(m.Key, m.Value)
	}
	return v
}

// NewArray builds an array value.
func NewArray(items ...JSONValue) JSONValue {
	if items == nil {
		items = []JSONValue{}
	}
	return JSONValue{Kind: JSONArray, Array: items}
}

// IsZero reports whether the value is absent. It makes `omitzero` drop absent fields.
func (v JSONValue) IsZero() bool {
	return v.Kind == JSONUndefined
}

// IsNullish reports whether the value is absent or null.
func (v JSONValue) IsNullish() bool {
	return v.Kind == JSONUndefined || v.Kind == JSONNull
}

// Truthy follows JavaScript truthiness.
func (v JSONValue) Truthy() bool {
	switch v.Kind {
	case JSONString:
		return v.String != ""
	case JSONNumber:
		return v.Number != 0 && !math.IsNaN(v.Number)
	case JSONBool:
		return v.Bool
	case JSONObject, JSONArray:
		return true
	default:
		return false
	}
}

// Get reads a property. Objects are looked up by key, arrays and strings by
// index; anything else, including null, yields an absent value.
func (v JSONValue) Get(key string) JSONValue {
	switch v.Kind {
	case JSONObject:
		for _, m := range v.Object {
			if m.Key == key {
				return m.Value
			}
		}
	case JSONArray:
		if i, ok := arrayIndex(key); ok && int(i) < len(v.Array) {
			return v.Array[i]
		}
	case JSONString:
		runes := []rune(v.String)
		if i, ok := arrayIndex(key); ok && int(i) < len(runes) {
			return NewString(string(runes[i]))
		}
	}
	return JSONValue{}
}

// Keys returns the own enumerable keys in JavaScript order: array-index keys
// ascending, then the remaining keys in insertion order. Absent and null
// values cannot be converted to an object and return an error.
func (v JSONValue) Keys() ([]string, error) {
	entries, err := v.Entries()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys, nil
}

// Entries returns the own enumerable key/value pairs in the same order as Keys.
func (v JSONValue) Entries() ([]JSONMember, error) {
	switch v.Kind {
	case JSONUndefined, JSONNull:
		return nil, fmt.Errorf("cannot convert %s to object", v.Kind)
	case JSONObject:
		return orderedMembers(v.Object), nil
	case JSONArray:
		entries := make([]JSONMember, len(v.Array))
		for i, item := range v.Array {
			entries[i] = JSONMember{Key: strconv.Itoa(i), Value: item}
		}
		return entries, nil
	case JSONString:
		runes := []rune(v.String)
		entries := make([]JSONMember, len(runes))
		for i, r := range runes {
			entries[i] = JSONMember{Key: strconv.Itoa(i), Value: NewString(string(r))}
		}
		return entries, nil
	default:
		return []JSONMember{}, nil
	}
}

// Text converts the value to a string the way JavaScript's String() does,
// so an absent value renders as "undefined" and null as "null".
func (v JSONValue) Text() string {
	switch v.Kind {
	case JSONUndefined:
		return "undefined"
	case JSONNull:
		return "null"
	case JSONString:
		return v.String
	case JSONNumber:
		return formatNumber(v.Number)
	case JSONBool:
		return strconv.FormatBool(v.Bool)
	case JSONObject:
		return "[object Object]"
	case JSONArray:
		parts := make([]string, len(v.Array))
		for i, item := range v.Array {
			if !item.IsNullish() {
				parts[i] = item.Text()
			}
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// UnmarshalJSON decodes any JSON value, keeping object member order.
func (v *JSONValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after top-level JSON value")
	}

	*v = parsed
	return nil
}

// MarshalJSON encodes the value without HTML escaping. Absent object members
// are skipped and absent array items become null, as JSON.stringify does.
func (v JSONValue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseJSONValue decodes data into a JSONValue.
func ParseJSONValue(data []byte) (JSONValue, error) {
	var v JSONValue
	if err := v.UnmarshalJSON(data); err != nil {
		return JSONValue{}, err
	}
	return v, nil
}

func (v JSONValue) encode(buf *bytes.Buffer) error {
	switch v.Kind {
	case JSONUndefined, JSONNull:
		buf.WriteString("null")
	case JSONString:
		return writeString(buf, v.String)
	case JSONNumber:
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			buf.WriteString("null")
		} else {
			buf.WriteString(formatNumber(v.Number))
		}
	case JSONBool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case JSONObject:
		buf.WriteByte('{')
		first := true
		for _, m := range orderedMembers(v.Object) {
			if m.Value.Kind == JSONUndefined {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := writeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case JSONArray:
		buf.WriteByte('[')
		for i, item := range v.Array {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unknown JSON kind %d", int(v.Kind))
	}
	return nil
}

func (v *JSONValue) setMember(key string, value JSONValue) {
	for i := range v.Object {
		if v.Object[i].Key == key {
			v.Object[i].Value = value
			return
		}
	}
	v.Object = append(v.Object, JSONMember{Key: key, Value: value})
}

func decodeValue(dec *json.Decoder) (JSONValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return JSONValue{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := JSONValue{Kind: JSONObject, Object: []JSONMember{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return JSONValue{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return JSONValue{}, fmt.Errorf("invalid object key %v", keyTok)
				}
				child, err := decodeValue(dec)
				if err != nil {
					return JSONValue{}, err
				}
				obj.setMember(key, child)
			}
			if _, err := dec.Token(); err != nil {
				return JSONValue{}, err
			}
			return obj, nil
		case '[':
			arr := JSONValue{Kind: JSONArray, Array: []JSONValue{}}
			for dec.More() {
				child, err := decodeValue(dec)
				if err != nil {
					return JSONValue{}, err
				}
				arr.Array = append(arr.Array, child)
			}
			if _, err := dec.Token(); err != nil {
				return JSONValue{}, err
			}
			return arr, nil
		}
		return JSONValue{}, fmt.Errorf("unexpected delimiter %q", rune(t))
	case string:
		return NewString(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return JSONValue{}, fmt.Errorf("invalid number %s: %w", t, err)
		}
		return NewNumber(f), nil
	case bool:
		return NewBool(t), nil
	case nil:
		return NewNull(), nil
	default:
		return JSONValue{}, fmt.Errorf("unexpected token %v", tok)
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// formatNumber renders a float64 like JavaScript's Number#toString.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func arrayIndex(key string) (uint32, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

func orderedMembers(members []JSONMember) []JSONMember {
	indexed := make([]JSONMember, 0)
	named := make([]JSONMember, 0, len(members))
	for _, m := range members {
		if _, ok := arrayIndex(m.Key); ok {
			indexed = append(indexed, m)
		} else {
			named = append(named, m)
		}
	}
	if len(indexed) == 0 {
		return named
	}
	sort.SliceStable(indexed, func(i, j int) bool {
		a, _ := arrayIndex(indexed[i].Key)
		b, _ := arrayIndex(indexed[j].Key)
		return a < b
	})
	return append(indexed, named...)
}
