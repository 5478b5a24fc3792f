package confpath

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DefaultSeparator separates path segments.  Cloud configuration keys can
// contain '.', so the default is a character that never appears in real keys.
const DefaultSeparator = "$"

// ErrPathNotFound signals that a path matched nothing in the tree.  It is
// distinct from a path that resolves to an explicit null value.
var ErrPathNotFound = errors.New("path not found")

type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Object
	Array
)

// Value is one node of a configuration tree.  Configuration snapshots are
// heterogeneous nested documents, so every node carries its own kind tag.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	obj  map[string]Value
	arr  []Value
}

func NullValue() Value                    { return Value{kind: Null} }
func BoolValue(b bool) Value              { return Value{kind: Bool, b: b} }
func NumberValue(n float64) Value         { return Value{kind: Number, num: n} }
func StringValue(s string) Value          { return Value{kind: String, str: s} }
func ObjectValue(m map[string]Value) Value { return Value{kind: Object, obj: m} }
func ArrayValue(vs []Value) Value         { return Value{kind: Array, arr: vs} }

func (v Value) Kind() Kind            { return v.kind }
func (v Value) Bool() bool            { return v.b }
func (v Value) Number() float64       { return v.num }
func (v Value) Str() string           { return v.str }
func (v Value) Obj() map[string]Value { return v.obj }
func (v Value) Arr() []Value          { return v.arr }

// Empty reports whether the value is null or an empty string/object/array.
func (v Value) Empty() bool {
	switch v.kind {
	case Null:
		return true
	case String:
		return v.str == ""
	case Object:
		return len(v.obj) == 0
	case Array:
		return len(v.arr) == 0
	}
	return false
}

// FromJSON builds a configuration tree from a raw JSON document.
func FromJSON(raw []byte) (Value, error) {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Value{}, fmt.Errorf("invalid configuration document: %w", err)
	}
	return fromInterface(decoded), nil
}

func fromInterface(decoded interface{}) Value {
	switch t := decoded.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(t)
	case float64:
		return NumberValue(t)
	case string:
		return StringValue(t)
	case map[string]interface{}:
		obj := make(map[string]Value, len(t))
		for key, child := range t {
			obj[key] = fromInterface(child)
		}
		return ObjectValue(obj)
	case []interface{}:
		arr := make([]Value, 0, len(t))
		for _, child := range t {
			arr = append(arr, fromInterface(child))
		}
		return ArrayValue(arr)
	}
	return NullValue()
}

// Interface converts the value back to plain JSON-shaped Go types.
func (v Value) Interface() interface{} {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		return v.num
	case String:
		return v.str
	case Object:
		obj := make(map[string]interface{}, len(v.obj))
		for key, child := range v.obj {
			obj[key] = child.Interface()
		}
		return obj
	case Array:
		arr := make([]interface{}, 0, len(v.arr))
		for _, child := range v.arr {
			arr = append(arr, child.Interface())
		}
		return arr
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Values returns every value reachable at path within root.  Path segments
// descend through object keys; an array encountered mid-path fans out over
// its elements.  A path that matches nothing returns ErrPathNotFound; a path
// that resolves to an explicit null returns that null value.
func Values(root Value, path string, sep string) ([]Value, error) {
	if sep == "" {
		sep = DefaultSeparator
	}
	var segments []string
	for _, segment := range strings.Split(path, sep) {
		if segment == "" {
			continue
		}
		segments = append(segments, segment)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%q: %w", path, ErrPathNotFound)
	}
	matches := walk(root, segments)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%q: %w", path, ErrPathNotFound)
	}
	return matches, nil
}

func walk(v Value, segments []string) []Value {
	if len(segments) == 0 {
		return []Value{v}
	}
	switch v.kind {
	case Object:
		child, ok := v.obj[segments[0]]
		if !ok {
			return nil
		}
		return walk(child, segments[1:])
	case Array:
		var matches []Value
		for _, element := range v.arr {
			matches = append(matches, walk(element, segments)...)
		}
		return matches
	}
	return nil
}
