package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Kind identifies the variant held by a Value
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a schema-free document: null, bool, number, string, list or an
// ordered key map. Values are immutable once built, so they can be shared
// between goroutines and handed out of locked sections without copying.
// The zero Value is null.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	list   []Value
	keys   []string
	fields map[string]Value
}

// Field is a key/value pair used to build objects
type Field struct {
	Key   string
	Value Value
}

// F builds a Field
func F(key string, v Value) Field {
	return Field{Key: key, Value: v}
}

func Null() Value            { return Value{} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func String(s string) Value  { return Value{kind: KindString, s: s} }

// List builds a list value from items
func List(items ...Value) Value {
	list := make([]Value, len(items))
	copy(list, items)
	return Value{kind: KindList, list: list}
}

// Object builds an object value. A repeated key replaces the earlier value
// but keeps its original position.
func Object(fields ...Field) Value {
	v := Value{kind: KindObject, fields: make(map[string]Value, len(fields))}
	for _, f := range fields {
		v.set(f.Key, f.Value)
	}
	return v
}

func (v *Value) set(key string, val Value) {
	if _, ok := v.fields[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.fields[key] = val
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// Len returns the number of items of a list or fields of an object
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindObject:
		return len(v.keys)
	default:
		return 0
	}
}

// Items returns a copy of the list items, or nil for non-lists
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	items := make([]Value, len(v.list))
	copy(items, v.list)
	return items
}

// Keys returns object keys in insertion order, or nil for non-objects
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, len(v.keys))
	copy(keys, v.keys)
	return keys
}

// Get looks up a key in an object
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	val, ok := v.fields[key]
	return val, ok
}

// With returns a copy of the object with key set. Non-objects are treated as
// an empty object.
func (v Value) With(key string, val Value) Value {
	out := v.copyObject()
	out.set(key, val)
	return out
}

// Merge overlays other's fields onto v, last writer wins per key. If either
// side is not an object the result is built from the object side only.
func (v Value) Merge(other Value) Value {
	out := v.copyObject()
	if other.kind != KindObject {
		return out
	}
	for _, k := range other.keys {
		out.set(k, other.fields[k])
	}
	return out
}

func (v Value) copyObject() Value {
	out := Value{kind: KindObject, fields: make(map[string]Value, v.Len()+1)}
	if v.kind != KindObject {
		return out
	}
	out.keys = make([]string, len(v.keys), len(v.keys)+1)
	copy(out.keys, v.keys)
	for k, f := range v.fields {
		out.fields[k] = f
	}
	return out
}

// Equal reports deep equality. Object key order is not significant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.keys) != len(o.keys) {
			return false
		}
		for k, f := range v.fields {
			of, ok := o.fields[k]
			if !ok || !f.Equal(of) {
				return false
			}
		}
		return true
	}
	return false
}

// Any converts the value to plain Go data (map[string]any, []any, float64,
// string, bool, nil).
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Any()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			out[k] = v.fields[k].Any()
		}
		return out
	default:
		return nil
	}
}

// FromAny converts plain Go data into a Value. Map keys are sorted since Go
// maps carry no order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int8:
		return Number(float64(t)), nil
	case int16:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint8:
		return Number(float64(t)), nil
	case uint16:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, goerr.Wrap(err, "invalid number", goerr.V("number", t.String()))
		}
		return Number(n), nil
	case time.Time:
		return String(t.Format(time.RFC3339Nano)), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Value{kind: KindList, list: items}, nil
	case []string:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, String(item))
		}
		return Value{kind: KindList, list: items}, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := Object()
		for _, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, goerr.Wrap(err, "invalid object field", goerr.V("key", k))
			}
			out.set(k, v)
		}
		return out, nil
	default:
		return Value{}, goerr.New("unsupported document type", goerr.V("type", fmt.Sprintf("%T", x)))
	}
}

// MarshalJSON encodes the value keeping object key order
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return goerr.New("number is not representable in JSON", goerr.V("number", v.n))
		}
		raw, err := json.Marshal(v.n)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal number")
		}
		buf.Write(raw)
	case KindString:
		raw, err := json.Marshal(v.s)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal string")
		}
		buf.Write(raw)
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			raw, err := json.Marshal(k)
			if err != nil {
				return goerr.Wrap(err, "failed to marshal key")
			}
			buf.Write(raw)
			buf.WriteByte(':')
			if err := v.fields[k].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON decodes a JSON document keeping object key order
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	parsed, err := decodeJSON(dec)
	if err != nil {
		return goerr.Wrap(err, "failed to decode document")
	}
	if _, err := dec.Token(); err != io.EOF {
		return goerr.New("unexpected trailing data in document")
	}

	*v = parsed
	return nil
}

// ParseJSON decodes a JSON document into a Value
func ParseJSON(data []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Value{}, err
	}
	return v, nil
}

func decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := Object()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, goerr.New("object key is not a string")
				}
				val, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				obj.set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return obj, nil

		case '[':
			list := Value{kind: KindList, list: []Value{}}
			for dec.More() {
				item, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				list.list = append(list.list, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return list, nil

		default:
			return Value{}, goerr.New("unexpected delimiter", goerr.V("delim", t.String()))
		}

	case string:
		return String(t), nil
	case json.Number:
		return FromAny(t)
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}

	return Value{}, goerr.New("unexpected token")
}

// UnmarshalYAML decodes a YAML node keeping mapping order
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := fromYAMLNode(node)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func fromYAMLNode(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return fromYAMLNode(node.Content[0])

	case yaml.AliasNode:
		return fromYAMLNode(node.Alias)

	case yaml.MappingNode:
		obj := Object()
		for i := 0; i+1 < len(node.Content); i += 2 {
			val, err := fromYAMLNode(node.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			obj.set(node.Content[i].Value, val)
		}
		return obj, nil

	case yaml.SequenceNode:
		list := Value{kind: KindList, list: make([]Value, 0, len(node.Content))}
		for _, child := range node.Content {
			item, err := fromYAMLNode(child)
			if err != nil {
				return Value{}, err
			}
			list.list = append(list.list, item)
		}
		return list, nil

	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			return Null(), nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return Value{}, goerr.Wrap(err, "invalid bool", goerr.V("line", node.Line))
			}
			return Bool(b), nil
		case "!!int", "!!float":
			var n float64
			if err := node.Decode(&n); err != nil {
				return Value{}, goerr.Wrap(err, "invalid number", goerr.V("line", node.Line))
			}
			return Number(n), nil
		default:
			return String(node.Value), nil
		}
	}

	return Value{}, goerr.New("unsupported yaml node", goerr.V("line", node.Line))
}

// MarshalYAML encodes the value as a YAML node keeping mapping order
func (v Value) MarshalYAML() (any, error) {
	return v.yamlNode(), nil
}

func (v Value) yamlNode() *yaml.Node {
	switch v.kind {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindNumber:
		if v.n == math.Trunc(v.n) && math.Abs(v.n) < 1e15 {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatFloat(v.n, 'f', -1, 64)}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v.n, 'g', -1, 64)}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}
	case KindList:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.list {
			node.Content = append(node.Content, item.yamlNode())
		}
		return node
	case KindObject:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.keys {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				v.fields[k].yamlNode(),
			)
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
