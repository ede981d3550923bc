package floe

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// -----------------------------------------------------------------------------
// Field types
// -----------------------------------------------------------------------------

// Type is a field type in a table schema: a primitive or a nested
// struct, list, or map.
type Type interface {
	// String returns the canonical name of the type.
	String() string

	// Equals reports whether two types are structurally identical.
	Equals(other Type) bool
}

// PrimitiveType is a non-nested field type, named by its canonical form
// (for example "long", "string", "decimal(10,2)", "fixed[16]").
type PrimitiveType string

// Primitive type names.
const (
	TypeBoolean     PrimitiveType = "boolean"
	TypeInt         PrimitiveType = "int"
	TypeLong        PrimitiveType = "long"
	TypeFloat       PrimitiveType = "float"
	TypeDouble      PrimitiveType = "double"
	TypeDate        PrimitiveType = "date"
	TypeTime        PrimitiveType = "time"
	TypeTimestamp   PrimitiveType = "timestamp"
	TypeTimestampTZ PrimitiveType = "timestamptz"
	TypeString      PrimitiveType = "string"
	TypeUUID        PrimitiveType = "uuid"
	TypeBinary      PrimitiveType = "binary"
)

func (p PrimitiveType) String() string { return string(p) }

func (p PrimitiveType) Equals(other Type) bool {
	o, ok := other.(PrimitiveType)
	return ok && p == o
}

// validPrimitive reports whether name is a recognized primitive type name,
// including the parameterized decimal and fixed forms.
func validPrimitive(name string) bool {
	switch PrimitiveType(name) {
	case TypeBoolean, TypeInt, TypeLong, TypeFloat, TypeDouble, TypeDate,
		TypeTime, TypeTimestamp, TypeTimestampTZ, TypeString, TypeUUID,
		TypeBinary:
		return true
	}
	if strings.HasPrefix(name, "decimal(") && strings.HasSuffix(name, ")") {
		return true
	}
	if strings.HasPrefix(name, "fixed[") && strings.HasSuffix(name, "]") {
		return true
	}
	return false
}

// NestedField is a named, typed field within a struct type or schema.
type NestedField struct {
	// ID is the field's stable numeric identifier.
	ID int

	// Name is the field name.
	Name string

	// Type is the field's type.
	Type Type

	// Required indicates the field cannot be null.
	Required bool

	// Doc is an optional field description.
	Doc string
}

// Equals reports whether two fields are identical, including their types.
func (f NestedField) Equals(other NestedField) bool {
	if f.ID != other.ID || f.Name != other.Name || f.Required != other.Required || f.Doc != other.Doc {
		return false
	}
	if f.Type == nil || other.Type == nil {
		return f.Type == nil && other.Type == nil
	}
	return f.Type.Equals(other.Type)
}

// StructType is an ordered collection of nested fields.
type StructType struct {
	Fields []NestedField
}

func (s StructType) String() string { return "struct" }

func (s StructType) Equals(other Type) bool {
	o, ok := other.(StructType)
	if !ok || len(s.Fields) != len(o.Fields) {
		return false
	}
	for i := range s.Fields {
		if !s.Fields[i].Equals(o.Fields[i]) {
			return false
		}
	}
	return true
}

// ListType is a collection of elements sharing one type.
type ListType struct {
	ElementID       int
	Element         Type
	ElementRequired bool
}

func (l ListType) String() string { return "list" }

func (l ListType) Equals(other Type) bool {
	o, ok := other.(ListType)
	return ok &&
		l.ElementID == o.ElementID &&
		l.ElementRequired == o.ElementRequired &&
		l.Element != nil && o.Element != nil && l.Element.Equals(o.Element)
}

// MapType is a collection of key-value pairs with typed keys and values.
type MapType struct {
	KeyID         int
	Key           Type
	ValueID       int
	Value         Type
	ValueRequired bool
}

func (m MapType) String() string { return "map" }

func (m MapType) Equals(other Type) bool {
	o, ok := other.(MapType)
	return ok &&
		m.KeyID == o.KeyID &&
		m.ValueID == o.ValueID &&
		m.ValueRequired == o.ValueRequired &&
		m.Key != nil && o.Key != nil && m.Key.Equals(o.Key) &&
		m.Value != nil && o.Value != nil && m.Value.Equals(o.Value)
}

// -----------------------------------------------------------------------------
// JSON forms
// -----------------------------------------------------------------------------

// Types serialize to the table format's JSON representation: primitives as
// bare strings, nested types as objects discriminated by a "type" key.

func (f NestedField) MarshalJSON() ([]byte, error) {
	raw, err := typeToRaw(f.Type)
	if err != nil {
		return nil, fmt.Errorf("floe: field %q: %w", f.Name, err)
	}
	wire := struct {
		ID       int                 `json:"id"`
		Name     string              `json:"name"`
		Required bool                `json:"required"`
		Type     jsoniter.RawMessage `json:"type"`
		Doc      string              `json:"doc,omitempty"`
	}{f.ID, f.Name, f.Required, raw, f.Doc}
	return jsonCodec.Marshal(wire)
}

func (f *NestedField) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID       int                 `json:"id"`
		Name     string              `json:"name"`
		Required bool                `json:"required"`
		Type     jsoniter.RawMessage `json:"type"`
		Doc      string              `json:"doc"`
	}
	if err := jsonCodec.Unmarshal(data, &wire); err != nil {
		return err
	}
	t, err := typeFromRaw(wire.Type)
	if err != nil {
		return fmt.Errorf("floe: field %q: %w", wire.Name, err)
	}
	f.ID = wire.ID
	f.Name = wire.Name
	f.Required = wire.Required
	f.Type = t
	f.Doc = wire.Doc
	return nil
}

func typeToRaw(t Type) (jsoniter.RawMessage, error) {
	switch v := t.(type) {
	case PrimitiveType:
		return jsonCodec.Marshal(string(v))
	case StructType:
		wire := struct {
			Type   string        `json:"type"`
			Fields []NestedField `json:"fields"`
		}{"struct", v.Fields}
		return jsonCodec.Marshal(wire)
	case ListType:
		element, err := typeToRaw(v.Element)
		if err != nil {
			return nil, err
		}
		wire := struct {
			Type            string              `json:"type"`
			ElementID       int                 `json:"element-id"`
			Element         jsoniter.RawMessage `json:"element"`
			ElementRequired bool                `json:"element-required"`
		}{"list", v.ElementID, element, v.ElementRequired}
		return jsonCodec.Marshal(wire)
	case MapType:
		key, err := typeToRaw(v.Key)
		if err != nil {
			return nil, err
		}
		value, err := typeToRaw(v.Value)
		if err != nil {
			return nil, err
		}
		wire := struct {
			Type          string              `json:"type"`
			KeyID         int                 `json:"key-id"`
			Key           jsoniter.RawMessage `json:"key"`
			ValueID       int                 `json:"value-id"`
			Value         jsoniter.RawMessage `json:"value"`
			ValueRequired bool                `json:"value-required"`
		}{"map", v.KeyID, key, v.ValueID, value, v.ValueRequired}
		return jsonCodec.Marshal(wire)
	case nil:
		return nil, errors.New("type is required")
	default:
		return nil, fmt.Errorf("unsupported type %T", t)
	}
}

func typeFromRaw(raw jsoniter.RawMessage) (Type, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, errors.New("type is required")
	}

	if trimmed[0] == '"' {
		var name string
		if err := jsonCodec.Unmarshal(raw, &name); err != nil {
			return nil, err
		}
		if !validPrimitive(name) {
			return nil, fmt.Errorf("unknown primitive type %q", name)
		}
		return PrimitiveType(name), nil
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := jsonCodec.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case "struct":
		var wire struct {
			Fields []NestedField `json:"fields"`
		}
		if err := jsonCodec.Unmarshal(raw, &wire); err != nil {
			return nil, err
		}
		return StructType{Fields: wire.Fields}, nil

	case "list":
		var wire struct {
			ElementID       int                 `json:"element-id"`
			Element         jsoniter.RawMessage `json:"element"`
			ElementRequired bool                `json:"element-required"`
		}
		if err := jsonCodec.Unmarshal(raw, &wire); err != nil {
			return nil, err
		}
		element, err := typeFromRaw(wire.Element)
		if err != nil {
			return nil, err
		}
		return ListType{ElementID: wire.ElementID, Element: element, ElementRequired: wire.ElementRequired}, nil

	case "map":
		var wire struct {
			KeyID         int                 `json:"key-id"`
			Key           jsoniter.RawMessage `json:"key"`
			ValueID       int                 `json:"value-id"`
			Value         jsoniter.RawMessage `json:"value"`
			ValueRequired bool                `json:"value-required"`
		}
		if err := jsonCodec.Unmarshal(raw, &wire); err != nil {
			return nil, err
		}
		key, err := typeFromRaw(wire.Key)
		if err != nil {
			return nil, err
		}
		value, err := typeFromRaw(wire.Value)
		if err != nil {
			return nil, err
		}
		return MapType{KeyID: wire.KeyID, Key: key, ValueID: wire.ValueID, Value: value, ValueRequired: wire.ValueRequired}, nil

	default:
		return nil, fmt.Errorf("unknown type %q", head.Type)
	}
}
