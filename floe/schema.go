package floe

import (
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

// Schema is a versioned table schema: an ordered set of typed, id-addressed
// fields.
type Schema struct {
	// ID identifies this schema version within the table metadata.
	ID int

	// Fields are the top-level columns.
	Fields []NestedField
}

// AsStruct returns the schema's fields as a struct type.
func (s *Schema) AsStruct() StructType {
	return StructType{Fields: s.Fields}
}

// Equals reports whether two schemas have the same id and identical fields.
func (s *Schema) Equals(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.ID == other.ID && s.AsStruct().Equals(other.AsStruct())
}

// FieldByID returns the field with the given id, searching nested structs.
func (s *Schema) FieldByID(id int) (NestedField, bool) {
	return findFieldByID(s.Fields, id)
}

func findFieldByID(fields []NestedField, id int) (NestedField, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
		if st, ok := f.Type.(StructType); ok {
			if found, ok := findFieldByID(st.Fields, id); ok {
				return found, true
			}
		}
	}
	return NestedField{}, false
}

// FindField returns the top-level field with the given name. With
// caseSensitive false the match ignores case.
func (s *Schema) FindField(name string, caseSensitive bool) (NestedField, bool) {
	for _, f := range s.Fields {
		if f.Name == name || (!caseSensitive && strings.EqualFold(f.Name, name)) {
			return f, true
		}
	}
	return NestedField{}, false
}

// -----------------------------------------------------------------------------
// JSON form
// -----------------------------------------------------------------------------

// schemaWire is the JSON shape of a schema: a struct type carrying its id.
type schemaWire struct {
	Type     string        `json:"type"`
	SchemaID int           `json:"schema-id"`
	Fields   []NestedField `json:"fields"`
}

func (s *Schema) MarshalJSON() ([]byte, error) {
	return jsonCodec.Marshal(schemaWire{Type: "struct", SchemaID: s.ID, Fields: s.Fields})
}

func (s *Schema) UnmarshalJSON(data []byte) error {
	var wire schemaWire
	if err := jsonCodec.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Type != "" && wire.Type != "struct" {
		return fmt.Errorf("floe: schema must be a struct type, got %q", wire.Type)
	}
	s.ID = wire.SchemaID
	s.Fields = wire.Fields
	return nil
}

// SchemaToJSON serializes a schema to its JSON text form.
func SchemaToJSON(s *Schema) (string, error) {
	if s == nil {
		return "", fmt.Errorf("floe: schema must not be nil")
	}
	out, err := jsonCodec.MarshalToString(s)
	if err != nil {
		return "", fmt.Errorf("floe: failed to serialize schema: %w", err)
	}
	return out, nil
}

// ParseSchema parses a schema from its JSON text form.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := jsonCodec.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("floe: failed to parse schema: %w", err)
	}
	return &s, nil
}
