package floe

import (
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Partition spec
// -----------------------------------------------------------------------------

// PartitionField maps a source column to a partition value through a
// transform.
type PartitionField struct {
	// SourceID is the id of the schema field the transform reads.
	SourceID int `json:"source-id"`

	// FieldID is the partition field's own stable id.
	FieldID int `json:"field-id"`

	// Name is the partition field name.
	Name string `json:"name"`

	// Transform is the transform name (identity, bucket[N], truncate[W],
	// year, month, day, hour, void).
	Transform string `json:"transform"`
}

// PartitionSpec is the rule mapping a row's column values to partition
// values. A spec with no fields is unpartitioned.
type PartitionSpec struct {
	ID     int              `json:"spec-id"`
	Fields []PartitionField `json:"fields"`
}

// UnpartitionedSpec returns the spec with no partition fields.
func UnpartitionedSpec() *PartitionSpec {
	return &PartitionSpec{ID: 0, Fields: []PartitionField{}}
}

// IsUnpartitioned reports whether the spec has no partition fields.
func (s *PartitionSpec) IsUnpartitioned() bool {
	return len(s.Fields) == 0
}

// Equals reports whether two specs have the same id and identical fields.
func (s *PartitionSpec) Equals(other *PartitionSpec) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.ID != other.ID || len(s.Fields) != len(other.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// PartitionType returns the struct type of partition values produced by this
// spec against the given schema: one optional field per partition field,
// typed by the transform's result type.
func (s *PartitionSpec) PartitionType(schema *Schema) (StructType, error) {
	fields := make([]NestedField, 0, len(s.Fields))
	for _, pf := range s.Fields {
		src, ok := schema.FieldByID(pf.SourceID)
		if !ok {
			return StructType{}, fmt.Errorf("floe: partition field %q references unknown source field %d", pf.Name, pf.SourceID)
		}
		rt, err := transformResultType(pf.Transform, src.Type)
		if err != nil {
			return StructType{}, fmt.Errorf("floe: partition field %q: %w", pf.Name, err)
		}
		fields = append(fields, NestedField{
			ID:   pf.FieldID,
			Name: pf.Name,
			Type: rt,
		})
	}
	return StructType{Fields: fields}, nil
}

// transformResultType resolves the value type a transform produces from the
// given source type.
func transformResultType(transform string, source Type) (Type, error) {
	switch transform {
	case "identity", "void":
		return source, nil
	case "year", "month", "day", "hour":
		return TypeInt, nil
	}
	if strings.HasPrefix(transform, "bucket[") && strings.HasSuffix(transform, "]") {
		return TypeInt, nil
	}
	if strings.HasPrefix(transform, "truncate[") && strings.HasSuffix(transform, "]") {
		return source, nil
	}
	return nil, fmt.Errorf("unknown transform %q", transform)
}

// -----------------------------------------------------------------------------
// JSON form
// -----------------------------------------------------------------------------

// SpecToJSON serializes a partition spec to its JSON text form.
func SpecToJSON(s *PartitionSpec) (string, error) {
	if s == nil {
		return "", fmt.Errorf("floe: partition spec must not be nil")
	}
	out, err := jsonCodec.MarshalToString(s)
	if err != nil {
		return "", fmt.Errorf("floe: failed to serialize partition spec: %w", err)
	}
	return out, nil
}

// ParseSpec parses a partition spec from its JSON text form.
func ParseSpec(data []byte) (*PartitionSpec, error) {
	var s PartitionSpec
	if err := jsonCodec.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("floe: failed to parse partition spec: %w", err)
	}
	return &s, nil
}
