package floe

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// Snapshot is an immutable, versioned state of a table, pointing at the
// manifest list that enumerates its manifest files.
type Snapshot struct {
	// SnapshotID uniquely identifies this snapshot.
	SnapshotID int64 `json:"snapshot-id"`

	// ParentID optionally references the previous snapshot.
	ParentID *int64 `json:"parent-snapshot-id,omitempty"`

	// SequenceNumber orders the snapshot within the table history.
	SequenceNumber int64 `json:"sequence-number,omitempty"`

	// TimestampMS records when the snapshot was committed.
	TimestampMS int64 `json:"timestamp-ms"`

	// ManifestList is the location of the snapshot's manifest-list file.
	ManifestList string `json:"manifest-list"`

	// Summary contains writer-provided operation details.
	Summary map[string]string `json:"summary,omitempty"`

	// SchemaID optionally records the schema version the snapshot was
	// written with.
	SchemaID *int `json:"schema-id,omitempty"`
}

// -----------------------------------------------------------------------------
// Table metadata
// -----------------------------------------------------------------------------

// TableMetadata is the root metadata document of a table: schemas, partition
// specs, and the snapshot log. It is a read-only value; a table change is a
// new metadata document.
type TableMetadata struct {
	FormatVersion      int               `json:"format-version"`
	TableUUID          string            `json:"table-uuid"`
	Location           string            `json:"location"`
	LastSequenceNumber int64             `json:"last-sequence-number,omitempty"`
	LastUpdatedMS      int64             `json:"last-updated-ms"`
	LastColumnID       int               `json:"last-column-id"`
	CurrentSchemaID    int               `json:"current-schema-id"`
	Schemas            []*Schema         `json:"schemas"`
	DefaultSpecID      int               `json:"default-spec-id"`
	Specs              []*PartitionSpec  `json:"partition-specs"`
	LastPartitionID    int               `json:"last-partition-id,omitempty"`
	Properties         map[string]string `json:"properties,omitempty"`
	CurrentSnapshotID  *int64            `json:"current-snapshot-id,omitempty"`
	Snapshots          []*Snapshot       `json:"snapshots,omitempty"`
}

// Schema returns the current schema, or nil if the id does not resolve.
func (m *TableMetadata) Schema() *Schema {
	return m.SchemaByID(m.CurrentSchemaID)
}

// SchemaByID returns the schema with the given id, or nil.
func (m *TableMetadata) SchemaByID(id int) *Schema {
	for _, s := range m.Schemas {
		if s != nil && s.ID == id {
			return s
		}
	}
	return nil
}

// Spec returns the default partition spec, or nil if the id does not resolve.
func (m *TableMetadata) Spec() *PartitionSpec {
	return m.SpecByID(m.DefaultSpecID)
}

// SpecByID returns the partition spec with the given id, or nil.
func (m *TableMetadata) SpecByID(id int) *PartitionSpec {
	for _, s := range m.Specs {
		if s != nil && s.ID == id {
			return s
		}
	}
	return nil
}

// CurrentSnapshot returns the table's current snapshot, or nil when the
// table has none.
func (m *TableMetadata) CurrentSnapshot() *Snapshot {
	if m.CurrentSnapshotID == nil {
		return nil
	}
	return m.SnapshotByID(*m.CurrentSnapshotID)
}

// SnapshotByID returns the snapshot with the given id, or nil.
func (m *TableMetadata) SnapshotByID(id int64) *Snapshot {
	for _, s := range m.Snapshots {
		if s != nil && s.SnapshotID == id {
			return s
		}
	}
	return nil
}

// ParseTableMetadata decodes and validates a table metadata document.
func ParseTableMetadata(data []byte) (*TableMetadata, error) {
	var m TableMetadata
	if err := jsonCodec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("floe: failed to decode table metadata: %w", err)
	}
	if err := validateTableMetadata(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// -----------------------------------------------------------------------------
// Metadata validation
// -----------------------------------------------------------------------------

// ErrMetadataInvalid indicates table metadata failed validation.
var ErrMetadataInvalid = errors.New("invalid table metadata")

// metadataValidationError provides details about metadata validation
// failures.
type metadataValidationError struct {
	Field   string
	Message string
}

func (e *metadataValidationError) Error() string {
	return fmt.Sprintf("invalid table metadata: %s: %s", e.Field, e.Message)
}

func (e *metadataValidationError) Unwrap() error {
	return ErrMetadataInvalid
}

// validateTableMetadata checks that a metadata document is internally
// consistent: ids resolve and snapshots carry manifest-list locations.
func validateTableMetadata(m *TableMetadata) error {
	if m == nil {
		return &metadataValidationError{Field: "metadata", Message: "is nil"}
	}
	if m.FormatVersion != 1 && m.FormatVersion != 2 {
		return &metadataValidationError{
			Field:   "format-version",
			Message: fmt.Sprintf("must be 1 or 2, got %d", m.FormatVersion),
		}
	}
	if _, err := uuid.Parse(m.TableUUID); err != nil {
		return &metadataValidationError{Field: "table-uuid", Message: "must be a valid UUID"}
	}
	if m.Location == "" {
		return &metadataValidationError{Field: "location", Message: "is required"}
	}
	if len(m.Schemas) == 0 {
		return &metadataValidationError{Field: "schemas", Message: "must not be empty"}
	}
	for i, s := range m.Schemas {
		if s == nil {
			return &metadataValidationError{
				Field:   fmt.Sprintf("schemas[%d]", i),
				Message: "is nil",
			}
		}
	}
	if m.Schema() == nil {
		return &metadataValidationError{
			Field:   "current-schema-id",
			Message: fmt.Sprintf("references unknown schema %d", m.CurrentSchemaID),
		}
	}
	if len(m.Specs) == 0 {
		return &metadataValidationError{Field: "partition-specs", Message: "must not be empty"}
	}
	for i, s := range m.Specs {
		if s == nil {
			return &metadataValidationError{
				Field:   fmt.Sprintf("partition-specs[%d]", i),
				Message: "is nil",
			}
		}
	}
	if m.Spec() == nil {
		return &metadataValidationError{
			Field:   "default-spec-id",
			Message: fmt.Sprintf("references unknown partition spec %d", m.DefaultSpecID),
		}
	}
	for i, s := range m.Snapshots {
		if s == nil {
			return &metadataValidationError{
				Field:   fmt.Sprintf("snapshots[%d]", i),
				Message: "is nil",
			}
		}
		if s.SnapshotID == 0 {
			return &metadataValidationError{
				Field:   fmt.Sprintf("snapshots[%d].snapshot-id", i),
				Message: "is required",
			}
		}
		if s.ManifestList == "" {
			return &metadataValidationError{
				Field:   fmt.Sprintf("snapshots[%d].manifest-list", i),
				Message: "is required",
			}
		}
	}
	if m.CurrentSnapshotID != nil && m.CurrentSnapshot() == nil {
		return &metadataValidationError{
			Field:   "current-snapshot-id",
			Message: fmt.Sprintf("references unknown snapshot %d", *m.CurrentSnapshotID),
		}
	}
	return nil
}
