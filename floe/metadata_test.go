package floe

import (
	"errors"
	"strings"
	"testing"
)

const testTableUUID = "9c12d441-03fe-4693-9a96-a0705ddf69c1"

// validMetadata returns a minimal metadata document that passes validation.
// Tests mutate the result to exercise individual checks.
func validMetadata() *TableMetadata {
	current := int64(3051729675574597004)
	return &TableMetadata{
		FormatVersion:   2,
		TableUUID:       testTableUUID,
		Location:        "warehouse/db/tbl",
		LastUpdatedMS:   1602638573590,
		LastColumnID:    3,
		CurrentSchemaID: 0,
		Schemas: []*Schema{{
			ID: 0,
			Fields: []NestedField{
				{ID: 1, Name: "id", Type: TypeLong, Required: true},
				{ID: 2, Name: "category", Type: TypeString},
				{ID: 3, Name: "reading", Type: TypeDouble},
			},
		}},
		DefaultSpecID:     0,
		Specs:             []*PartitionSpec{UnpartitionedSpec()},
		CurrentSnapshotID: &current,
		Snapshots: []*Snapshot{{
			SnapshotID:   current,
			TimestampMS:  1602638573590,
			ManifestList: "warehouse/db/tbl/metadata/snap-3051729675574597004-1-xyz.avro",
		}},
	}
}

// -----------------------------------------------------------------------------
// Parse and validate
// -----------------------------------------------------------------------------

func TestParseTableMetadata_RoundTrip(t *testing.T) {
	doc, err := jsonCodec.Marshal(validMetadata())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	m, err := ParseTableMetadata(doc)
	if err != nil {
		t.Fatalf("ParseTableMetadata: %v", err)
	}

	if m.TableUUID != testTableUUID {
		t.Errorf("table uuid = %q, want %q", m.TableUUID, testTableUUID)
	}
	if m.Schema() == nil || len(m.Schema().Fields) != 3 {
		t.Errorf("current schema not resolved: %+v", m.Schema())
	}
	if m.Spec() == nil || !m.Spec().IsUnpartitioned() {
		t.Errorf("default spec not resolved: %+v", m.Spec())
	}
	snap := m.CurrentSnapshot()
	if snap == nil {
		t.Fatal("current snapshot not resolved")
	}
	if snap.ManifestList == "" {
		t.Error("current snapshot missing manifest list")
	}
}

func TestParseTableMetadata_MalformedJSON(t *testing.T) {
	if _, err := ParseTableMetadata([]byte(`{"format-version": 2`)); err == nil {
		t.Error("expected decode error, got nil")
	}
}

func TestValidateTableMetadata_Checks(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(m *TableMetadata)
		wantField string
	}{
		{"unsupported format version", func(m *TableMetadata) { m.FormatVersion = 3 }, "format-version"},
		{"zero format version", func(m *TableMetadata) { m.FormatVersion = 0 }, "format-version"},
		{"bad uuid", func(m *TableMetadata) { m.TableUUID = "not-a-uuid" }, "table-uuid"},
		{"missing location", func(m *TableMetadata) { m.Location = "" }, "location"},
		{"no schemas", func(m *TableMetadata) { m.Schemas = nil }, "schemas"},
		{"nil schema entry", func(m *TableMetadata) { m.Schemas = append(m.Schemas, nil) }, "schemas[1]"},
		{"unknown current schema", func(m *TableMetadata) { m.CurrentSchemaID = 5 }, "current-schema-id"},
		{"no partition specs", func(m *TableMetadata) { m.Specs = nil }, "partition-specs"},
		{"unknown default spec", func(m *TableMetadata) { m.DefaultSpecID = 9 }, "default-spec-id"},
		{"nil snapshot entry", func(m *TableMetadata) { m.Snapshots[0] = nil }, "snapshots[0]"},
		{"snapshot without id", func(m *TableMetadata) { m.Snapshots[0].SnapshotID = 0 }, "snapshot-id"},
		{"snapshot without manifest list", func(m *TableMetadata) { m.Snapshots[0].ManifestList = "" }, "manifest-list"},
		{
			"current snapshot unknown",
			func(m *TableMetadata) {
				stale := int64(42)
				m.CurrentSnapshotID = &stale
			},
			"current-snapshot-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMetadata()
			tt.mutate(m)

			// Validation failures surface through parsing too, so round-trip
			// through JSON the way the catalog sees them. Nil snapshot
			// entries survive encoding as JSON nulls.
			doc, err := jsonCodec.Marshal(m)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			_, err = ParseTableMetadata(doc)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, ErrMetadataInvalid) {
				t.Errorf("expected ErrMetadataInvalid, got: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q does not name field %q", err.Error(), tt.wantField)
			}
		})
	}
}

func TestValidateTableMetadata_FormatVersion1(t *testing.T) {
	m := validMetadata()
	m.FormatVersion = 1
	m.LastSequenceNumber = 0

	doc, err := jsonCodec.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := ParseTableMetadata(doc); err != nil {
		t.Errorf("format version 1 should validate: %v", err)
	}
}

func TestValidateTableMetadata_NoSnapshotsIsValid(t *testing.T) {
	m := validMetadata()
	m.CurrentSnapshotID = nil
	m.Snapshots = nil

	doc, err := jsonCodec.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := ParseTableMetadata(doc)
	if err != nil {
		t.Fatalf("empty table should validate: %v", err)
	}
	if parsed.CurrentSnapshot() != nil {
		t.Error("expected no current snapshot")
	}
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

func TestTableMetadata_LookupMisses(t *testing.T) {
	m := validMetadata()

	if m.SchemaByID(77) != nil {
		t.Error("expected nil for unknown schema id")
	}
	if m.SpecByID(77) != nil {
		t.Error("expected nil for unknown spec id")
	}
	if m.SnapshotByID(77) != nil {
		t.Error("expected nil for unknown snapshot id")
	}
}
