package floe

import "fmt"

// Identifier names a table as its namespace path plus table name.
type Identifier []string

func (i Identifier) String() string {
	out := ""
	for n, part := range i {
		if n > 0 {
			out += "."
		}
		out += part
	}
	return out
}

// Table is an immutable handle over one table metadata document and the
// storage it lives on. A handle pins the metadata it was loaded with;
// commits made after loading are only visible to handles loaded later.
type Table struct {
	ident   Identifier
	meta    *TableMetadata
	storage FileIO
}

// NewTable wraps a metadata document and its storage into a table handle.
// The document is validated; see ParseTableMetadata for loading from bytes.
func NewTable(ident Identifier, meta *TableMetadata, storage FileIO) (*Table, error) {
	if storage == nil {
		return nil, fmt.Errorf("floe: storage must not be nil")
	}
	if err := validateTableMetadata(meta); err != nil {
		return nil, err
	}
	return &Table{ident: ident, meta: meta, storage: storage}, nil
}

// Identifier returns the table's name.
func (t *Table) Identifier() Identifier {
	return t.ident
}

// Location returns the table's root location.
func (t *Table) Location() string {
	return t.meta.Location
}

// Metadata returns the pinned metadata document.
func (t *Table) Metadata() *TableMetadata {
	return t.meta
}

// Schema returns the table's current schema.
func (t *Table) Schema() *Schema {
	return t.meta.Schema()
}

// Spec returns the table's default partition spec.
func (t *Table) Spec() *PartitionSpec {
	return t.meta.Spec()
}

// CurrentSnapshot returns the pinned current snapshot, or nil when the
// table has no committed snapshot.
func (t *Table) CurrentSnapshot() *Snapshot {
	return t.meta.CurrentSnapshot()
}

// SnapshotByID returns the snapshot with the given id, or nil.
func (t *Table) SnapshotByID(id int64) *Snapshot {
	return t.meta.SnapshotByID(id)
}

// Storage returns the storage the table's files live on.
func (t *Table) Storage() FileIO {
	return t.storage
}

// DataFiles returns the table's "files" metadata view: one row per live
// data file in a snapshot.
func (t *Table) DataFiles() *DataFilesTable {
	return &DataFilesTable{table: t}
}
