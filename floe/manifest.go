package floe

// -----------------------------------------------------------------------------
// Manifest list entries
// -----------------------------------------------------------------------------

// ManifestContent distinguishes manifests tracking data files from those
// tracking delete files.
type ManifestContent int32

const (
	ManifestContentData    ManifestContent = 0
	ManifestContentDeletes ManifestContent = 1
)

// ManifestFile describes one manifest referenced by a snapshot's manifest
// list: its location, length, and summary counts used for scan planning.
type ManifestFile struct {
	// Path is the location of the manifest file.
	Path string

	// Length is the total size of the manifest file in bytes.
	Length int64

	// SpecID identifies the partition spec the manifest was written with.
	SpecID int32

	// Content indicates whether the manifest tracks data or delete files.
	Content ManifestContent

	// SequenceNumber and MinSequenceNumber order the manifest's entries
	// within the table history.
	SequenceNumber    int64
	MinSequenceNumber int64

	// AddedSnapshotID is the snapshot that added this manifest.
	AddedSnapshotID int64

	// Entry counts by status.
	AddedFiles    int32
	ExistingFiles int32
	DeletedFiles  int32

	// Row counts by status.
	AddedRows    int64
	ExistingRows int64
	DeletedRows  int64

	// Partitions summarizes value ranges per partition field, in spec
	// field order. Nil when the writer recorded no summaries.
	Partitions []FieldSummary
}

// liveRows is the number of rows in entries that are still part of the
// table, excluding deleted entries.
func (m *ManifestFile) liveRows() int64 {
	return m.AddedRows + m.ExistingRows
}

// FieldSummary is the per-partition-field value summary carried by a
// manifest list entry.
type FieldSummary struct {
	ContainsNull bool
	ContainsNaN  *bool
	LowerBound   []byte
	UpperBound   []byte
}

// -----------------------------------------------------------------------------
// Manifest entries
// -----------------------------------------------------------------------------

// ManifestEntryStatus records how a manifest entry relates to its snapshot.
type ManifestEntryStatus int32

const (
	EntryStatusExisting ManifestEntryStatus = 0
	EntryStatusAdded    ManifestEntryStatus = 1
	EntryStatusDeleted  ManifestEntryStatus = 2
)

// ManifestEntry is one row of a manifest file: a data file plus the
// bookkeeping that tracks when it entered or left the table.
type ManifestEntry struct {
	Status             ManifestEntryStatus
	SnapshotID         *int64
	SequenceNumber     *int64
	FileSequenceNumber *int64
	DataFile           *DataFile
}

// FileFormat names the serialization format of a data file.
type FileFormat string

const (
	FormatParquet FileFormat = "PARQUET"
	FormatAvro    FileFormat = "AVRO"
	FormatORC     FileFormat = "ORC"
)

// DataFile describes one file tracked by a manifest, including the column
// metrics writers record for pruning.
type DataFile struct {
	// Path is the location of the data file.
	Path string

	// Format is the file's serialization format.
	Format FileFormat

	// Partition holds the file's partition tuple, keyed by partition
	// field name. Empty for unpartitioned tables.
	Partition map[string]any

	// RecordCount is the number of rows in the file.
	RecordCount int64

	// SizeBytes is the file size in bytes.
	SizeBytes int64

	// Column metrics, keyed by field id. Nil when the writer recorded
	// none or the scan dropped them.
	ColumnSizes     map[int]int64
	ValueCounts     map[int]int64
	NullValueCounts map[int]int64
	NaNValueCounts  map[int]int64
	LowerBounds     map[int][]byte
	UpperBounds     map[int][]byte

	// KeyMetadata carries encryption material, when present.
	KeyMetadata []byte

	// SplitOffsets are recommended split points within the file.
	SplitOffsets []int64

	// SortOrderID identifies the sort order the file was written with.
	SortOrderID *int32
}

// WithoutStats returns a copy of the data file with column metrics dropped.
// The receiver is not modified.
func (d *DataFile) WithoutStats() *DataFile {
	cp := *d
	cp.ColumnSizes = nil
	cp.ValueCounts = nil
	cp.NullValueCounts = nil
	cp.NaNValueCounts = nil
	cp.LowerBounds = nil
	cp.UpperBounds = nil
	return &cp
}

// dataFileFromManifest synthesizes the DataFile a metadata scan reports for
// reading a manifest: the manifest itself is the file to be read, sized by
// its length and counted by its live rows.
func dataFileFromManifest(m *ManifestFile) *DataFile {
	return &DataFile{
		Path:        m.Path,
		Format:      FormatAvro,
		RecordCount: m.liveRows(),
		SizeBytes:   m.Length,
	}
}

// -----------------------------------------------------------------------------
// Avro wire forms
// -----------------------------------------------------------------------------

// manifestFileAvro is the wire form of a manifest list entry. Fields absent
// from a writer's schema are left zero; writer fields with no counterpart
// here are skipped.
type manifestFileAvro struct {
	Path              string             `avro:"manifest_path"`
	Length            int64              `avro:"manifest_length"`
	SpecID            int32              `avro:"partition_spec_id"`
	Content           int32              `avro:"content"`
	SequenceNumber    int64              `avro:"sequence_number"`
	MinSequenceNumber int64              `avro:"min_sequence_number"`
	AddedSnapshotID   int64              `avro:"added_snapshot_id"`
	AddedFiles        int32              `avro:"added_data_files_count"`
	ExistingFiles     int32              `avro:"existing_data_files_count"`
	DeletedFiles      int32              `avro:"deleted_data_files_count"`
	AddedRows         int64              `avro:"added_rows_count"`
	ExistingRows      int64              `avro:"existing_rows_count"`
	DeletedRows       int64              `avro:"deleted_rows_count"`
	Partitions        []fieldSummaryAvro `avro:"partitions"`
}

type fieldSummaryAvro struct {
	ContainsNull bool   `avro:"contains_null"`
	ContainsNaN  *bool  `avro:"contains_nan"`
	LowerBound   []byte `avro:"lower_bound"`
	UpperBound   []byte `avro:"upper_bound"`
}

func (m *manifestFileAvro) toManifestFile() *ManifestFile {
	mf := &ManifestFile{
		Path:              m.Path,
		Length:            m.Length,
		SpecID:            m.SpecID,
		Content:           ManifestContent(m.Content),
		SequenceNumber:    m.SequenceNumber,
		MinSequenceNumber: m.MinSequenceNumber,
		AddedSnapshotID:   m.AddedSnapshotID,
		AddedFiles:        m.AddedFiles,
		ExistingFiles:     m.ExistingFiles,
		DeletedFiles:      m.DeletedFiles,
		AddedRows:         m.AddedRows,
		ExistingRows:      m.ExistingRows,
		DeletedRows:       m.DeletedRows,
	}
	if len(m.Partitions) > 0 {
		mf.Partitions = make([]FieldSummary, len(m.Partitions))
		for i, s := range m.Partitions {
			mf.Partitions[i] = FieldSummary{
				ContainsNull: s.ContainsNull,
				ContainsNaN:  s.ContainsNaN,
				LowerBound:   s.LowerBound,
				UpperBound:   s.UpperBound,
			}
		}
	}
	return mf
}

// manifestEntryAvro is the wire form of a manifest entry.
type manifestEntryAvro struct {
	Status             int32        `avro:"status"`
	SnapshotID         *int64       `avro:"snapshot_id"`
	SequenceNumber     *int64       `avro:"sequence_number"`
	FileSequenceNumber *int64       `avro:"file_sequence_number"`
	DataFile           dataFileAvro `avro:"data_file"`
}

type dataFileAvro struct {
	Path         string         `avro:"file_path"`
	Format       string         `avro:"file_format"`
	Partition    map[string]any `avro:"partition"`
	RecordCount  int64          `avro:"record_count"`
	SizeBytes    int64          `avro:"file_size_in_bytes"`
	ColumnSizes  []i64KV        `avro:"column_sizes"`
	ValueCounts  []i64KV        `avro:"value_counts"`
	NullCounts   []i64KV        `avro:"null_value_counts"`
	NaNCounts    []i64KV        `avro:"nan_value_counts"`
	LowerBounds  []binKV        `avro:"lower_bounds"`
	UpperBounds  []binKV        `avro:"upper_bounds"`
	KeyMetadata  []byte         `avro:"key_metadata"`
	SplitOffsets []int64        `avro:"split_offsets"`
	SortOrderID  *int32         `avro:"sort_order_id"`
}

// i64KV and binKV mirror the key/value records manifests use for maps with
// integer keys.
type i64KV struct {
	Key   int32 `avro:"key"`
	Value int64 `avro:"value"`
}

type binKV struct {
	Key   int32  `avro:"key"`
	Value []byte `avro:"value"`
}

func (e *manifestEntryAvro) toManifestEntry() *ManifestEntry {
	return &ManifestEntry{
		Status:             ManifestEntryStatus(e.Status),
		SnapshotID:         e.SnapshotID,
		SequenceNumber:     e.SequenceNumber,
		FileSequenceNumber: e.FileSequenceNumber,
		DataFile:           e.DataFile.toDataFile(),
	}
}

func (d *dataFileAvro) toDataFile() *DataFile {
	return &DataFile{
		Path:            d.Path,
		Format:          FileFormat(d.Format),
		Partition:       d.Partition,
		RecordCount:     d.RecordCount,
		SizeBytes:       d.SizeBytes,
		ColumnSizes:     kvToI64Map(d.ColumnSizes),
		ValueCounts:     kvToI64Map(d.ValueCounts),
		NullValueCounts: kvToI64Map(d.NullCounts),
		NaNValueCounts:  kvToI64Map(d.NaNCounts),
		LowerBounds:     kvToBinMap(d.LowerBounds),
		UpperBounds:     kvToBinMap(d.UpperBounds),
		KeyMetadata:     d.KeyMetadata,
		SplitOffsets:    d.SplitOffsets,
		SortOrderID:     d.SortOrderID,
	}
}

func kvToI64Map(kvs []i64KV) map[int]int64 {
	if len(kvs) == 0 {
		return nil
	}
	out := make(map[int]int64, len(kvs))
	for _, kv := range kvs {
		out[int(kv.Key)] = kv.Value
	}
	return out
}

func kvToBinMap(kvs []binKV) map[int][]byte {
	if len(kvs) == 0 {
		return nil
	}
	out := make(map[int][]byte, len(kvs))
	for _, kv := range kvs {
		out[int(kv.Key)] = kv.Value
	}
	return out
}
