package tablegen

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/hamba/avro/v2/ocf"

	"github.com/justapithecus/floe/floe"
)

// Avro schema of manifest-list entries (format version 2), with the field
// ids readers expect.
const manifestListSchema = `{
  "type": "record",
  "name": "manifest_file",
  "fields": [
    {"name": "manifest_path", "type": "string", "field-id": 500},
    {"name": "manifest_length", "type": "long", "field-id": 501},
    {"name": "partition_spec_id", "type": "int", "field-id": 502},
    {"name": "content", "type": "int", "field-id": 517},
    {"name": "sequence_number", "type": "long", "field-id": 515},
    {"name": "min_sequence_number", "type": "long", "field-id": 516},
    {"name": "added_snapshot_id", "type": "long", "field-id": 503},
    {"name": "added_data_files_count", "type": "int", "field-id": 504},
    {"name": "existing_data_files_count", "type": "int", "field-id": 505},
    {"name": "deleted_data_files_count", "type": "int", "field-id": 506},
    {"name": "added_rows_count", "type": "long", "field-id": 512},
    {"name": "existing_rows_count", "type": "long", "field-id": 513},
    {"name": "deleted_rows_count", "type": "long", "field-id": 514},
    {"name": "partitions", "type": ["null", {
      "type": "array",
      "items": {
        "type": "record",
        "name": "r508",
        "fields": [
          {"name": "contains_null", "type": "boolean", "field-id": 509},
          {"name": "contains_nan", "type": ["null", "boolean"], "field-id": 518},
          {"name": "lower_bound", "type": ["null", "bytes"], "field-id": 510},
          {"name": "upper_bound", "type": ["null", "bytes"], "field-id": 511}
        ]
      },
      "element-id": 508
    }], "default": null, "field-id": 507}
  ]
}`

// Avro schema of manifest entries (format version 2). The data_file record
// is named r2 and the empty partition record r102, matching the writers in
// the wild.
const manifestEntrySchema = `{
  "type": "record",
  "name": "manifest_entry",
  "fields": [
    {"name": "status", "type": "int", "field-id": 0},
    {"name": "snapshot_id", "type": ["null", "long"], "default": null, "field-id": 1},
    {"name": "sequence_number", "type": ["null", "long"], "default": null, "field-id": 3},
    {"name": "file_sequence_number", "type": ["null", "long"], "default": null, "field-id": 4},
    {"name": "data_file", "type": {
      "type": "record",
      "name": "r2",
      "fields": [
        {"name": "content", "type": "int", "field-id": 134},
        {"name": "file_path", "type": "string", "field-id": 100},
        {"name": "file_format", "type": "string", "field-id": 101},
        {"name": "partition", "type": {
          "type": "record",
          "name": "r102",
          "fields": []
        }, "field-id": 102},
        {"name": "record_count", "type": "long", "field-id": 103},
        {"name": "file_size_in_bytes", "type": "long", "field-id": 104},
        {"name": "column_sizes", "type": ["null", {
          "type": "array",
          "items": {
            "type": "record",
            "name": "k117_v118",
            "fields": [
              {"name": "key", "type": "int", "field-id": 117},
              {"name": "value", "type": "long", "field-id": 118}
            ]
          },
          "logicalType": "map"
        }], "default": null, "field-id": 108},
        {"name": "value_counts", "type": ["null", {
          "type": "array",
          "items": {
            "type": "record",
            "name": "k119_v120",
            "fields": [
              {"name": "key", "type": "int", "field-id": 119},
              {"name": "value", "type": "long", "field-id": 120}
            ]
          },
          "logicalType": "map"
        }], "default": null, "field-id": 109},
        {"name": "null_value_counts", "type": ["null", {
          "type": "array",
          "items": {
            "type": "record",
            "name": "k121_v122",
            "fields": [
              {"name": "key", "type": "int", "field-id": 121},
              {"name": "value", "type": "long", "field-id": 122}
            ]
          },
          "logicalType": "map"
        }], "default": null, "field-id": 110},
        {"name": "nan_value_counts", "type": ["null", {
          "type": "array",
          "items": {
            "type": "record",
            "name": "k138_v139",
            "fields": [
              {"name": "key", "type": "int", "field-id": 138},
              {"name": "value", "type": "long", "field-id": 139}
            ]
          },
          "logicalType": "map"
        }], "default": null, "field-id": 137},
        {"name": "lower_bounds", "type": ["null", {
          "type": "array",
          "items": {
            "type": "record",
            "name": "k126_v127",
            "fields": [
              {"name": "key", "type": "int", "field-id": 126},
              {"name": "value", "type": "bytes", "field-id": 127}
            ]
          },
          "logicalType": "map"
        }], "default": null, "field-id": 125},
        {"name": "upper_bounds", "type": ["null", {
          "type": "array",
          "items": {
            "type": "record",
            "name": "k129_v130",
            "fields": [
              {"name": "key", "type": "int", "field-id": 129},
              {"name": "value", "type": "bytes", "field-id": 130}
            ]
          },
          "logicalType": "map"
        }], "default": null, "field-id": 128},
        {"name": "key_metadata", "type": ["null", "bytes"], "default": null, "field-id": 131},
        {"name": "split_offsets", "type": ["null", {
          "type": "array",
          "items": "long",
          "element-id": 133
        }], "default": null, "field-id": 132},
        {"name": "equality_ids", "type": ["null", {
          "type": "array",
          "items": "int",
          "element-id": 136
        }], "default": null, "field-id": 135},
        {"name": "sort_order_id", "type": ["null", "int"], "default": null, "field-id": 140}
      ]
    }, "field-id": 2}
  ]
}`

// ----- Encode records -----

type manifestFileEntry struct {
	Path              string         `avro:"manifest_path"`
	Length            int64          `avro:"manifest_length"`
	SpecID            int32          `avro:"partition_spec_id"`
	Content           int32          `avro:"content"`
	SequenceNumber    int64          `avro:"sequence_number"`
	MinSequenceNumber int64          `avro:"min_sequence_number"`
	AddedSnapshotID   int64          `avro:"added_snapshot_id"`
	AddedFiles        int32          `avro:"added_data_files_count"`
	ExistingFiles     int32          `avro:"existing_data_files_count"`
	DeletedFiles      int32          `avro:"deleted_data_files_count"`
	AddedRows         int64          `avro:"added_rows_count"`
	ExistingRows      int64          `avro:"existing_rows_count"`
	DeletedRows       int64          `avro:"deleted_rows_count"`
	Partitions        []fieldSummary `avro:"partitions"`
}

type fieldSummary struct {
	ContainsNull bool   `avro:"contains_null"`
	ContainsNaN  *bool  `avro:"contains_nan"`
	LowerBound   []byte `avro:"lower_bound"`
	UpperBound   []byte `avro:"upper_bound"`
}

type manifestEntryRecord struct {
	Status             int32          `avro:"status"`
	SnapshotID         *int64         `avro:"snapshot_id"`
	SequenceNumber     *int64         `avro:"sequence_number"`
	FileSequenceNumber *int64         `avro:"file_sequence_number"`
	DataFile           dataFileRecord `avro:"data_file"`
}

type dataFileRecord struct {
	Content      int32        `avro:"content"`
	FilePath     string       `avro:"file_path"`
	FileFormat   string       `avro:"file_format"`
	Partition    struct{}     `avro:"partition"`
	RecordCount  int64        `avro:"record_count"`
	FileSize     int64        `avro:"file_size_in_bytes"`
	ColumnSizes  []intLongKV  `avro:"column_sizes"`
	ValueCounts  []intLongKV  `avro:"value_counts"`
	NullCounts   []intLongKV  `avro:"null_value_counts"`
	NaNCounts    []intLongKV  `avro:"nan_value_counts"`
	LowerBounds  []intBytesKV `avro:"lower_bounds"`
	UpperBounds  []intBytesKV `avro:"upper_bounds"`
	KeyMetadata  []byte       `avro:"key_metadata"`
	SplitOffsets []int64      `avro:"split_offsets"`
	EqualityIDs  []int32      `avro:"equality_ids"`
	SortOrderID  *int32       `avro:"sort_order_id"`
}

type intLongKV struct {
	Key   int32 `avro:"key"`
	Value int64 `avro:"value"`
}

type intBytesKV struct {
	Key   int32  `avro:"key"`
	Value []byte `avro:"value"`
}

// ----- Entry construction -----

func addedEntry(snapshotID, seq int64, df *floe.DataFile) manifestEntryRecord {
	snap := snapshotID
	s := seq
	return manifestEntryRecord{
		Status:             1,
		SnapshotID:         &snap,
		SequenceNumber:     &s,
		FileSequenceNumber: &s,
		DataFile:           toDataFileRecord(df),
	}
}

func deletedEntry(snapshotID, seq int64, location string) manifestEntryRecord {
	snap := snapshotID
	s := seq
	return manifestEntryRecord{
		Status:             2,
		SnapshotID:         &snap,
		SequenceNumber:     &s,
		FileSequenceNumber: &s,
		DataFile: dataFileRecord{
			FilePath:   location,
			FileFormat: string(floe.FormatParquet),
		},
	}
}

func toDataFileRecord(df *floe.DataFile) dataFileRecord {
	return dataFileRecord{
		FilePath:    df.Path,
		FileFormat:  string(df.Format),
		RecordCount: df.RecordCount,
		FileSize:    df.SizeBytes,
		ColumnSizes: mapToIntLongKV(df.ColumnSizes),
		ValueCounts: mapToIntLongKV(df.ValueCounts),
		NullCounts:  mapToIntLongKV(df.NullValueCounts),
		NaNCounts:   mapToIntLongKV(df.NaNValueCounts),
		LowerBounds: mapToIntBytesKV(df.LowerBounds),
		UpperBounds: mapToIntBytesKV(df.UpperBounds),
	}
}

func mapToIntLongKV(m map[int]int64) []intLongKV {
	if len(m) == 0 {
		return nil
	}
	kvs := make([]intLongKV, 0, len(m))
	for k, v := range m {
		kvs = append(kvs, intLongKV{Key: int32(k), Value: v})
	}
	return kvs
}

func mapToIntBytesKV(m map[int][]byte) []intBytesKV {
	if len(m) == 0 {
		return nil
	}
	kvs := make([]intBytesKV, 0, len(m))
	for k, v := range m {
		kvs = append(kvs, intBytesKV{Key: int32(k), Value: v})
	}
	return kvs
}

// ----- File encoding -----

// encodeManifest writes entries into an avro object container file. The
// file metadata mirrors what the reference writers attach: the table
// schema, the partition spec, and the format version.
func encodeManifest(entries []manifestEntryRecord, schemaJSON, specJSON string) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := ocf.NewEncoder(manifestEntrySchema, &buf,
		ocf.WithMetadata(map[string][]byte{
			"schema":            []byte(schemaJSON),
			"schema-id":         []byte("0"),
			"partition-spec":    []byte(specJSON),
			"partition-spec-id": []byte("0"),
			"format-version":    []byte("2"),
			"content":           []byte("data"),
		}),
		ocf.WithCodec(ocf.Deflate),
	)
	if err != nil {
		return nil, fmt.Errorf("create manifest encoder: %w", err)
	}
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return nil, fmt.Errorf("encode manifest entry: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close manifest encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeManifestList writes the list entries into an avro object
// container file keyed to the owning snapshot.
func encodeManifestList(manifests []manifestFileEntry, snapshotID int64) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := ocf.NewEncoder(manifestListSchema, &buf,
		ocf.WithMetadata(map[string][]byte{
			"format-version": []byte("2"),
			"snapshot-id":    []byte(strconv.FormatInt(snapshotID, 10)),
		}),
		ocf.WithCodec(ocf.Deflate),
	)
	if err != nil {
		return nil, fmt.Errorf("create manifest list encoder: %w", err)
	}
	for _, m := range manifests {
		if err := enc.Encode(m); err != nil {
			return nil, fmt.Errorf("encode manifest list entry: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close manifest list encoder: %w", err)
	}
	return buf.Bytes(), nil
}
