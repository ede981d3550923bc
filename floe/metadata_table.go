package floe

// DataFilesTable presents a table's data files as a read-only, schema-typed
// view named "files": one row per live data file in a snapshot. The view is
// derived on demand and has no lifecycle beyond the table it wraps.
type DataFilesTable struct {
	table *Table
}

// Name returns the metadata view name.
func (d *DataFilesTable) Name() string {
	return "files"
}

// Schema returns the view's row schema: the data-file entry type
// instantiated with the table's current partition type. It is recomputed on
// every call so partition spec evolution is reflected, never cached.
func (d *DataFilesTable) Schema() (*Schema, error) {
	partitionType, err := d.table.Spec().PartitionType(d.table.Schema())
	if err != nil {
		return nil, err
	}
	return dataFileSchema(partitionType), nil
}

// Location returns the manifest-list location of the table's current
// snapshot. Returns ErrNoSnapshot when the table has no committed snapshot.
func (d *DataFilesTable) Location() (string, error) {
	snap := d.table.CurrentSnapshot()
	if snap == nil {
		return "", ErrNoSnapshot
	}
	return snap.ManifestList, nil
}

// NewScan returns a fresh scan of the view, pinned to the table's current
// snapshot. The scan has no side effects on the table.
func (d *DataFilesTable) NewScan() *FilesTableScan {
	return newFilesTableScan(d.table)
}

// dataFileSchema builds the data-file entry schema with the given partition
// struct type. Field ids are fixed by the table format.
func dataFileSchema(partitionType StructType) *Schema {
	return &Schema{
		Fields: []NestedField{
			{ID: 100, Name: "file_path", Type: TypeString, Required: true, Doc: "Location URI with FS scheme"},
			{ID: 101, Name: "file_format", Type: TypeString, Required: true, Doc: "File format name: avro, orc, or parquet"},
			{ID: 102, Name: "partition", Type: partitionType, Required: true, Doc: "Partition data tuple, schema based on the partition spec"},
			{ID: 103, Name: "record_count", Type: TypeLong, Required: true, Doc: "Number of records in the file"},
			{ID: 104, Name: "file_size_in_bytes", Type: TypeLong, Required: true, Doc: "Total file size in bytes"},
			{ID: 108, Name: "column_sizes", Type: MapType{KeyID: 117, Key: TypeInt, ValueID: 118, Value: TypeLong, ValueRequired: true}, Doc: "Map of column id to total size on disk"},
			{ID: 109, Name: "value_counts", Type: MapType{KeyID: 119, Key: TypeInt, ValueID: 120, Value: TypeLong, ValueRequired: true}, Doc: "Map of column id to total count, including null and NaN"},
			{ID: 110, Name: "null_value_counts", Type: MapType{KeyID: 121, Key: TypeInt, ValueID: 122, Value: TypeLong, ValueRequired: true}, Doc: "Map of column id to null value count"},
			{ID: 137, Name: "nan_value_counts", Type: MapType{KeyID: 138, Key: TypeInt, ValueID: 139, Value: TypeLong, ValueRequired: true}, Doc: "Map of column id to number of NaN values in the column"},
			{ID: 125, Name: "lower_bounds", Type: MapType{KeyID: 126, Key: TypeInt, ValueID: 127, Value: TypeBinary, ValueRequired: true}, Doc: "Map of column id to lower bound"},
			{ID: 128, Name: "upper_bounds", Type: MapType{KeyID: 129, Key: TypeInt, ValueID: 130, Value: TypeBinary, ValueRequired: true}, Doc: "Map of column id to upper bound"},
			{ID: 131, Name: "key_metadata", Type: TypeBinary, Doc: "Encryption key metadata blob"},
			{ID: 132, Name: "split_offsets", Type: ListType{ElementID: 133, Element: TypeLong, ElementRequired: true}, Doc: "Splittable offsets"},
			{ID: 140, Name: "sort_order_id", Type: TypeInt, Doc: "Sort order ID"},
		},
	}
}
