// Package tablegen builds complete table trees against any floe.FileIO:
// parquet data files, avro manifests and manifest lists, metadata
// documents, and the version hint. It backs the examples and the
// end-to-end tests.
package tablegen

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/justapithecus/floe/floe"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// Config describes the table tree to generate.
type Config struct {
	// Warehouse is the storage prefix tables are created under.
	Warehouse string

	// Namespace is the table's namespace path.
	Namespace []string

	// Name is the table name.
	Name string

	// Snapshots is the number of snapshots in the table history. Each
	// snapshot carries its own manifests and data files, chained through
	// parent-snapshot-id, with the last one current. Default 1.
	Snapshots int

	// Manifests is the number of data manifests per snapshot. Default 2.
	Manifests int

	// FilesPerManifest is the number of data files per manifest. Default 2.
	FilesPerManifest int

	// RowsPerFile is the number of rows per data file. Default 64.
	RowsPerFile int

	// DeletedPerManifest adds that many deleted-status entries to each
	// manifest, pointing at files removed from the table. Default 0.
	DeletedPerManifest int

	// DeleteManifests adds that many delete-content manifests to each
	// snapshot's manifest list. Default 0.
	DeleteManifests int

	// Compression names the metadata document codec: "none", "gzip", or
	// "zstd". Default "none".
	Compression string

	// Properties are extra table properties.
	Properties map[string]string
}

func (c *Config) applyDefaults() {
	if c.Snapshots == 0 {
		c.Snapshots = 1
	}
	if c.Manifests == 0 {
		c.Manifests = 2
	}
	if c.FilesPerManifest == 0 {
		c.FilesPerManifest = 2
	}
	if c.RowsPerFile == 0 {
		c.RowsPerFile = 64
	}
}

// SnapshotResult records what one generated snapshot contains.
type SnapshotResult struct {
	ID            int64
	ManifestList  string
	ManifestPaths []string
	DataFiles     []string
}

// Result records the generated table tree.
type Result struct {
	Identifier   floe.Identifier
	Location     string
	MetadataPath string
	Snapshots    []SnapshotResult
}

// Current returns the snapshot the generated metadata points at.
func (r *Result) Current() SnapshotResult {
	return r.Snapshots[len(r.Snapshots)-1]
}

// Build writes a complete table tree through storage and returns what it
// wrote. The layout matches a hadoop-style warehouse: data files under
// <location>/data, manifests, lists, the metadata document, and
// version-hint.text under <location>/metadata.
func Build(ctx context.Context, storage floe.FileIO, cfg Config) (*Result, error) {
	if storage == nil {
		return nil, fmt.Errorf("tablegen: storage must not be nil")
	}
	if cfg.Warehouse == "" {
		return nil, fmt.Errorf("tablegen: warehouse must not be empty")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("tablegen: table name must not be empty")
	}
	cfg.applyDefaults()

	codec, err := codecNamed(cfg.Compression)
	if err != nil {
		return nil, err
	}

	ident := floe.Identifier(append(append([]string{}, cfg.Namespace...), cfg.Name))
	location := path.Join(append([]string{cfg.Warehouse}, ident...)...)
	metaDir := path.Join(location, "metadata")
	dataDir := path.Join(location, "data")

	schema := tableSchema()
	schemaJSON, err := floe.SchemaToJSON(schema)
	if err != nil {
		return nil, fmt.Errorf("tablegen: encode schema: %w", err)
	}
	spec := floe.UnpartitionedSpec()
	specJSON, err := floe.SpecToJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("tablegen: encode partition spec: %w", err)
	}

	res := &Result{Identifier: ident, Location: location}

	fileIndex := 0
	for s := 0; s < cfg.Snapshots; s++ {
		seq := int64(s + 1)
		snapshotID := generateSnapshotID()
		snap := SnapshotResult{ID: snapshotID}

		var manifests []manifestFileEntry
		for m := 0; m < cfg.Manifests; m++ {
			var entries []manifestEntryRecord
			var addedRows int64
			for f := 0; f < cfg.FilesPerManifest; f++ {
				rows := buildRows(fileIndex, cfg.RowsPerFile)
				dataPath := path.Join(dataDir, fmt.Sprintf("part-%05d-%s.parquet", fileIndex, uuid.New()))
				fileIndex++

				blob, df, err := writeDataFile(rows, dataPath)
				if err != nil {
					return nil, fmt.Errorf("tablegen: %w", err)
				}
				if err := storage.Create(ctx, dataPath, bytes.NewReader(blob)); err != nil {
					return nil, fmt.Errorf("tablegen: write data file %s: %w", dataPath, err)
				}

				entries = append(entries, addedEntry(snapshotID, seq, df))
				addedRows += df.RecordCount
				snap.DataFiles = append(snap.DataFiles, dataPath)
			}
			for d := 0; d < cfg.DeletedPerManifest; d++ {
				removed := path.Join(dataDir, fmt.Sprintf("removed-%05d-%s.parquet", d, uuid.New()))
				entries = append(entries, deletedEntry(snapshotID, seq, removed))
			}

			manifestPath := path.Join(metaDir, fmt.Sprintf("%s-m%d.avro", uuid.New(), m))
			blob, err := encodeManifest(entries, schemaJSON, specJSON)
			if err != nil {
				return nil, fmt.Errorf("tablegen: %w", err)
			}
			if err := storage.Create(ctx, manifestPath, bytes.NewReader(blob)); err != nil {
				return nil, fmt.Errorf("tablegen: write manifest %s: %w", manifestPath, err)
			}

			manifests = append(manifests, manifestFileEntry{
				Path:              manifestPath,
				Length:            int64(len(blob)),
				SpecID:            int32(spec.ID),
				Content:           int32(floe.ManifestContentData),
				SequenceNumber:    seq,
				MinSequenceNumber: seq,
				AddedSnapshotID:   snapshotID,
				AddedFiles:        int32(cfg.FilesPerManifest),
				DeletedFiles:      int32(cfg.DeletedPerManifest),
				AddedRows:         addedRows,
				Partitions:        []fieldSummary{},
			})
			snap.ManifestPaths = append(snap.ManifestPaths, manifestPath)
		}

		for d := 0; d < cfg.DeleteManifests; d++ {
			manifestPath := path.Join(metaDir, fmt.Sprintf("%s-d%d.avro", uuid.New(), d))
			blob, err := encodeManifest(nil, schemaJSON, specJSON)
			if err != nil {
				return nil, fmt.Errorf("tablegen: %w", err)
			}
			if err := storage.Create(ctx, manifestPath, bytes.NewReader(blob)); err != nil {
				return nil, fmt.Errorf("tablegen: write delete manifest %s: %w", manifestPath, err)
			}
			manifests = append(manifests, manifestFileEntry{
				Path:              manifestPath,
				Length:            int64(len(blob)),
				SpecID:            int32(spec.ID),
				Content:           int32(floe.ManifestContentDeletes),
				SequenceNumber:    seq,
				MinSequenceNumber: seq,
				AddedSnapshotID:   snapshotID,
				Partitions:        []fieldSummary{},
			})
		}

		listPath := path.Join(metaDir, fmt.Sprintf("snap-%d-1-%s.avro", snapshotID, uuid.New()))
		listBlob, err := encodeManifestList(manifests, snapshotID)
		if err != nil {
			return nil, fmt.Errorf("tablegen: %w", err)
		}
		if err := storage.Create(ctx, listPath, bytes.NewReader(listBlob)); err != nil {
			return nil, fmt.Errorf("tablegen: write manifest list %s: %w", listPath, err)
		}
		snap.ManifestList = listPath

		res.Snapshots = append(res.Snapshots, snap)
	}

	meta := newTableMetadata(location, schema, spec, res.Snapshots, cfg.Properties)
	doc, err := jsonCodec.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("tablegen: encode table metadata: %w", err)
	}

	var compressed bytes.Buffer
	wc, err := codec.Compress(&compressed)
	if err != nil {
		return nil, fmt.Errorf("tablegen: compress table metadata: %w", err)
	}
	if _, err := wc.Write(doc); err != nil {
		return nil, fmt.Errorf("tablegen: compress table metadata: %w", err)
	}
	if err := wc.Close(); err != nil {
		return nil, fmt.Errorf("tablegen: compress table metadata: %w", err)
	}

	metaPath := path.Join(metaDir, fmt.Sprintf("v1%s.metadata.json", codec.Extension()))
	if err := storage.Create(ctx, metaPath, &compressed); err != nil {
		return nil, fmt.Errorf("tablegen: write table metadata %s: %w", metaPath, err)
	}
	hintPath := path.Join(metaDir, "version-hint.text")
	if err := storage.Create(ctx, hintPath, strings.NewReader("1")); err != nil {
		return nil, fmt.Errorf("tablegen: write version hint %s: %w", hintPath, err)
	}
	res.MetadataPath = metaPath

	return res, nil
}

// tableSchema is the schema of generated tables: id, category, reading.
func tableSchema() *floe.Schema {
	return &floe.Schema{
		ID: 0,
		Fields: []floe.NestedField{
			{ID: 1, Name: "id", Type: floe.TypeLong, Required: true},
			{ID: 2, Name: "category", Type: floe.TypeString},
			{ID: 3, Name: "reading", Type: floe.TypeDouble},
		},
	}
}

func newTableMetadata(location string, schema *floe.Schema, spec *floe.PartitionSpec, snaps []SnapshotResult, props map[string]string) *floe.TableMetadata {
	now := time.Now().UnixMilli()

	snapshots := make([]*floe.Snapshot, 0, len(snaps))
	var parent *int64
	for i, s := range snaps {
		snap := &floe.Snapshot{
			SnapshotID:     s.ID,
			ParentID:       parent,
			SequenceNumber: int64(i + 1),
			TimestampMS:    now,
			ManifestList:   s.ManifestList,
			Summary:        map[string]string{"operation": "append"},
		}
		snapshots = append(snapshots, snap)
		id := s.ID
		parent = &id
	}
	currentID := snaps[len(snaps)-1].ID

	return &floe.TableMetadata{
		FormatVersion:      2,
		TableUUID:          uuid.New().String(),
		Location:           location,
		LastSequenceNumber: int64(len(snaps)),
		LastUpdatedMS:      now,
		LastColumnID:       3,
		CurrentSchemaID:    schema.ID,
		Schemas:            []*floe.Schema{schema},
		DefaultSpecID:      spec.ID,
		Specs:              []*floe.PartitionSpec{spec},
		Properties:         props,
		CurrentSnapshotID:  &currentID,
		Snapshots:          snapshots,
	}
}

// generateSnapshotID returns a random positive snapshot id.
func generateSnapshotID() int64 {
	return rand.Int64N(1<<62) + 1
}

func codecNamed(name string) (floe.MetadataCodec, error) {
	switch name {
	case "", "none":
		return floe.NewNoOpCodec(), nil
	case "gzip":
		return floe.NewGzipCodec(), nil
	case "zstd":
		return floe.NewZstdCodec(), nil
	}
	return nil, fmt.Errorf("tablegen: unknown metadata codec %q", name)
}
