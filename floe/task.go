package floe

import (
	"context"
	"fmt"
	"iter"
)

// ManifestReadTask is the unit "read one manifest file and expose its
// data-file entries as rows". Tasks are immutable: the schema and spec they
// carry are frozen at construction, so table evolution after planning
// cannot invalidate an in-flight scan.
type ManifestReadTask struct {
	storage    FileIO
	manifest   *ManifestFile
	file       *DataFile
	spec       *PartitionSpec
	schemaJSON string
	specJSON   string
	residuals  ResidualEvaluator
	dropStats  bool
}

func newManifestReadTask(
	storage FileIO,
	manifest *ManifestFile,
	spec *PartitionSpec,
	schemaJSON, specJSON string,
	residuals ResidualEvaluator,
	dropStats bool,
) *ManifestReadTask {
	return &ManifestReadTask{
		storage:    storage,
		manifest:   manifest,
		file:       dataFileFromManifest(manifest),
		spec:       spec,
		schemaJSON: schemaJSON,
		specJSON:   specJSON,
		residuals:  residuals,
		dropStats:  dropStats,
	}
}

// File returns the manifest file itself as the task's data file: the
// manifest is the unit being read.
func (t *ManifestReadTask) File() *DataFile {
	return t.file
}

// Spec returns the partition spec the task's rows are presented under.
func (t *ManifestReadTask) Spec() *PartitionSpec {
	return t.spec
}

// Manifest returns the manifest-list entry the task was planned from.
func (t *ManifestReadTask) Manifest() *ManifestFile {
	return t.manifest
}

// SchemaJSON returns the task's frozen row schema document.
func (t *ManifestReadTask) SchemaJSON() string {
	return t.schemaJSON
}

// SpecJSON returns the task's frozen partition spec document.
func (t *ManifestReadTask) SpecJSON() string {
	return t.specJSON
}

// Start always returns 0: manifests are read from the beginning.
func (t *ManifestReadTask) Start() int64 {
	return 0
}

// Length returns the manifest's recorded byte length.
func (t *ManifestReadTask) Length() int64 {
	return t.manifest.Length
}

// Residual returns the filter portion partition pruning could not
// eliminate for this task's file.
func (t *ManifestReadTask) Residual() Expression {
	return t.residuals.ResidualFor(t.file.Partition)
}

// Split returns the task itself regardless of target size. A manifest is
// decoded as one atomic unit; the record stream cannot resume from an
// arbitrary byte offset.
func (t *ManifestReadTask) Split(int64) []ScanTask {
	return []ScanTask{t}
}

// Rows opens the manifest and yields one row per live data-file entry, in
// file order. Entries with deleted status are skipped. Each call opens a
// fresh stream; the sequence owns it and releases it when the loop ends,
// including on early break. Failures here affect only this task.
func (t *ManifestReadTask) Rows(ctx context.Context) iter.Seq2[*DataFile, error] {
	return func(yield func(*DataFile, error) bool) {
		rc, err := t.storage.Open(ctx, t.manifest.Path)
		if err != nil {
			yield(nil, fmt.Errorf("floe: failed to open manifest %s: %w", t.manifest.Path, err))
			return
		}
		for entry, err := range ReadManifest(rc) {
			if err != nil {
				yield(nil, err)
				return
			}
			if entry.Status == EntryStatusDeleted {
				continue
			}
			row := entry.DataFile
			if t.dropStats {
				row = row.WithoutStats()
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

var (
	_ ScanTask = (*ManifestReadTask)(nil)
	_ DataTask = (*ManifestReadTask)(nil)
)
