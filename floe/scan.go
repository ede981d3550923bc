package floe

import (
	"context"
	"fmt"
	"iter"
)

// targetSplitSize is the upper-bound split hint for metadata scan tasks.
// Manifest-derived tasks are atomic and ignore it.
const targetSplitSize = 32 << 20 // 32 MiB

// FilesTableScan plans reads of the "files" view: one scan task per
// manifest in the pinned snapshot's manifest list.
//
// A scan is an immutable value. Refinement methods return a copy with one
// option overridden and never mutate the receiver, so scans can be shared
// and refined concurrently.
type FilesTableScan struct {
	table         *Table
	snapshotID    *int64
	filter        Expression
	caseSensitive bool
	columnStats   bool
	selected      []string
}

func newFilesTableScan(t *Table) *FilesTableScan {
	return &FilesTableScan{
		table:         t,
		filter:        AlwaysTrue(),
		caseSensitive: true,
	}
}

// UseSnapshot pins the scan to the given snapshot id instead of the table's
// current snapshot.
func (s *FilesTableScan) UseSnapshot(id int64) *FilesTableScan {
	cp := *s
	cp.snapshotID = &id
	return &cp
}

// Filter sets the scan's row filter. Default: always true.
func (s *FilesTableScan) Filter(expr Expression) *FilesTableScan {
	cp := *s
	if expr == nil {
		expr = AlwaysTrue()
	}
	cp.filter = expr
	return &cp
}

// CaseSensitive sets whether column name matching is case sensitive.
// Default: true.
func (s *FilesTableScan) CaseSensitive(sensitive bool) *FilesTableScan {
	cp := *s
	cp.caseSensitive = sensitive
	return &cp
}

// IncludeColumnStats keeps per-column metrics on yielded rows. By default
// metrics are dropped to keep rows small.
func (s *FilesTableScan) IncludeColumnStats() *FilesTableScan {
	cp := *s
	cp.columnStats = true
	return &cp
}

// Select restricts the scan to the named columns. Default: all columns.
// Projection is applied by the row consumer; the scan records the
// selection for it.
func (s *FilesTableScan) Select(columns ...string) *FilesTableScan {
	cp := *s
	cp.selected = append([]string(nil), columns...)
	return &cp
}

// Selected returns the selected column names, or nil for all columns.
func (s *FilesTableScan) Selected() []string {
	return s.selected
}

// TargetSplitSize returns the upper-bound split hint for this scan type,
// fixed at 32 MiB.
func (s *FilesTableScan) TargetSplitSize() int64 {
	return targetSplitSize
}

// Snapshot resolves the snapshot the scan is pinned to: the explicitly
// pinned id, or the table's current snapshot. Returns ErrNoSnapshot for a
// table with no committed snapshot, or ErrNotFound for an unknown id.
func (s *FilesTableScan) Snapshot() (*Snapshot, error) {
	if s.snapshotID != nil {
		snap := s.table.SnapshotByID(*s.snapshotID)
		if snap == nil {
			return nil, fmt.Errorf("floe: snapshot %d: %w", *s.snapshotID, ErrNotFound)
		}
		return snap, nil
	}
	snap := s.table.CurrentSnapshot()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// PlanFiles resolves the pinned snapshot's manifest list and yields one
// task per data manifest, in manifest-list order.
//
// Planning is lazy: the manifest list is opened when iteration begins, and
// any failure reading it aborts the plan at the point of failure. A task is
// yielded without touching its manifest file; a bad manifest surfaces only
// when that task's Rows is consumed. Each call re-plans from the pinned
// snapshot, so the plan is restartable by calling PlanFiles again.
func (s *FilesTableScan) PlanFiles(ctx context.Context) iter.Seq2[DataTask, error] {
	return func(yield func(DataTask, error) bool) {
		snap, err := s.Snapshot()
		if err != nil {
			yield(nil, err)
			return
		}

		// Freeze task metadata once; all tasks of this plan share it.
		partitionType, err := s.table.Spec().PartitionType(s.table.Schema())
		if err != nil {
			yield(nil, err)
			return
		}
		schemaJSON, err := SchemaToJSON(dataFileSchema(partitionType))
		if err != nil {
			yield(nil, err)
			return
		}
		spec := UnpartitionedSpec()
		specJSON, err := SpecToJSON(spec)
		if err != nil {
			yield(nil, err)
			return
		}
		residuals := ResidualOf(spec, s.filter, s.caseSensitive)

		rc, err := s.table.Storage().Open(ctx, snap.ManifestList)
		if err != nil {
			yield(nil, fmt.Errorf("floe: failed to open manifest list %s: %w", snap.ManifestList, err))
			return
		}

		for mf, err := range ReadManifestList(rc) {
			if err != nil {
				yield(nil, err)
				return
			}
			if mf.Content != ManifestContentData {
				continue
			}
			task := newManifestReadTask(s.table.Storage(), mf, spec, schemaJSON, specJSON, residuals, !s.columnStats)
			if !yield(task, nil) {
				return
			}
		}
	}
}
