package tablegen

import (
	"context"
	"encoding/binary"
	"io"
	"strings"
	"testing"

	"github.com/justapithecus/floe/floe"
)

func buildConfig() Config {
	return Config{
		Warehouse:          "warehouse",
		Namespace:          []string{"telemetry"},
		Name:               "readings",
		Snapshots:          2,
		Manifests:          2,
		FilesPerManifest:   2,
		RowsPerFile:        8,
		DeletedPerManifest: 1,
		DeleteManifests:    1,
	}
}

func TestBuild_Validation(t *testing.T) {
	ctx := context.Background()
	storage := floe.NewMemoryIO()

	tests := []struct {
		name    string
		storage floe.FileIO
		cfg     Config
	}{
		{"nil storage", nil, buildConfig()},
		{"empty warehouse", storage, Config{Name: "t"}},
		{"empty name", storage, Config{Warehouse: "w"}},
		{"unknown codec", storage, Config{Warehouse: "w", Name: "t", Compression: "lz77"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(ctx, tt.storage, tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuild_WritesLoadableTree(t *testing.T) {
	ctx := context.Background()
	storage := floe.NewMemoryIO()

	gen, err := Build(ctx, storage, buildConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(gen.Identifier) != 2 || gen.Identifier[0] != "telemetry" || gen.Identifier[1] != "readings" {
		t.Errorf("identifier = %v", gen.Identifier)
	}
	if gen.Location != "warehouse/telemetry/readings" {
		t.Errorf("location = %q", gen.Location)
	}
	if len(gen.Snapshots) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(gen.Snapshots))
	}
	if gen.Current().ID != gen.Snapshots[1].ID {
		t.Error("Current() should be the last snapshot")
	}
	for i, snap := range gen.Snapshots {
		if len(snap.ManifestPaths) != 2 {
			t.Errorf("snapshot %d data manifests = %d, want 2", i, len(snap.ManifestPaths))
		}
		if len(snap.DataFiles) != 4 {
			t.Errorf("snapshot %d data files = %d, want 4", i, len(snap.DataFiles))
		}
	}

	// Everything the result names must exist in storage.
	paths := []string{gen.MetadataPath, gen.Location + "/metadata/version-hint.text"}
	for _, snap := range gen.Snapshots {
		paths = append(paths, snap.ManifestList)
		paths = append(paths, snap.ManifestPaths...)
		paths = append(paths, snap.DataFiles...)
	}
	for _, p := range paths {
		ok, err := storage.Exists(ctx, p)
		if err != nil {
			t.Fatalf("Exists(%s): %v", p, err)
		}
		if !ok {
			t.Errorf("missing object: %s", p)
		}
	}

	rc, err := storage.Open(ctx, gen.Location+"/metadata/version-hint.text")
	if err != nil {
		t.Fatalf("open version hint: %v", err)
	}
	hint, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(hint) != "1" {
		t.Errorf("version hint = %q, want 1", hint)
	}

	table, err := floe.NewCatalog(storage, "warehouse").LoadTable(ctx, gen.Identifier)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if got := table.CurrentSnapshot().SnapshotID; got != gen.Current().ID {
		t.Errorf("current snapshot = %d, want %d", got, gen.Current().ID)
	}
	if got := len(table.Schema().Fields); got != 3 {
		t.Errorf("schema fields = %d, want 3", got)
	}
	if parent := table.SnapshotByID(gen.Current().ID).ParentID; parent == nil || *parent != gen.Snapshots[0].ID {
		t.Errorf("current snapshot parent = %v, want %d", parent, gen.Snapshots[0].ID)
	}
}

func TestBuild_ScanSeesGeneratedFiles(t *testing.T) {
	ctx := context.Background()
	storage := floe.NewMemoryIO()

	gen, err := Build(ctx, storage, buildConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	table, err := floe.NewCatalog(storage, "warehouse").LoadTable(ctx, gen.Identifier)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	current := gen.Current()
	var tasks []floe.DataTask
	for task, err := range table.DataFiles().NewScan().IncludeColumnStats().PlanFiles(ctx) {
		if err != nil {
			t.Fatalf("PlanFiles: %v", err)
		}
		tasks = append(tasks, task)
	}

	// Delete manifests are flagged in the list and never planned.
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d, want one per data manifest", len(tasks))
	}

	fileIndex := 0
	for i, task := range tasks {
		mt := task.(*floe.ManifestReadTask)
		if mt.Manifest().Path != current.ManifestPaths[i] {
			t.Errorf("task %d manifest = %q, want %q", i, mt.Manifest().Path, current.ManifestPaths[i])
		}

		rc, err := storage.Open(ctx, current.ManifestPaths[i])
		if err != nil {
			t.Fatalf("open manifest: %v", err)
		}
		blob, _ := io.ReadAll(rc)
		_ = rc.Close()
		if task.Length() != int64(len(blob)) {
			t.Errorf("task %d length = %d, want stored size %d", i, task.Length(), len(blob))
		}
		if task.File().RecordCount != 16 {
			t.Errorf("task %d live rows = %d, want 16", i, task.File().RecordCount)
		}

		var rows []*floe.DataFile
		for df, err := range task.Rows(ctx) {
			if err != nil {
				t.Fatalf("Rows: %v", err)
			}
			rows = append(rows, df)
		}
		// Deleted-status entries are skipped; two live files remain.
		if len(rows) != 2 {
			t.Fatalf("task %d rows = %d, want 2", i, len(rows))
		}
		for _, df := range rows {
			if df.Path != current.DataFiles[fileIndex] {
				t.Errorf("row path = %q, want %q (manifest order)", df.Path, current.DataFiles[fileIndex])
			}
			if df.Format != floe.FormatParquet || df.RecordCount != 8 {
				t.Errorf("row = {%s %s rows:%d}", df.Path, df.Format, df.RecordCount)
			}
			if df.ValueCounts[1] != 8 || df.NullValueCounts[1] != 0 {
				t.Errorf("row stats = counts:%v nulls:%v", df.ValueCounts, df.NullValueCounts)
			}
			fileIndex++
		}
	}

	// The first live file of the current snapshot picks up the row
	// numbering where the previous snapshot left off: 4 files of 8 rows.
	first := tasks[0]
	for df, err := range first.Rows(ctx) {
		if err != nil {
			t.Fatalf("Rows: %v", err)
		}
		if got := binary.LittleEndian.Uint64(df.LowerBounds[1]); got != 32 {
			t.Errorf("first id lower bound = %d, want 32", got)
		}
		break
	}
}

func TestBuild_StatsDroppedByDefault(t *testing.T) {
	ctx := context.Background()
	storage := floe.NewMemoryIO()

	gen, err := Build(ctx, storage, Config{Warehouse: "warehouse", Namespace: []string{"db"}, Name: "t"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	table, err := floe.NewCatalog(storage, "warehouse").LoadTable(ctx, gen.Identifier)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	for task, err := range table.DataFiles().NewScan().PlanFiles(ctx) {
		if err != nil {
			t.Fatalf("PlanFiles: %v", err)
		}
		for df, err := range task.Rows(ctx) {
			if err != nil {
				t.Fatalf("Rows: %v", err)
			}
			if df.ValueCounts != nil || df.LowerBounds != nil {
				t.Errorf("stats should be dropped by default: counts=%v bounds=%v", df.ValueCounts, df.LowerBounds)
			}
		}
	}
}

func TestBuild_TimeTravelAcrossSnapshots(t *testing.T) {
	ctx := context.Background()
	storage := floe.NewMemoryIO()

	gen, err := Build(ctx, storage, buildConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	table, err := floe.NewCatalog(storage, "warehouse").LoadTable(ctx, gen.Identifier)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	older := gen.Snapshots[0]
	scan := table.DataFiles().NewScan().UseSnapshot(older.ID)

	snap, err := scan.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.SnapshotID != older.ID {
		t.Errorf("pinned snapshot = %d, want %d", snap.SnapshotID, older.ID)
	}

	i := 0
	for task, err := range scan.PlanFiles(ctx) {
		if err != nil {
			t.Fatalf("PlanFiles: %v", err)
		}
		mt := task.(*floe.ManifestReadTask)
		if mt.Manifest().Path != older.ManifestPaths[i] {
			t.Errorf("task %d manifest = %q, want the older snapshot's %q", i, mt.Manifest().Path, older.ManifestPaths[i])
		}
		i++
	}
	if i != 2 {
		t.Errorf("pinned plan tasks = %d, want 2", i)
	}
}

func TestBuild_CompressedMetadata(t *testing.T) {
	tests := []struct {
		codec  string
		suffix string
	}{
		{"gzip", ".gzip.metadata.json"},
		{"zstd", ".zstd.metadata.json"},
	}

	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			ctx := context.Background()
			storage := floe.NewMemoryIO()

			gen, err := Build(ctx, storage, Config{
				Warehouse:   "warehouse",
				Namespace:   []string{"db"},
				Name:        "t",
				Compression: tt.codec,
			})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if !strings.HasSuffix(gen.MetadataPath, tt.suffix) {
				t.Errorf("metadata path = %q, want suffix %q", gen.MetadataPath, tt.suffix)
			}

			// The catalog probes codecs by extension and must still load.
			table, err := floe.NewCatalog(storage, "warehouse").LoadTable(ctx, gen.Identifier)
			if err != nil {
				t.Fatalf("LoadTable: %v", err)
			}
			if table.CurrentSnapshot().SnapshotID != gen.Current().ID {
				t.Error("compressed metadata loaded the wrong snapshot")
			}
		})
	}
}
