package floe

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

// -----------------------------------------------------------------------------
// Immutability - Create returns ErrPathExists on overwrite
// -----------------------------------------------------------------------------

func TestFSIO_Create_ErrPathExists(t *testing.T) {
	ctx := context.Background()
	tmpDir, err := os.MkdirTemp("", "floe-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	storage, err := NewFSIO(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	// First write should succeed
	err = storage.Create(ctx, "warehouse/file.txt", bytes.NewReader([]byte("hello")))
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// Second write to same path should return ErrPathExists
	err = storage.Create(ctx, "warehouse/file.txt", bytes.NewReader([]byte("world")))
	if !errors.Is(err, ErrPathExists) {
		t.Errorf("expected ErrPathExists, got: %v", err)
	}
}

func TestMemoryIO_Create_ErrPathExists(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryIO()

	err := storage.Create(ctx, "warehouse/file.txt", bytes.NewReader([]byte("hello")))
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	err = storage.Create(ctx, "warehouse/file.txt", bytes.NewReader([]byte("world")))
	if !errors.Is(err, ErrPathExists) {
		t.Errorf("expected ErrPathExists, got: %v", err)
	}
}

// -----------------------------------------------------------------------------
// Open and Exists
// -----------------------------------------------------------------------------

func TestFSIO_Open_RoundTrip(t *testing.T) {
	ctx := context.Background()
	tmpDir, err := os.MkdirTemp("", "floe-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	storage, err := NewFSIO(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	content := []byte("table metadata body")
	if err := storage.Create(ctx, "db/tbl/metadata/v1.metadata.json", bytes.NewReader(content)); err != nil {
		t.Fatal(err)
	}

	rc, err := storage.Open(ctx, "db/tbl/metadata/v1.metadata.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("read %q, want %q", got, content)
	}
}

func TestFSIO_Open_ErrNotFound(t *testing.T) {
	ctx := context.Background()
	tmpDir, err := os.MkdirTemp("", "floe-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	storage, err := NewFSIO(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	_, err = storage.Open(ctx, "missing/file.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestMemoryIO_Open_ErrNotFound(t *testing.T) {
	storage := NewMemoryIO()

	_, err := storage.Open(context.Background(), "missing/file.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestFileIO_Exists(t *testing.T) {
	ctx := context.Background()
	tmpDir, err := os.MkdirTemp("", "floe-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	fs, err := NewFSIO(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	for name, storage := range map[string]FileIO{"fs": fs, "memory": NewMemoryIO()} {
		t.Run(name, func(t *testing.T) {
			ok, err := storage.Exists(ctx, "a/b.txt")
			if err != nil {
				t.Fatalf("Exists: %v", err)
			}
			if ok {
				t.Error("expected Exists=false before create")
			}

			if err := storage.Create(ctx, "a/b.txt", bytes.NewReader([]byte("x"))); err != nil {
				t.Fatal(err)
			}

			ok, err = storage.Exists(ctx, "a/b.txt")
			if err != nil {
				t.Fatalf("Exists: %v", err)
			}
			if !ok {
				t.Error("expected Exists=true after create")
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Path handling
// -----------------------------------------------------------------------------

func TestFSIO_RejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	tmpDir, err := os.MkdirTemp("", "floe-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	storage, err := NewFSIO(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	for _, location := range []string{"", ".", "..", "../outside.txt", "a/../../outside.txt", "/.."} {
		t.Run(location, func(t *testing.T) {
			if _, err := storage.Open(ctx, location); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Open(%q): expected ErrInvalidPath, got: %v", location, err)
			}
			if err := storage.Create(ctx, location, bytes.NewReader(nil)); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Create(%q): expected ErrInvalidPath, got: %v", location, err)
			}
		})
	}
}

func TestFSIO_AbsoluteLocationResolvedUnderRoot(t *testing.T) {
	ctx := context.Background()
	tmpDir, err := os.MkdirTemp("", "floe-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	storage, err := NewFSIO(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	// Metadata documents record absolute-style locations. They resolve
	// inside the root, not against the host filesystem.
	if err := storage.Create(ctx, "/warehouse/db/tbl/f.txt", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "warehouse", "db", "tbl", "f.txt")); err != nil {
		t.Errorf("file not under root: %v", err)
	}

	// The slash-prefixed and bare forms address the same object.
	rc, err := storage.Open(ctx, "warehouse/db/tbl/f.txt")
	if err != nil {
		t.Fatalf("Open without slash: %v", err)
	}
	rc.Close()
}

func TestMemoryIO_NormalizesLocations(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryIO()

	if err := storage.Create(ctx, "/warehouse/tbl/f.txt", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatal(err)
	}

	ok, err := storage.Exists(ctx, "warehouse/tbl/f.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("slash-prefixed and bare locations should address the same object")
	}

	if err := storage.Create(ctx, "../escape.txt", bytes.NewReader(nil)); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got: %v", err)
	}
}

// -----------------------------------------------------------------------------
// Concurrency
// -----------------------------------------------------------------------------

func TestMemoryIO_ConcurrentCreates_ExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryIO()

	var wins atomic.Int32
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			err := storage.Create(gCtx, "contended.txt", bytes.NewReader([]byte("x")))
			if err == nil {
				wins.Add(1)
				return nil
			}
			if errors.Is(err, ErrPathExists) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := wins.Load(); got != 1 {
		t.Errorf("expected exactly 1 winning create, got %d", got)
	}
}
