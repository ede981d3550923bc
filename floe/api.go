// Package floe provides snapshot metadata scanning for Iceberg-style table
// formats over object storage.
//
// Floe focuses on the read side of table metadata: immutable snapshots,
// manifest lists, and manifest files, exposed through a lazily planned
// "files" view. It does not implement the write path, snapshot commits, or
// query execution.
package floe

import (
	"context"
	"io"
	"iter"
)

// -----------------------------------------------------------------------------
// Storage interface
// -----------------------------------------------------------------------------

// FileIO abstracts the underlying object storage system.
//
// Implementations may target filesystems, S3, or other object stores.
// Locations are slash-separated storage keys. The interface is intentionally
// minimal to avoid backend-specific leakage.
type FileIO interface {
	// Open returns a reader for the given location.
	// Returns ErrNotFound if the location does not exist.
	Open(ctx context.Context, location string) (io.ReadCloser, error)

	// Create writes data to the given location.
	// Returns ErrPathExists if the location already exists; metadata trees
	// are immutable once written.
	Create(ctx context.Context, location string, r io.Reader) error

	// Exists checks whether a location exists.
	Exists(ctx context.Context, location string) (bool, error)
}

// -----------------------------------------------------------------------------
// MetadataCodec interface
// -----------------------------------------------------------------------------

// MetadataCodec handles compression of table metadata documents.
//
// Codecs are pluggable and orthogonal to storage. The codec name matches the
// "write.metadata.compression-codec" table property; the extension is the
// infix carried by compressed metadata file names.
type MetadataCodec interface {
	// Name returns the codec identifier (for example, "gzip", "zstd", "none").
	Name() string

	// Extension returns the metadata file name infix (for example, ".gzip", "").
	Extension() string

	// Compress wraps a writer with compression.
	Compress(w io.Writer) (io.WriteCloser, error)

	// Decompress wraps a reader with decompression.
	Decompress(r io.Reader) (io.ReadCloser, error)
}

// -----------------------------------------------------------------------------
// Scan tasks
// -----------------------------------------------------------------------------

// ScanTask is a unit of planned, independently executable scan work.
//
// Tasks are immutable once constructed and carry their own frozen schema and
// partition-spec metadata, so later table evolution cannot invalidate an
// in-flight scan.
type ScanTask interface {
	// File returns the data file this task covers.
	File() *DataFile

	// Spec returns the partition spec the task's file is tracked under.
	Spec() *PartitionSpec

	// Start returns the byte offset within the file where the task begins.
	Start() int64

	// Length returns the number of bytes the task covers.
	Length() int64

	// Residual returns the part of the scan's row filter that partition
	// pruning could not eliminate and must be evaluated per row.
	Residual() Expression

	// Split divides the task into tasks of at most targetSize bytes where
	// the underlying unit of work permits it. Tasks that are atomic return
	// a single-element slice containing themselves.
	Split(targetSize int64) []ScanTask
}

// DataTask is a ScanTask that produces its rows directly instead of pointing
// at raw bytes for a downstream reader.
type DataTask interface {
	ScanTask

	// Rows yields the task's records lazily, in file order. The returned
	// sequence owns its input stream and releases it when the loop ends,
	// including on early break. Each call opens a fresh stream; a single
	// sequence must be consumed by one goroutine at a time.
	Rows(ctx context.Context) iter.Seq2[*DataFile, error]
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// Error sentinel values for common conditions.
var (
	// ErrNotFound indicates a requested resource does not exist.
	ErrNotFound = errNotFound{}

	// ErrNoSnapshot indicates a table has no committed snapshot.
	ErrNoSnapshot = errNoSnapshot{}

	// ErrPathExists indicates an attempt to write to an existing location.
	ErrPathExists = errPathExists{}
)

type errNotFound struct{}

func (errNotFound) Error() string { return "not found" }

type errNoSnapshot struct{}

func (errNoSnapshot) Error() string { return "no snapshot" }

type errPathExists struct{}

func (errPathExists) Error() string { return "path exists" }
