package floe

import (
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"
)

// -----------------------------------------------------------------------------
// Gzip Codec
// -----------------------------------------------------------------------------

// gzipCodec implements MetadataCodec using gzip compression.
type gzipCodec struct{}

// NewGzipCodec creates a gzip metadata codec.
//
// Metadata files are compressed using standard gzip format with the ".gzip"
// file name infix (for example, "v3.gzip.metadata.json").
func NewGzipCodec() MetadataCodec {
	return &gzipCodec{}
}

func (g *gzipCodec) Name() string {
	return "gzip"
}

func (g *gzipCodec) Extension() string {
	return ".gzip"
}

func (g *gzipCodec) Compress(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

func (g *gzipCodec) Decompress(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// -----------------------------------------------------------------------------
// Zstd Codec
// -----------------------------------------------------------------------------

// zstdCodec implements MetadataCodec using zstd compression.
type zstdCodec struct{}

// NewZstdCodec creates a zstd metadata codec.
//
// Metadata files are compressed using Zstandard format with the ".zstd"
// file name infix. Zstd provides higher compression ratios and faster
// decompression than gzip.
func NewZstdCodec() MetadataCodec {
	return &zstdCodec{}
}

func (z *zstdCodec) Name() string {
	return "zstd"
}

func (z *zstdCodec) Extension() string {
	return ".zstd"
}

func (z *zstdCodec) Compress(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

func (z *zstdCodec) Decompress(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

// -----------------------------------------------------------------------------
// NoOp Codec
// -----------------------------------------------------------------------------

// noopCodec implements MetadataCodec with no compression.
type noopCodec struct{}

// NewNoOpCodec creates a noop metadata codec.
//
// Data passes through unchanged and metadata files carry no infix.
func NewNoOpCodec() MetadataCodec {
	return &noopCodec{}
}

func (n *noopCodec) Name() string {
	return "none"
}

func (n *noopCodec) Extension() string {
	return ""
}

func (n *noopCodec) Compress(w io.Writer) (io.WriteCloser, error) {
	return &noopWriteCloser{w}, nil
}

func (n *noopCodec) Decompress(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type noopWriteCloser struct {
	io.Writer
}

func (n *noopWriteCloser) Close() error {
	return nil
}

// metadataCodecs lists the codecs the catalog probes when resolving a
// versioned metadata file, in probe order.
var metadataCodecs = []MetadataCodec{
	NewNoOpCodec(),
	NewGzipCodec(),
	NewZstdCodec(),
}
