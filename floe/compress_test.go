package floe

import (
	"bytes"
	"io"
	"testing"
)

func TestGzipCodec_Name(t *testing.T) {
	c := NewGzipCodec()
	if c.Name() != "gzip" {
		t.Errorf("Name() = %q, want gzip", c.Name())
	}
}

func TestGzipCodec_Extension(t *testing.T) {
	c := NewGzipCodec()
	if c.Extension() != ".gzip" {
		t.Errorf("Extension() = %q, want .gzip", c.Extension())
	}
}

func TestGzipCodec_CompressDecompress(t *testing.T) {
	c := NewGzipCodec()
	data := []byte("table metadata body for compression")

	// Compress
	var compressed bytes.Buffer
	w, err := c.Compress(&compressed)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	_, _ = w.Write(data)
	_ = w.Close()

	// Decompress
	r, err := c.Decompress(&compressed)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	defer func() { _ = r.Close() }()

	decompressed, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	if !bytes.Equal(decompressed, data) {
		t.Errorf("decompressed data mismatch: got %q, want %q", decompressed, data)
	}
}

func TestZstdCodec_Name(t *testing.T) {
	c := NewZstdCodec()
	if c.Name() != "zstd" {
		t.Errorf("Name() = %q, want zstd", c.Name())
	}
}

func TestZstdCodec_Extension(t *testing.T) {
	c := NewZstdCodec()
	if c.Extension() != ".zstd" {
		t.Errorf("Extension() = %q, want .zstd", c.Extension())
	}
}

func TestZstdCodec_CompressDecompress(t *testing.T) {
	c := NewZstdCodec()
	data := []byte("table metadata body for compression")

	var compressed bytes.Buffer
	w, err := c.Compress(&compressed)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	_, _ = w.Write(data)
	_ = w.Close()

	r, err := c.Decompress(&compressed)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	defer func() { _ = r.Close() }()

	decompressed, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	if !bytes.Equal(decompressed, data) {
		t.Errorf("decompressed data mismatch: got %q, want %q", decompressed, data)
	}
}

func TestNoOpCodec_Name(t *testing.T) {
	c := NewNoOpCodec()
	if c.Name() != "none" {
		t.Errorf("Name() = %q, want none", c.Name())
	}
}

func TestNoOpCodec_Extension(t *testing.T) {
	c := NewNoOpCodec()
	if c.Extension() != "" {
		t.Errorf("Extension() = %q, want empty", c.Extension())
	}
}

func TestNoOpCodec_Passthrough(t *testing.T) {
	c := NewNoOpCodec()
	data := []byte("unmodified bytes")

	var buf bytes.Buffer
	w, err := c.Compress(&buf)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	_, _ = w.Write(data)
	_ = w.Close()

	if !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("noop changed bytes: got %q, want %q", buf.Bytes(), data)
	}

	r, err := c.Decompress(&buf)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	defer func() { _ = r.Close() }()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("passthrough mismatch: got %q, want %q", out, data)
	}
}

func TestMetadataCodecs_ProbeOrder(t *testing.T) {
	// The catalog probes the uncompressed name first, then the compressed
	// variants.
	if len(metadataCodecs) != 3 {
		t.Fatalf("expected 3 codecs, got %d", len(metadataCodecs))
	}
	if metadataCodecs[0].Extension() != "" {
		t.Errorf("first probe should be uncompressed, got %q", metadataCodecs[0].Extension())
	}
	if metadataCodecs[1].Name() != "gzip" || metadataCodecs[2].Name() != "zstd" {
		t.Errorf("probe order = [%s %s %s]", metadataCodecs[0].Name(), metadataCodecs[1].Name(), metadataCodecs[2].Name())
	}
}
