package floe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
)

const (
	metadataDirName = "metadata"
	versionHintFile = "version-hint.text"

	// maxVersionScan bounds the probe when no version hint exists.
	maxVersionScan = 10000
)

// Catalog resolves table names against a hadoop-style warehouse layout:
// {warehouse}/{namespace...}/{table}/metadata/ holding versioned metadata
// documents plus a version-hint.text pointer. No catalog server required.
type Catalog struct {
	storage   FileIO
	warehouse string
	logger    *slog.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithLogger sets the logger used for catalog diagnostics.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) CatalogOption {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// NewCatalog creates a catalog over the given storage, rooted at the
// warehouse prefix.
func NewCatalog(storage FileIO, warehouse string, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		storage:   storage,
		warehouse: warehouse,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) tablePath(ident Identifier) string {
	parts := append([]string{c.warehouse}, ident...)
	return path.Join(parts...)
}

func (c *Catalog) metadataDir(ident Identifier) string {
	return path.Join(c.tablePath(ident), metadataDirName)
}

// LoadTable resolves the table's current metadata version and returns a
// handle pinned to it. Returns ErrNotFound when the table has no metadata.
func (c *Catalog) LoadTable(ctx context.Context, ident Identifier) (*Table, error) {
	if len(ident) == 0 {
		return nil, fmt.Errorf("floe: table identifier must not be empty")
	}

	metaDir := c.metadataDir(ident)
	version, err := c.currentVersion(ctx, metaDir)
	if err != nil {
		return nil, err
	}

	meta, err := c.readMetadataVersion(ctx, metaDir, version)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("loaded table metadata",
		"table", ident.String(),
		"version", version,
		"snapshots", len(meta.Snapshots),
	)

	return NewTable(ident, meta, c.storage)
}

// currentVersion reads version-hint.text, falling back to probing for the
// highest versioned metadata file when the hint is absent.
func (c *Catalog) currentVersion(ctx context.Context, metaDir string) (int, error) {
	hintPath := path.Join(metaDir, versionHintFile)
	rc, err := c.storage.Open(ctx, hintPath)
	if err == nil {
		defer closer(rc)()
		data, err := io.ReadAll(rc)
		if err != nil {
			return 0, fmt.Errorf("floe: failed to read version hint: %w", err)
		}
		hint := strings.TrimSpace(string(data))
		v, err := strconv.Atoi(hint)
		if err != nil || v < 1 {
			return 0, fmt.Errorf("floe: malformed version hint %q", hint)
		}
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	c.logger.Warn("version hint missing; probing for metadata versions", "dir", metaDir)
	return c.scanVersions(ctx, metaDir)
}

// scanVersions probes versioned metadata files in order and returns the
// highest contiguous version. Returns ErrNotFound when none exist.
func (c *Catalog) scanVersions(ctx context.Context, metaDir string) (int, error) {
	version := 0
	for v := 1; v <= maxVersionScan; v++ {
		exists, err := c.versionExists(ctx, metaDir, v)
		if err != nil {
			return 0, err
		}
		if !exists {
			break
		}
		version = v
	}
	if version == 0 {
		return 0, fmt.Errorf("floe: no table metadata under %s: %w", metaDir, ErrNotFound)
	}
	return version, nil
}

func (c *Catalog) versionExists(ctx context.Context, metaDir string, version int) (bool, error) {
	for _, codec := range metadataCodecs {
		exists, err := c.storage.Exists(ctx, metadataFilePath(metaDir, version, codec))
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

// readMetadataVersion opens the versioned metadata file, probing each
// compression codec's file name in turn.
func (c *Catalog) readMetadataVersion(ctx context.Context, metaDir string, version int) (*TableMetadata, error) {
	for _, codec := range metadataCodecs {
		loc := metadataFilePath(metaDir, version, codec)
		rc, err := c.storage.Open(ctx, loc)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		meta, err := decodeMetadataFile(rc, codec)
		if err != nil {
			return nil, fmt.Errorf("floe: metadata %s: %w", loc, err)
		}
		return meta, nil
	}
	return nil, fmt.Errorf("floe: metadata version %d under %s: %w", version, metaDir, ErrNotFound)
}

func decodeMetadataFile(rc io.ReadCloser, codec MetadataCodec) (*TableMetadata, error) {
	defer closer(rc)()
	r, err := codec.Decompress(rc)
	if err != nil {
		return nil, err
	}
	defer closer(r)()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseTableMetadata(data)
}

// metadataFilePath names a versioned metadata file for the given codec,
// for example "v3.metadata.json" or "v3.gzip.metadata.json".
func metadataFilePath(metaDir string, version int, codec MetadataCodec) string {
	return path.Join(metaDir, fmt.Sprintf("v%d%s.metadata.json", version, codec.Extension()))
}
