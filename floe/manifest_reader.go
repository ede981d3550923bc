package floe

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
)

// -----------------------------------------------------------------------------
// Decode errors
// -----------------------------------------------------------------------------

// ErrDecode indicates manifest or manifest-list content could not be
// decoded: a corrupt container, a truncated stream, or a writer schema that
// does not bind to a known structure.
var ErrDecode = errors.New("decode failed")

// decodeError provides details about decode failures.
type decodeError struct {
	Source  string
	Message string
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("decode failed: %s: %s", e.Source, e.Message)
}

func (e *decodeError) Unwrap() error {
	return ErrDecode
}

const (
	sourceManifestList = "manifest list"
	sourceManifest     = "manifest"
)

// -----------------------------------------------------------------------------
// Wire schema binding
// -----------------------------------------------------------------------------

// recordKind identifies the structures manifest records decode into.
type recordKind uint8

const (
	kindUnknown recordKind = iota
	kindManifestFile
	kindManifestEntry
	kindFieldSummary
	kindDataFile
	kindPartitionData
)

// wireRecordKinds enumerates the record names accepted at each structural
// position. Writers differ: some emit positional names (r2, r102, r508),
// others descriptive ones. A name outside this table fails decoding before
// any entry is yielded.
var wireRecordKinds = map[string]recordKind{
	"manifest_file":  kindManifestFile,
	"manifest_entry": kindManifestEntry,
	"r508":           kindFieldSummary,
	"field_summary":  kindFieldSummary,
	"r2":             kindDataFile,
	"data_file":      kindDataFile,
	"r102":           kindPartitionData,
	"partition":      kindPartitionData,
}

// resolveSchema unwraps references and nullable unions down to the schema
// that carries the data.
func resolveSchema(s avro.Schema) avro.Schema {
	switch t := s.(type) {
	case *avro.RefSchema:
		return resolveSchema(t.Schema())
	case *avro.UnionSchema:
		for _, alt := range t.Types() {
			if alt.Type() != avro.Null {
				return resolveSchema(alt)
			}
		}
	}
	return s
}

func recordField(r *avro.RecordSchema, name string) *avro.Field {
	for _, f := range r.Fields() {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// boundRecord resolves s to a record schema and checks that its name binds
// to the wanted structure.
func boundRecord(s avro.Schema, want recordKind, source string) (*avro.RecordSchema, error) {
	rec, ok := resolveSchema(s).(*avro.RecordSchema)
	if !ok {
		return nil, &decodeError{Source: source, Message: "expected a record schema"}
	}
	if wireRecordKinds[rec.Name()] != want {
		return nil, &decodeError{
			Source:  source,
			Message: fmt.Sprintf("record %q does not bind to a known structure", rec.Name()),
		}
	}
	return rec, nil
}

// validateListSchema checks a manifest list's writer schema: the root must
// be a manifest_file record and any partition summaries must use a known
// summary record.
func validateListSchema(schema avro.Schema) error {
	root, err := boundRecord(schema, kindManifestFile, sourceManifestList)
	if err != nil {
		return err
	}
	if f := recordField(root, "partitions"); f != nil {
		arr, ok := resolveSchema(f.Type()).(*avro.ArraySchema)
		if !ok {
			return &decodeError{Source: sourceManifestList, Message: "partitions is not an array"}
		}
		if _, err := boundRecord(arr.Items(), kindFieldSummary, sourceManifestList); err != nil {
			return err
		}
	}
	return nil
}

// validateManifestSchema checks a manifest's writer schema: the root must
// be a manifest_entry record whose data_file field carries a known data-file
// record with a known partition record.
func validateManifestSchema(schema avro.Schema) error {
	root, err := boundRecord(schema, kindManifestEntry, sourceManifest)
	if err != nil {
		return err
	}
	f := recordField(root, "data_file")
	if f == nil {
		return &decodeError{Source: sourceManifest, Message: "missing data_file field"}
	}
	df, err := boundRecord(f.Type(), kindDataFile, sourceManifest)
	if err != nil {
		return err
	}
	p := recordField(df, "partition")
	if p == nil {
		return &decodeError{Source: sourceManifest, Message: "missing partition field"}
	}
	if _, err := boundRecord(p.Type(), kindPartitionData, sourceManifest); err != nil {
		return err
	}
	return nil
}

// writerSchema extracts and parses the writer schema embedded in an OCF
// container's metadata.
func writerSchema(dec *ocf.Decoder, source string) (avro.Schema, error) {
	raw, ok := dec.Metadata()["avro.schema"]
	if !ok {
		return nil, &decodeError{Source: source, Message: "missing avro.schema metadata"}
	}
	schema, err := avro.Parse(string(raw))
	if err != nil {
		return nil, &decodeError{Source: source, Message: err.Error()}
	}
	return schema, nil
}

// -----------------------------------------------------------------------------
// Reading
// -----------------------------------------------------------------------------

// readConfig holds manifest reading options.
type readConfig struct {
	reuseContainers bool
}

// ReadOption configures manifest reading.
type ReadOption func(*readConfig)

// WithReuseContainers yields the same container on every iteration instead
// of allocating one per record. Callers must not retain a yielded value
// across iterations.
func WithReuseContainers() ReadOption {
	return func(c *readConfig) { c.reuseContainers = true }
}

// ReadManifestList decodes manifest list entries from r, yielding them in
// file order. The sequence owns r and closes it when the loop ends,
// including on early break. It can be ranged once; re-reading requires a
// new stream.
func ReadManifestList(r io.ReadCloser, opts ...ReadOption) iter.Seq2[*ManifestFile, error] {
	var cfg readConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(yield func(*ManifestFile, error) bool) {
		defer closer(r)()

		dec, err := ocf.NewDecoder(r)
		if err != nil {
			yield(nil, &decodeError{Source: sourceManifestList, Message: err.Error()})
			return
		}
		schema, err := writerSchema(dec, sourceManifestList)
		if err != nil {
			yield(nil, err)
			return
		}
		if err := validateListSchema(schema); err != nil {
			yield(nil, err)
			return
		}

		var (
			wire   manifestFileAvro
			shared ManifestFile
		)
		for dec.HasNext() {
			wire = manifestFileAvro{}
			if err := dec.Decode(&wire); err != nil {
				yield(nil, &decodeError{Source: sourceManifestList, Message: err.Error()})
				return
			}
			mf := wire.toManifestFile()
			if cfg.reuseContainers {
				shared = *mf
				mf = &shared
			}
			if !yield(mf, nil) {
				return
			}
		}
		if err := dec.Err(); err != nil {
			yield(nil, &decodeError{Source: sourceManifestList, Message: err.Error()})
		}
	}
}

// ReadManifest decodes manifest entries from r, yielding them in file
// order. All entries are yielded, including deleted ones; callers filter by
// status. Stream ownership follows ReadManifestList.
func ReadManifest(r io.ReadCloser, opts ...ReadOption) iter.Seq2[*ManifestEntry, error] {
	var cfg readConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(yield func(*ManifestEntry, error) bool) {
		defer closer(r)()

		dec, err := ocf.NewDecoder(r)
		if err != nil {
			yield(nil, &decodeError{Source: sourceManifest, Message: err.Error()})
			return
		}
		schema, err := writerSchema(dec, sourceManifest)
		if err != nil {
			yield(nil, err)
			return
		}
		if err := validateManifestSchema(schema); err != nil {
			yield(nil, err)
			return
		}

		var (
			wire   manifestEntryAvro
			shared ManifestEntry
		)
		for dec.HasNext() {
			wire = manifestEntryAvro{}
			if err := dec.Decode(&wire); err != nil {
				yield(nil, &decodeError{Source: sourceManifest, Message: err.Error()})
				return
			}
			entry := wire.toManifestEntry()
			if cfg.reuseContainers {
				shared = *entry
				entry = &shared
			}
			if !yield(entry, nil) {
				return
			}
		}
		if err := dec.Err(); err != nil {
			yield(nil, &decodeError{Source: sourceManifest, Message: err.Error()})
		}
	}
}
