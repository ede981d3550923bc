package tablegen

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/parquet-go/parquet-go"

	"github.com/justapithecus/floe/floe"
)

// measurement is the parquet row type of generated data files. Field ids
// follow the generated table schema: id=1, category=2, reading=3.
type measurement struct {
	ID       int64   `parquet:"id"`
	Category string  `parquet:"category"`
	Reading  float64 `parquet:"reading"`
}

var categories = []string{"alpha", "beta", "gamma", "delta"}

// buildRows generates the rows of one data file. File indexes offset the
// ids so generated files never overlap.
func buildRows(fileIndex, count int) []measurement {
	rows := make([]measurement, count)
	for i := range rows {
		id := int64(fileIndex*count + i)
		rows[i] = measurement{
			ID:       id,
			Category: categories[i%len(categories)],
			Reading:  float64(id) / 16.0,
		}
	}
	return rows
}

// writeDataFile encodes rows as a parquet file and returns the bytes plus
// the data-file metadata describing them.
func writeDataFile(rows []measurement, location string) ([]byte, *floe.DataFile, error) {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[measurement](&buf, parquet.Compression(&parquet.Snappy))

	if _, err := w.Write(rows); err != nil {
		return nil, nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, nil, fmt.Errorf("close parquet writer: %w", err)
	}

	data := buf.Bytes()
	df := &floe.DataFile{
		Path:        location,
		Format:      floe.FormatParquet,
		RecordCount: int64(len(rows)),
		SizeBytes:   int64(len(data)),
	}
	applyStats(df, rows)

	return data, df, nil
}

// applyStats computes column metrics for the generated rows: sizes, value
// counts, and min/max bounds in single-value serialization (little-endian
// for numerics, UTF-8 for strings).
func applyStats(df *floe.DataFile, rows []measurement) {
	n := int64(len(rows))
	if n == 0 {
		return
	}

	minRow, maxRow := rows[0], rows[0]
	var catBytes int64
	for _, r := range rows {
		if r.ID < minRow.ID {
			minRow.ID = r.ID
		}
		if r.ID > maxRow.ID {
			maxRow.ID = r.ID
		}
		if r.Category < minRow.Category {
			minRow.Category = r.Category
		}
		if r.Category > maxRow.Category {
			maxRow.Category = r.Category
		}
		if r.Reading < minRow.Reading {
			minRow.Reading = r.Reading
		}
		if r.Reading > maxRow.Reading {
			maxRow.Reading = r.Reading
		}
		catBytes += int64(len(r.Category))
	}

	df.ColumnSizes = map[int]int64{1: 8 * n, 2: catBytes, 3: 8 * n}
	df.ValueCounts = map[int]int64{1: n, 2: n, 3: n}
	df.NullValueCounts = map[int]int64{1: 0, 2: 0, 3: 0}
	df.LowerBounds = map[int][]byte{
		1: encodeLong(minRow.ID),
		2: []byte(minRow.Category),
		3: encodeDouble(minRow.Reading),
	}
	df.UpperBounds = map[int][]byte{
		1: encodeLong(maxRow.ID),
		2: []byte(maxRow.Category),
		3: encodeDouble(maxRow.Reading),
	}
}

func encodeLong(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func encodeDouble(v float64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return b
}
