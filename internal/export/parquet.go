// Package export writes selected-event rows to columnar files.
package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/banshee-data/truthana/internal/fsutil"
	"github.com/banshee-data/truthana/internal/projector"
)

// DefaultBatchSize is the number of rows buffered per record batch.
const DefaultBatchSize = 4096

// RowSchema returns the Arrow schema for projector rows.
func RowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(projector.Columns))
	for i, c := range projector.Columns {
		var dt arrow.DataType
		switch c.Kind {
		case projector.KindUint64:
			dt = arrow.PrimitiveTypes.Uint64
		case projector.KindInt64:
			dt = arrow.PrimitiveTypes.Int64
		case projector.KindString:
			dt = arrow.BinaryTypes.String
		default:
			dt = arrow.PrimitiveTypes.Float64
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Nullable: false}
	}
	return arrow.NewSchema(fields, nil)
}

// writerOnly hides Close from the parquet writer so the file is closed
// exactly once, by ParquetSink.
type writerOnly struct{ io.Writer }

// ParquetSink writes rows to a Snappy-compressed Parquet file.
type ParquetSink struct {
	file      io.WriteCloser
	allocator memory.Allocator
	schema    *arrow.Schema
	writer    *pqarrow.FileWriter
	builder   *array.RecordBuilder
	batchSize int

	pending int
	written int64
	closed  bool
}

// NewParquetSink creates path on fsys and prepares the writer.
func NewParquetSink(fsys fsutil.FileSystem, path string, batchSize int) (*ParquetSink, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	f, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	allocator := memory.NewGoAllocator()
	schema := RowSchema()

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithDictionaryDefault(true),
		parquet.WithDataPageSize(1024*1024), // 1MB
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithStoreSchema(),
	)

	writer, err := pqarrow.NewFileWriter(schema, writerOnly{f}, writerProps, arrowProps)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	builder := array.NewRecordBuilder(allocator, schema)
	builder.Reserve(batchSize)

	return &ParquetSink{
		file:      f,
		allocator: allocator,
		schema:    schema,
		writer:    writer,
		builder:   builder,
		batchSize: batchSize,
	}, nil
}

// WriteRow implements projector.RowSink.
func (s *ParquetSink) WriteRow(r *projector.Row) error {
	if s.closed {
		return fmt.Errorf("parquet sink is closed")
	}
	for i, v := range r.Values() {
		switch b := s.builder.Field(i).(type) {
		case *array.Uint64Builder:
			b.Append(v.(uint64))
		case *array.Int64Builder:
			b.Append(v.(int64))
		case *array.Float64Builder:
			b.Append(v.(float64))
		case *array.StringBuilder:
			b.Append(v.(string))
		default:
			return fmt.Errorf("column %s: unsupported builder %T", projector.Columns[i].Name, b)
		}
	}
	s.pending++
	if s.pending >= s.batchSize {
		return s.flushBatch()
	}
	return nil
}

// flushBatch writes the buffered rows as one record batch.
func (s *ParquetSink) flushBatch() error {
	if s.pending == 0 {
		return nil
	}
	rec := s.builder.NewRecord()
	defer rec.Release()

	if err := s.writer.Write(rec); err != nil {
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	s.written += int64(s.pending)
	s.pending = 0
	return nil
}

// RowsWritten returns the number of rows flushed so far.
func (s *ParquetSink) RowsWritten() int64 {
	return s.written
}

// Close flushes remaining rows, writes the footer and closes the file.
func (s *ParquetSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer s.builder.Release()

	if err := s.flushBatch(); err != nil {
		s.file.Close()
		return err
	}
	if err := s.writer.Close(); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return s.file.Close()
}
