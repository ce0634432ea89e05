package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/truthana/internal/channel"
	"github.com/banshee-data/truthana/internal/fsutil"
	"github.com/banshee-data/truthana/internal/projector"
)

func readTable(t *testing.T, data []byte) arrow.Table {
	t.Helper()
	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(data),
		parquet.NewReaderProperties(memory.DefaultAllocator), pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)
	t.Cleanup(tbl.Release)
	return tbl
}

func columnIndex(t *testing.T, tbl arrow.Table, name string) int {
	t.Helper()
	idx := tbl.Schema().FieldIndices(name)
	require.Len(t, idx, 1, name)
	return idx[0]
}

func TestParquetSink_WritesAllRows(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	sink, err := NewParquetSink(fsys, "/out/rows.parquet", 2)
	require.NoError(t, err)

	rows := []*projector.Row{
		{RunNumber: 1, EventNumber: 10, NJets: 2, Tau0Pt: 61.5, MCWeight: 1.0, Channel: channel.Resolved},
		{RunNumber: 1, EventNumber: 11, NJets: 1, Tau0Pt: 45.0, MCWeight: 0.5, Channel: channel.Boosted},
		{RunNumber: 1, EventNumber: 12, NJets: 0, Tau0Pt: 80.25, MCWeight: -0.25, Channel: channel.Both},
	}
	for _, r := range rows {
		require.NoError(t, sink.WriteRow(r))
	}
	assert.Equal(t, int64(2), sink.RowsWritten(), "first batch flushed at batch size")
	require.NoError(t, sink.Close())
	assert.Equal(t, int64(3), sink.RowsWritten())
	require.NoError(t, sink.Close(), "second close is a no-op")
	assert.Error(t, sink.WriteRow(rows[0]))

	data, err := fsys.ReadFile("/out/rows.parquet")
	require.NoError(t, err)
	tbl := readTable(t, data)

	assert.Equal(t, int64(3), tbl.NumRows())
	assert.Equal(t, len(projector.Columns), int(tbl.NumCols()))

	var events []uint64
	for _, chunk := range tbl.Column(columnIndex(t, tbl, "event_number")).Data().Chunks() {
		arr := chunk.(*array.Uint64)
		for i := 0; i < arr.Len(); i++ {
			events = append(events, arr.Value(i))
		}
	}
	assert.Equal(t, []uint64{10, 11, 12}, events)

	var weights []float64
	for _, chunk := range tbl.Column(columnIndex(t, tbl, "mc_weight")).Data().Chunks() {
		arr := chunk.(*array.Float64)
		for i := 0; i < arr.Len(); i++ {
			weights = append(weights, arr.Value(i))
		}
	}
	assert.Equal(t, []float64{1.0, 0.5, -0.25}, weights)

	var channels []string
	for _, chunk := range tbl.Column(columnIndex(t, tbl, "channel")).Data().Chunks() {
		arr := chunk.(*array.String)
		for i := 0; i < arr.Len(); i++ {
			channels = append(channels, arr.Value(i))
		}
	}
	assert.Equal(t, []string{"RESOLVED", "BOOSTED", "BOTH"}, channels)
}

func TestParquetSink_EmptyFileIsValid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.parquet")
	fsys := fsutil.OSFileSystem{}
	sink, err := NewParquetSink(fsys, path, 0)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	tbl := readTable(t, data)
	assert.Equal(t, int64(0), tbl.NumRows())
	require.Equal(t, len(projector.Columns), tbl.Schema().NumFields())
	for i, c := range projector.Columns {
		assert.Equal(t, c.Name, tbl.Schema().Field(i).Name)
	}
}

func TestRowSchemaKinds(t *testing.T) {
	t.Parallel()

	schema := RowSchema()
	require.Equal(t, len(projector.Columns), schema.NumFields())
	for i, c := range projector.Columns {
		f := schema.Field(i)
		assert.Equal(t, c.Name, f.Name)
		switch c.Kind {
		case projector.KindUint64:
			assert.Equal(t, arrow.UINT64, f.Type.ID(), c.Name)
		case projector.KindInt64:
			assert.Equal(t, arrow.INT64, f.Type.ID(), c.Name)
		case projector.KindFloat64:
			assert.Equal(t, arrow.FLOAT64, f.Type.ID(), c.Name)
		case projector.KindString:
			assert.Equal(t, arrow.STRING, f.Type.ID(), c.Name)
		}
	}
}
