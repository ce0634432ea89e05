package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/truthana/internal/channel"
	"github.com/banshee-data/truthana/internal/cutflow"
	"github.com/banshee-data/truthana/internal/monitoring"
	"github.com/banshee-data/truthana/internal/projector"
	"github.com/banshee-data/truthana/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) (*Store, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(epoch)
	s, err := Open(filepath.Join(t.TempDir(), "analysis.db"), WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func sampleCutflow(t *testing.T) *cutflow.Cutflow {
	t.Helper()
	cf := cutflow.New()
	for _, step := range []struct {
		name string
		w    float64
	}{
		{"Initial", 3.0},
		{"Channel RESOLVED", 2.0},
		{"Channel BOOSTED", 1.0},
		{"Good Event", 3.0},
		{"OS Charge", 2.5},
	} {
		require.NoError(t, cf.AddCut(step.name, step.w))
	}
	return cf
}

func TestOpen_AppliesMigrations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "analysis.db")
	s, err := Open(path)
	require.NoError(t, err)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	require.NoError(t, s.Close())

	// Re-opening is a no-op migration.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.MigrateUp())
}

func TestSchemaMatchesRowColumns(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	rows, err := s.Query(`SELECT name FROM pragma_table_info('selected_events') ORDER BY cid`)
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		got = append(got, name)
	}
	require.NoError(t, rows.Err())

	want := []string{"run_id", "seq"}
	for _, c := range projector.Columns {
		want = append(want, c.Name)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("selected_events columns drifted from projector.Columns (-want +got):\n%s", diff)
	}
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	s, clock := openTestStore(t)

	id, err := s.StartRun("channel-aware", `{"variant":"channel-aware"}`)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	run, err := s.Run(id)
	require.NoError(t, err)
	assert.Equal(t, epoch, run.StartedAt)
	assert.False(t, run.Finished())
	assert.Equal(t, "channel-aware", run.Variant)
	assert.JSONEq(t, `{"variant":"channel-aware"}`, run.ConfigJSON)

	clock.Advance(90 * time.Second)
	require.NoError(t, s.FinishRun(id, RunTotals{Read: 10, Selected: 4, Skipped: 1, Unresolved: 2}))

	run, err = s.Run(id)
	require.NoError(t, err)
	assert.True(t, run.Finished())
	assert.Equal(t, epoch.Add(90*time.Second), run.FinishedAt)
	assert.Equal(t, int64(10), run.EventsRead)
	assert.Equal(t, int64(4), run.EventsSelected)
	assert.Equal(t, int64(1), run.EventsSkipped)
	assert.Equal(t, int64(2), run.EventsUnresolved)
}

func TestCutflowRoundTripPreservesOrder(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	id, err := s.StartRun("channel-aware", "")
	require.NoError(t, err)

	cf := sampleCutflow(t)
	require.NoError(t, s.SaveCutflow(id, cf))

	loaded, err := s.LoadCutflow(id)
	require.NoError(t, err)
	if diff := cmp.Diff(cf.Stages(), loaded.Stages()); diff != "" {
		t.Errorf("cutflow mismatch (-saved +loaded):\n%s", diff)
	}

	// Saving again replaces rather than appends.
	require.NoError(t, cf.AddCut("Tau Preselection", 2.0))
	require.NoError(t, s.SaveCutflow(id, cf))
	loaded, err = s.LoadCutflow(id)
	require.NoError(t, err)
	assert.Equal(t, cf.Names(), loaded.Names())
}

func TestRunNotFound(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)

	_, err := s.LatestRunID()
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.LoadCutflow("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrRunNotFound)
	err = s.FinishRun("missing", RunTotals{})
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	t.Parallel()

	s, clock := openTestStore(t)
	first, err := s.StartRun("two-object", "")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := s.StartRun("channel-aware", "")
	require.NoError(t, err)

	runs, err := s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)

	latest, err := s.LatestRunID()
	require.NoError(t, err)
	assert.Equal(t, second, latest)
}

func TestRowsAndSink(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	id, err := s.StartRun("channel-aware", "")
	require.NoError(t, err)

	require.NoError(t, s.InsertRow(id, 0, &projector.Row{RunNumber: 1, EventNumber: 1, MCWeight: 1, Channel: channel.Resolved}))

	// The sink numbers rows from 0, so it gets a run of its own.
	other, err := s.StartRun("channel-aware", "")
	require.NoError(t, err)
	sink, err := s.NewRowSink(other)
	require.NoError(t, err)
	var _ projector.RowSink = sink
	for i, ch := range []channel.Channel{channel.Resolved, channel.Boosted, channel.Resolved} {
		require.NoError(t, sink.WriteRow(&projector.Row{
			RunNumber:   1,
			EventNumber: uint64(i + 10),
			DRBJetBJet:  projector.Unset,
			MCWeight:    0.5,
			Channel:     ch,
		}))
	}
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close(), "second close is a no-op")

	n, err := s.CountRows(id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.CountRows(other)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	counts, err := s.ChannelCounts(other)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"RESOLVED": 2, "BOOSTED": 1}, counts)

	var dr float64
	require.NoError(t, s.QueryRow(`SELECT dr_bjetbjet FROM selected_events WHERE run_id = ? AND seq = 0`, other).Scan(&dr))
	assert.Equal(t, -1.0, dr)
}

func TestRowSinkAbortDiscardsRows(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	id, err := s.StartRun("channel-aware", "")
	require.NoError(t, err)

	sink, err := s.NewRowSink(id)
	require.NoError(t, err)
	for i := range 3 {
		require.NoError(t, sink.WriteRow(&projector.Row{RunNumber: 1, EventNumber: uint64(i), Channel: channel.Resolved}))
	}
	require.NoError(t, sink.Abort())
	require.NoError(t, sink.Abort(), "second abort is a no-op")
	require.NoError(t, sink.Close(), "close after abort is a no-op")

	n, err := s.CountRows(id)
	require.NoError(t, err)
	assert.Zero(t, n)

	// The store stays writable once the transaction is gone.
	require.NoError(t, s.SaveCutflow(id, sampleCutflow(t)))
}
