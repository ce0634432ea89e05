package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/truthana/internal/eventio"
	"github.com/banshee-data/truthana/internal/monitoring"
	tu "github.com/banshee-data/truthana/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

// writeEvents writes four events: two survivors, one below the di-tau mass
// floor and one without weights.
func writeEvents(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := eventio.NewWriter(f)
	for i := 0; i < 4; i++ {
		o := tu.DefaultHHOptions()
		o.EventNumber = uint64(i + 1)
		if i == 1 {
			o.DiTauMassGeV = 55
		}
		ev := tu.NewHHEvent(o)
		if i == 3 {
			ev.Weights = nil
		}
		require.NoError(t, w.Write(ev))
	}
	require.NoError(t, w.Flush())
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunCommand_AllOutputs(t *testing.T) {
	input := writeEvents(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "analysis.db")
	pq := filepath.Join(dir, "rows.parquet")
	plotDir := filepath.Join(dir, "plots")

	out, _, err := execute(t, "run", "--input", input, "--db", db, "--parquet", pq, "--plots", plotDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Printing cutflow")
	assert.Contains(t, out, "Di-tau mass selection")
	assert.Contains(t, out, "read=4 selected=2 skipped=1 unresolved=0")
	assert.Contains(t, out, "run id: ")

	for _, p := range []string{pq, filepath.Join(plotDir, "cutflow.html"), filepath.Join(plotDir, "h_mHbb.png")} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.NotZero(t, info.Size(), p)
	}

	out, _, err = execute(t, "cutflow", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "channel-aware")
	assert.Contains(t, out, "Channel RESOLVED")
	assert.Contains(t, out, "Di-tau mass selection")

	out, _, err = execute(t, "runs", "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "channel-aware")
	assert.NotContains(t, lines[1], "unfinished")
}

func TestRunCommand_ShardedTwoObject(t *testing.T) {
	input := writeEvents(t)

	out, _, err := execute(t, "run", "--input", input, "--variant", "TWO-OBJECT", "--workers", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "read=4 selected=2 skipped=1 unresolved=0")
	assert.NotContains(t, out, "Channel ", "two-object runs have no channel counters")
}

func TestRunCommand_ConfigFile(t *testing.T) {
	input := writeEvents(t)
	cfg := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("ditau_mass_min_gev: 50\n"), 0644))

	out, _, err := execute(t, "run", "--input", input, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "read=4 selected=3 skipped=1")
}

func TestRunCommand_Debug(t *testing.T) {
	input := writeEvents(t)

	_, stderr, err := execute(t, "run", "--input", input, "--debug")
	require.NoError(t, err)
	assert.Contains(t, stderr, "[pipeline] ")
	assert.Contains(t, stderr, "variant=channel-aware")
}

func TestRunCommand_Errors(t *testing.T) {
	input := writeEvents(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing input", []string{"run"}, "input"},
		{"unknown variant", []string{"run", "--input", input, "--variant", "three-object"}, "unknown pipeline variant"},
		{"missing file", []string{"run", "--input", filepath.Join(t.TempDir(), "nope.jsonl")}, "nope.jsonl"},
		{"bad config", []string{"run", "--input", input, "--config", "analysis.toml"}, "config"},
		{"bad input unit", []string{"run", "--input", input, "--input-unit", "eV"}, "input-unit"},
		{"cutflow without db", []string{"cutflow"}, "db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCutflowCommand_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	_, _, err := execute(t, "cutflow", "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "truthana dev (unknown, built unknown)")
}
