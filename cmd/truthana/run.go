package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/banshee-data/truthana/internal/config"
	"github.com/banshee-data/truthana/internal/eventio"
	"github.com/banshee-data/truthana/internal/export"
	"github.com/banshee-data/truthana/internal/fsutil"
	"github.com/banshee-data/truthana/internal/monitoring"
	"github.com/banshee-data/truthana/internal/pipeline"
	"github.com/banshee-data/truthana/internal/plots"
	"github.com/banshee-data/truthana/internal/projector"
	"github.com/banshee-data/truthana/internal/runner"
	"github.com/banshee-data/truthana/internal/store"
)

type runOptions struct {
	input     string
	inputUnit string
	config    string
	variant   string
	db        string
	parquet   string
	plotDir   string
	workers   int
	progress  bool
	debug     bool
}

func newRunCmd() *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the selection over an event file",
		Long: `Run the selection over a JSON-lines event file and print the cutflow.

Examples:
  truthana run --input events.jsonl
  truthana run --input events.jsonl --variant two-object --db analysis.db
  truthana run --input events.jsonl --parquet rows.parquet --plots plots/ --workers 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "Event file (JSON lines)")
	f.StringVar(&o.inputUnit, "input-unit", "MeV", "Energy unit of the input momenta and masses (MeV, GeV, TeV)")
	f.StringVarP(&o.config, "config", "c", "", "Analysis config file (.json, .yaml)")
	f.StringVar(&o.variant, "variant", "", "Pipeline variant (channel-aware, two-object); overrides the config")
	f.StringVar(&o.db, "db", "", "SQLite database to record the run in")
	f.StringVar(&o.parquet, "parquet", "", "Write selected-event rows to this Parquet file")
	f.StringVar(&o.plotDir, "plots", "", "Write histograms and the cutflow chart into this directory")
	f.IntVarP(&o.workers, "workers", "w", 1, "Number of concurrent workers; above 1 the input is loaded into memory")
	f.BoolVar(&o.progress, "progress", false, "Show a progress bar")
	f.BoolVar(&o.debug, "debug", false, "Log per-event selection detail to stderr")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func loadConfig(o runOptions) (*config.AnalysisConfig, error) {
	cfg := config.DefaultAnalysisConfig()
	if o.config != "" {
		loaded, err := config.LoadAnalysisConfig(o.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.variant != "" {
		v, err := pipeline.ParseVariant(o.variant)
		if err != nil {
			return nil, err
		}
		name := string(v)
		cfg.Variant = &name
	}
	return cfg, cfg.Validate()
}

func runAnalysis(cmd *cobra.Command, o runOptions) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	fsys := fsutil.OSFileSystem{}

	if o.debug {
		pipeline.SetLogWriters(stderr, stderr, stderr)
	} else {
		pipeline.SetLogWriters(nil, nil, nil)
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	settings, err := pipeline.SettingsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	p := pipeline.New(settings)
	p.LogSettings()

	reader, err := eventio.Open(fsys, o.input)
	if err != nil {
		return err
	}
	defer reader.Close()
	if err := reader.SetEnergyUnit(o.inputUnit); err != nil {
		return fmt.Errorf("--input-unit: %w", err)
	}

	opts := []runner.Option{
		runner.WithOutput(stdout),
		runner.WithSkipUnresolved(cfg.GetSkipUnresolvedDecays()),
		runner.WithRejectNegativeWeights(cfg.GetRejectNegativeWeights()),
	}

	var (
		sinks projector.MultiSink
		runID string
	)
	abortSinks := func() {
		if err := sinks.Abort(); err != nil {
			monitoring.Logf("[truthana] abort sinks: %v", err)
		}
	}

	if o.db != "" {
		st, err := store.Open(o.db)
		if err != nil {
			return err
		}
		defer st.Close()
		if runID, err = st.StartRun(string(settings.Variant), cfg.JSON()); err != nil {
			return err
		}
		rs, err := st.NewRowSink(runID)
		if err != nil {
			return err
		}
		sinks = append(sinks, rs)
		opts = append(opts, runner.WithRecorder(st, runID))
		monitoring.Logf("[truthana] recording run %s in %s", runID, o.db)
	}
	if o.parquet != "" {
		ps, err := export.NewParquetSink(fsys, o.parquet, export.DefaultBatchSize)
		if err != nil {
			abortSinks()
			return err
		}
		sinks = append(sinks, ps)
	}
	var hists *plots.HistogramSink
	if o.plotDir != "" {
		if hists, err = plots.NewHistogramSink(fsys, o.plotDir, cfg.GetHistogramBins(), cfg.GetDRBBCut()); err != nil {
			abortSinks()
			return err
		}
		sinks = append(sinks, hists)
	}
	if len(sinks) > 0 {
		opts = append(opts, runner.WithSink(sinks))
	}

	var out *runner.Outcome
	if o.workers > 1 {
		events, err := eventio.ReadAll(reader)
		if err != nil {
			abortSinks()
			return fmt.Errorf("read %s: %w", o.input, err)
		}
		bar := newProgressBar(o.progress, stderr, int64(len(events)))
		opts = append(opts, runner.WithProgress(bar.tick))
		out, err = runner.New(p, opts...).RunSharded(cmd.Context(), events, o.workers)
		bar.finish()
		if err != nil {
			return err
		}
	} else {
		bar := newProgressBar(o.progress, stderr, -1)
		opts = append(opts, runner.WithProgress(bar.tick))
		out, err = runner.New(p, opts...).Run(cmd.Context(), reader)
		bar.finish()
		if err != nil {
			return err
		}
	}

	if hists != nil {
		subtitle := o.input
		if runID != "" {
			subtitle = "run " + runID
		}
		if err := plots.WriteCutflowChart(fsys, o.plotDir, out.Cutflow, subtitle); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "\n%s\n", out.Summary)
	if runID != "" {
		fmt.Fprintf(stdout, "run id: %s\n", runID)
	}
	return nil
}

// progress wraps an optional progress bar.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgressBar(enabled bool, w io.Writer, total int64) *progress {
	if !enabled {
		return &progress{}
	}
	return &progress{bar: progressbar.NewOptions64(total,
		progressbar.OptionSetDescription("events"),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)}
}

func (p *progress) tick() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
