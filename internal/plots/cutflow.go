package plots

import (
	"fmt"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/truthana/internal/cutflow"
	"github.com/banshee-data/truthana/internal/fsutil"
)

// CutflowFile is the chart file name written by WriteCutflowChart.
const CutflowFile = "cutflow.html"

// CutflowChart builds a bar chart of the cumulative stage weights.
func CutflowChart(cf *cutflow.Cutflow, subtitle string) *charts.Bar {
	effs := cf.Efficiencies()
	names := make([]string, len(effs))
	sums := make([]opts.BarData, len(effs))
	for i, e := range effs {
		names[i] = e.Name
		tip := fmt.Sprintf("%s: %.6g", e.Name, e.Sum)
		if e.HasRelative() {
			tip += fmt.Sprintf(" (%.2f%% of previous)", 100*e.Relative)
		}
		sums[i] = opts.BarData{Value: e.Sum, Name: tip}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Cutflow", Width: "100%", Height: "640px"}),
		charts.WithTitleOpts(opts.Title{Title: "Cutflow", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: 30}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Sum of weights"}),
	)
	bar.SetXAxis(names).AddSeries("sum of weights", sums,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}

// WriteCutflowChart renders the chart into dir/cutflow.html.
func WriteCutflowChart(fsys fsutil.FileSystem, dir string, cf *cutflow.Cutflow, subtitle string) error {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create plot dir: %w", err)
	}
	path := filepath.Join(dir, CutflowFile)
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := CutflowChart(cf, subtitle).Render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render cutflow chart: %w", err)
	}
	return f.Close()
}
