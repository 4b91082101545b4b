package report

import (
	"fmt"
	"os"
	"path/filepath"

	"assetmatrix/internal/metrics"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	chartWidthPx  = 1200
	chartHeightPx = 520

	colorBull = "#34d399"
	colorBear = "#f87171"
)

// WriteChartHTML 把排名柱状图与 Sharpe/Return 散点图渲染为单页 HTML。
func WriteChartHTML(s Summary, path string) error {
	if !s.HasMetrics() {
		return fmt.Errorf("没有带指标的成功结果，无法绘图")
	}
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.PageTitle = fmt.Sprintf("%s multi-asset ranking", s.Strategy)
	page.AddCharts(buildRankingBar(s), buildSharpeReturnScatter(s))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建图表文件失败: %w", err)
	}
	defer f.Close()
	return page.Render(f)
}

func buildRankingBar(s Summary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", chartHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s - Sharpe by asset", s.Strategy), Left: "left"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	xAxis := make([]string, 0, len(s.Ranked))
	bars := make([]opts.BarData, 0, len(s.Ranked))
	for _, r := range s.Ranked {
		sharpe, _ := r.Sharpe()
		color := colorBull
		if sharpe < 0 {
			color = colorBear
		}
		xAxis = append(xAxis, r.Asset)
		bars = append(bars, opts.BarData{
			Value:     sharpe,
			ItemStyle: &opts.ItemStyle{Color: color, Opacity: opts.Float(0.8)},
		})
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("Sharpe", bars)
	return bar
}

func buildSharpeReturnScatter(s Summary) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", chartHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: "Sharpe vs Return%", Left: "left"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Sharpe", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Return%", Type: "value"}),
	)
	points := make([]opts.ScatterData, 0, len(s.Ranked))
	for _, r := range s.Ranked {
		sharpe, _ := r.Sharpe()
		ret, ok := r.Metrics[metrics.MetricReturn]
		if !ok {
			continue
		}
		points = append(points, opts.ScatterData{
			Name:       r.Asset,
			Value:      []any{sharpe, ret},
			SymbolSize: 12,
		})
	}
	scatter.AddSeries("assets", points)
	return scatter
}
