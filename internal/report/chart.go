package report

import (
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"quantsignal/internal/analysis/indicator"
	"quantsignal/internal/analysis/pivot"
	"quantsignal/internal/market"
)

// RenderChart writes an HTML candlestick chart with the VWAP overlay and
// detected levels as horizontal marks.
func RenderChart(w io.Writer, symbol string, bars []market.Bar, set indicator.Set, levels pivot.Levels) error {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: symbol}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	x := make([]string, 0, len(bars))
	candles := make([]opts.KlineData, 0, len(bars))
	for _, b := range bars {
		x = append(x, time.UnixMilli(b.OpenTime).UTC().Format("01-02 15:04"))
		candles = append(candles, opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}})
	}
	kline.SetXAxis(x).AddSeries("price", candles)

	if set.VWAPAvailable() && len(set.VWAP) == len(bars) {
		vwap := make([]opts.LineData, 0, len(set.VWAP))
		for _, v := range set.VWAP {
			vwap = append(vwap, opts.LineData{Value: v})
		}
		line := charts.NewLine()
		line.SetXAxis(x).AddSeries("vwap", vwap)
		kline.Overlap(line)
	}

	marks := make([]charts.SeriesOpts, 0, len(levels.Supports)+len(levels.Resistances))
	for _, s := range levels.Supports {
		marks = append(marks, charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: "support", YAxis: s}))
	}
	for _, r := range levels.Resistances {
		marks = append(marks, charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: "resistance", YAxis: r}))
	}
	if len(marks) > 0 {
		levelLine := charts.NewLine()
		levelLine.SetXAxis(x).AddSeries("levels", []opts.LineData{}, marks...)
		kline.Overlap(levelLine)
	}

	return kline.Render(w)
}
