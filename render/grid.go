package render

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// CurvesHTML renders the curves as an interactive line chart.
func CurvesHTML(path, title string, curves ...Curve) error {
	if len(curves) == 0 {
		return ErrNoCurves
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
	)

	steps := 0
	for _, c := range curves {
		if len(c.Ys) > steps {
			steps = len(c.Ys)
		}
	}

	xs := make([]string, steps)
	for i := range xs {
		xs[i] = fmt.Sprintf("%d", i)
	}
	line.SetXAxis(xs)

	for _, c := range curves {
		items := make([]opts.LineData, len(c.Ys))
		for i, y := range c.Ys {
			items[i] = opts.LineData{Value: y}
		}
		line.AddSeries(c.Name, items)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return line.Render(f)
}

// ValueGridHTML renders a rows×cols value table as a heatmap. value is
// looked up per cell; row 0 is drawn at the top.
func ValueGridHTML(path, title string, rows, cols int, value func(row, col int) float64) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyGrid, rows, cols)
	}

	min := value(0, 0)
	max := min
	data := make([]opts.HeatMapData, 0, rows*cols)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			v := value(row, col)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
			// ヒートマップのy軸は下から上へ向かう為、行を反転する。
			data = append(data, opts.HeatMapData{Value: [3]interface{}{col, rows - 1 - row, v}})
		}
	}

	xs := make([]string, cols)
	for col := range xs {
		xs[col] = fmt.Sprintf("%d", col)
	}

	ys := make([]string, rows)
	for row := range ys {
		ys[row] = fmt.Sprintf("%d", rows-1-row)
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xs}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(min),
			Max:        float32(max),
		}),
	)
	hm.SetXAxis(xs).AddSeries("value", data)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return hm.Render(f)
}
