// Package render writes learned tables and performance histories to image
// and HTML artifacts. The learners never depend on it; they hand over
// plain slices and lookup funcs.
//
// Package render は学習結果のテーブルや履歴を画像・HTMLとして出力します。
package render

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	ErrNoCurves  = errors.New("曲線が空です")
	ErrEmptyGrid = errors.New("グリッドが空です")
)

// Curve is one named series, plotted against the step index.
type Curve struct {
	Name string
	Ys   []float64
}

// CurvePNG renders the curves as lines and saves a PNG to path.
func CurvePNG(path, title, xLabel, yLabel string, curves ...Curve) error {
	if len(curves) == 0 {
		return ErrNoCurves
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	for _, c := range curves {
		pts := make(plotter.XYs, len(c.Ys))
		for i, y := range c.Ys {
			pts[i].X = float64(i)
			pts[i].Y = y
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("曲線 %q の生成に失敗しました: %w", c.Name, err)
		}
		p.Add(line)
		p.Legend.Add(c.Name, line)
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
