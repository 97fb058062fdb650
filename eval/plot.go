package eval

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/ensego/pkg/errors"
)

// PlotOOBCurve writes the out-of-bag error curve as a line plot.
func PlotOOBCurve(res *OOBResult, path string) error {
	p := plot.New()
	p.Title.Text = "OOB error vs ensemble size"
	p.X.Label.Text = "n_estimators"
	p.Y.Label.Text = "OOB error"

	pts := make(plotter.XYs, len(res.Sizes))
	for i, size := range res.Sizes {
		pts[i].X = float64(size)
		pts[i].Y = res.Errors[i]
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return errors.Wrap(err, "plot oob curve")
	}
	p.Add(line, points)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

// PlotROCCurves writes one ROC curve per compared model, plus the chance
// diagonal.
func PlotROCCurves(res *CompareResult, path string) error {
	p := plot.New()
	p.Title.Text = "ROC curves"
	p.X.Label.Text = "false positive rate"
	p.Y.Label.Text = "true positive rate"
	p.Legend.Top = false

	diagonal, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.Wrap(err, "plot roc curves")
	}
	diagonal.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diagonal)

	for i, m := range res.Models {
		if len(m.ROC) == 0 || math.IsNaN(m.AUC) {
			continue
		}
		pts := make(plotter.XYs, len(m.ROC))
		for j, pt := range m.ROC {
			pts[j].X = pt.FPR
			pts[j].Y = pt.TPR
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrap(err, "plot roc curves")
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(m.Name, line)
	}

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
