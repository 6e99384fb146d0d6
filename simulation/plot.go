package simulation

import (
	"fmt"
	"image/color"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	scannerColor = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	truthColor   = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	fixColor     = color.RGBA{R: 30, G: 90, B: 200, A: 120}
	errorColor   = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// Plot draws the scanners, ground-truth points and fixes of the report in metres
// and saves the figure to path. The format follows the file extension.
func (r *Report) Plot(path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: mean error %.3f m", r.Installation.ID, r.MeanError)
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(plotter.NewGrid())

	scanners := make(plotter.XYs, 0, len(r.Installation.Scanners))
	for _, s := range r.Installation.Scanners {
		scanners = append(scanners, plotter.XY{X: metres(s.Position.X), Y: metres(s.Position.Y)})
	}
	truths := make(plotter.XYs, 0, len(r.Results))
	var fixes plotter.XYs
	for _, res := range r.Results {
		truth := plotter.XY{X: metres(res.Truth.X), Y: metres(res.Truth.Y)}
		truths = append(truths, truth)
		for _, pos := range res.Positions {
			fixes = append(fixes, plotter.XY{X: metres(pos.X), Y: metres(pos.Y)})
		}
		if len(res.Positions) == 0 {
			continue
		}
		// Segment from the truth to the mean fix.
		var mx, my float64
		for _, pos := range res.Positions {
			mx += metres(pos.X)
			my += metres(pos.Y)
		}
		n := float64(len(res.Positions))
		seg, err := plotter.NewLine(plotter.XYs{truth, {X: mx / n, Y: my / n}})
		if err != nil {
			return errors.Wrap(err, "error segment")
		}
		seg.Color = errorColor
		seg.Width = vg.Points(1)
		p.Add(seg)
	}

	layers := []struct {
		name  string
		xys   plotter.XYs
		color color.Color
		shape draw.GlyphDrawer
		size  vg.Length
	}{
		{"fixes", fixes, fixColor, draw.CircleGlyph{}, vg.Points(2)},
		{"truth", truths, truthColor, draw.CrossGlyph{}, vg.Points(5)},
		{"scanners", scanners, scannerColor, draw.BoxGlyph{}, vg.Points(5)},
	}
	for _, l := range layers {
		if len(l.xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(l.xys)
		if err != nil {
			return errors.Wrapf(err, "%s scatter", l.name)
		}
		sc.GlyphStyle.Color = l.color
		sc.GlyphStyle.Shape = l.shape
		sc.GlyphStyle.Radius = l.size
		p.Add(sc)
		p.Legend.Add(l.name, sc)
	}
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}

func metres(mm int) float64 {
	return float64(mm) / mmPerMetre
}
