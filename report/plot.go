package report

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/imc-lab/goimc/pkg/errors"
)

// PlotSeries renders one diagnostic curve as a line plot over iterations.
func PlotSeries(s Series) (*plot.Plot, error) {
	if len(s.Values) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "PlotSeries: empty series")
	}

	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = s.Unit

	pts := make(plotter.XYs, len(s.Values))
	for i, v := range s.Values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "PlotSeries")
	}
	line.Color = color.RGBA{R: 0xcc, A: 0xff}
	line.Width = vg.Points(2)
	p.Add(plotter.NewGrid(), line)

	return p, nil
}

// SaveCurves writes one image per series into dir, named after the series
// title. format selects the image encoder by extension ("png", "svg", ...);
// empty means png. The directory is created when missing.
func SaveCurves(series []Series, dir, format string) ([]string, error) {
	if len(series) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "SaveCurves: no series")
	}
	if format == "" {
		format = "png"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "SaveCurves")
	}

	paths := make([]string, 0, len(series))
	for _, s := range series {
		p, err := PlotSeries(s)
		if err != nil {
			return nil, err
		}

		name := strings.ToLower(strings.ReplaceAll(s.Title, " ", "_")) + "." + format
		path := filepath.Join(dir, name)
		if err := p.Save(5*vg.Inch, 4*vg.Inch, path); err != nil {
			return nil, errors.Wrapf(err, "SaveCurves: %s", name)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// factorGrid adapts a factor matrix to plotter's heatmap grid, row 0 on
// top. Two columns follow the coefficients: a separator pinned to the
// matrix minimum and a row-activity indicator (maximum where the row has a
// nonzero norm, minimum elsewhere), so rows zeroed out by sparsity
// regularization stand out as dark bands.
type factorGrid struct {
	m        *mat.Dense
	min, max float64
}

func newFactorGrid(m *mat.Dense) factorGrid {
	return factorGrid{m: m, min: mat.Min(m), max: mat.Max(m)}
}

func (g factorGrid) Dims() (int, int) {
	d, k := g.m.Dims()
	return k + 2, d
}

func (g factorGrid) X(c int) float64 { return float64(c) }
func (g factorGrid) Y(r int) float64 { return float64(r) }

func (g factorGrid) Z(c, r int) float64 {
	d, k := g.m.Dims()
	row := d - 1 - r
	switch {
	case c < k:
		return g.m.At(row, c)
	case c == k:
		return g.min
	default:
		if floats.Norm(g.m.RawRowView(row), 2) > 0 {
			return g.max
		}
		return g.min
	}
}

// PlotFactorHeatmap renders a factor matrix as a heatmap, one cell per
// coefficient plus a trailing column marking the active rows.
func PlotFactorHeatmap(title string, f *mat.Dense) (*plot.Plot, error) {
	if f == nil {
		return nil, errors.NewValueError("PlotFactorHeatmap", "factor must not be nil")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Tick.Marker = plot.ConstantTicks{}
	p.Y.Label.Text = "row"
	p.Add(plotter.NewHeatMap(newFactorGrid(f), palette.Heat(12, 1)))
	return p, nil
}

// SaveFactorHeatmaps writes heatmaps of both factors into dir, alongside
// the curve images from SaveCurves.
func SaveFactorHeatmaps(w, h *mat.Dense, dir, format string) ([]string, error) {
	if format == "" {
		format = "png"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "SaveFactorHeatmaps")
	}

	factors := []struct {
		title string
		file  string
		m     *mat.Dense
	}{
		{"W", "factor_w", w},
		{"H", "factor_h", h},
	}

	paths := make([]string, 0, len(factors))
	for _, f := range factors {
		p, err := PlotFactorHeatmap(f.title, f.m)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, f.file+"."+format)
		if err := p.Save(5*vg.Inch, 4*vg.Inch, path); err != nil {
			return nil, errors.Wrapf(err, "SaveFactorHeatmaps: %s", f.file)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
