// Package density renders entropy and variance histograms of in and out of
// distribution inputs.
package density

import "fmt"
import "image/color"
import "os"
import "path/filepath"

import "github.com/pkg/errors"
import "gonum.org/v1/plot"
import "gonum.org/v1/plot/plotter"
import "gonum.org/v1/plot/vg"

import "github.com/neurlang/hypernetwork/uncertainty"

// Plotter writes <prefix>/ens<size>/{entropy,variance}_<epoch>.png.
type Plotter struct {
	Bins   int
	Width  vg.Length
	Height vg.Length
}

// New returns a Plotter with 50 bins on a 6×4 inch canvas.
func New() *Plotter {
	return &Plotter{Bins: 50, Width: 6 * vg.Inch, Height: 4 * vg.Inch}
}

var inColor = color.RGBA{R: 31, G: 119, B: 180, A: 160}
var outColor = color.RGBA{R: 255, G: 127, B: 14, A: 160}

// Plot renders both histograms for one ensemble size and epoch.
func (d *Plotter) Plot(in, out uncertainty.Stats, ensSize int, prefix string, epoch int) error {
	dir := filepath.Join(prefix, fmt.Sprintf("ens%d", ensSize))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "density: creating %s", dir)
	}
	err := d.save(in.Entropy, out.Entropy, "entropy", filepath.Join(dir, fmt.Sprintf("entropy_%d.png", epoch)))
	if err != nil {
		return err
	}
	return d.save(in.Variance, out.Variance, "variance", filepath.Join(dir, fmt.Sprintf("variance_%d.png", epoch)))
}

func (d *Plotter) save(in, out []float64, label, path string) error {
	p := plot.New()
	p.Title.Text = label
	p.X.Label.Text = label
	p.Y.Label.Text = "density"
	for _, s := range []struct {
		name   string
		values []float64
		color  color.Color
	}{{"inliers", in, inColor}, {"outliers", out, outColor}} {
		if len(s.values) == 0 {
			continue
		}
		h, err := plotter.NewHist(plotter.Values(s.values), d.Bins)
		if err != nil {
			return errors.Wrapf(err, "density: %s %s", label, s.name)
		}
		h.Normalize(1)
		h.FillColor = s.color
		h.LineStyle.Width = 0
		p.Add(h)
		p.Legend.Add(s.name, h)
	}
	if err := p.Save(d.Width, d.Height, path); err != nil {
		return errors.Wrapf(err, "density: saving %s", path)
	}
	return nil
}
