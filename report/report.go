// Package report draws the trajectory of a localisation run.
package report

import (
	"image/color"
	"io"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"landmarkmcl/landmarkmap"
	"landmarkmcl/particlefilter"
)

const (
	width  = 8 * vg.Inch
	height = 8 * vg.Inch
)

var (
	landmarkColor = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	truthColor    = color.RGBA{G: 140, B: 60, A: 255}
	estimateColor = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	particleColor = color.RGBA{B: 200, A: 90}
)

// Trajectory collects what a run produced, one pose per timestep.
type Trajectory struct {
	Landmarks   []landmarkmap.Landmark
	GroundTruth []particlefilter.Pose
	Estimates   []particlefilter.Pose
	// Particles is the final particle set.
	Particles []particlefilter.Particle
}

func (tr *Trajectory) Add(truth, estimate particlefilter.Pose) {
	tr.GroundTruth = append(tr.GroundTruth, truth)
	tr.Estimates = append(tr.Estimates, estimate)
}

// Plot lays the landmarks, the ground truth path, the estimated path and the
// final particle cloud over each other in the map frame.
func (tr *Trajectory) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Landmark Monte Carlo Localisation"
	p.X.Label.Text = "X [m]"
	p.Y.Label.Text = "Y [m]"
	p.Add(plotter.NewGrid())

	if len(tr.Landmarks) > 0 {
		pts := make(plotter.XYs, len(tr.Landmarks))
		for i, l := range tr.Landmarks {
			pts[i].X, pts[i].Y = l.X, l.Y
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, errors.Wrap(err, "landmarks")
		}
		s.GlyphStyle.Color = landmarkColor
		s.GlyphStyle.Shape = draw.BoxGlyph{}
		p.Add(s)
		p.Legend.Add("landmarks", s)
	}

	if len(tr.Particles) > 0 {
		pts := make(plotter.XYs, len(tr.Particles))
		for i, pt := range tr.Particles {
			pts[i].X, pts[i].Y = pt.Pose.X, pt.Pose.Y
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, errors.Wrap(err, "particles")
		}
		s.GlyphStyle.Color = particleColor
		s.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(s)
		p.Legend.Add("particles", s)
	}

	for _, path := range []struct {
		name  string
		poses []particlefilter.Pose
		color color.Color
	}{
		{"ground truth", tr.GroundTruth, truthColor},
		{"estimate", tr.Estimates, estimateColor},
	} {
		if len(path.poses) == 0 {
			continue
		}
		line, err := plotter.NewLine(posesXY(path.poses))
		if err != nil {
			return nil, errors.Wrap(err, path.name)
		}
		line.Color = path.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(path.name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// Save writes the plot to fname. The extension picks the image format.
func (tr *Trajectory) Save(fname string) error {
	p, err := tr.Plot()
	if err != nil {
		return err
	}
	return errors.Wrapf(p.Save(width, height, fname), "failed to save plot %q", fname)
}

// Encode writes the plot to w in format, e.g. "png" or "svg".
func (tr *Trajectory) Encode(w io.Writer, format string) error {
	p, err := tr.Plot()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return errors.Wrapf(err, "plot format %q", format)
	}
	_, err = wt.WriteTo(w)
	return err
}

func posesXY(poses []particlefilter.Pose) plotter.XYs {
	pts := make(plotter.XYs, len(poses))
	for i, pose := range poses {
		pts[i].X, pts[i].Y = pose.X, pose.Y
	}
	return pts
}
