package particlefilter

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"landmarkmcl/landmarkmap"
)

type weighting struct {
	weight       float64
	associations []int
	senseX       []float64
	senseY       []float64
}

// UpdateWeights scores every particle against the observations. Each observation
// is moved into the map frame using the particle's pose, associated with the
// nearest landmark, and the particle's weight becomes the product of
//
//	exp(-(dx²/(2σx²) + dy²/(2σy²)))
//
// over all observations, where (dx, dy) is the offset to the associated landmark.
// With no observations weights are left as they are.
//
// sensorRange is only consulted when the filter was built WithRangeGate.
func (f *Filter) UpdateWeights(sensorRange float64, std [2]float64, observations []Observation, m *landmarkmap.Map) error {
	if !f.initialized {
		return ErrNotInitialized
	}
	if math.IsNaN(sensorRange) || sensorRange < 0 {
		return errors.Wrapf(ErrInvalidArgument, "sensor range %v", sensorRange)
	}
	if err := checkPositive("measurement std", std[:]...); err != nil {
		return err
	}
	for i, o := range observations {
		if err := checkFinite("observation", o.X, o.Y); err != nil {
			return errors.Wrapf(err, "observation %d", i)
		}
	}

	if len(observations) == 0 {
		for i := range f.particles {
			f.particles[i].Associations = nil
			f.particles[i].SenseX = nil
			f.particles[i].SenseY = nil
		}
		return nil
	}
	if m.Len() == 0 {
		return landmarkmap.ErrEmptyMap
	}

	results := make([]weighting, len(f.particles))
	weigh := func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			r, err := f.weigh(f.particles[i].Pose, sensorRange, std, observations, m)
			if err != nil {
				return errors.Wrapf(err, "particle %d", f.particles[i].ID)
			}
			results[i] = r
		}
		return nil
	}

	if f.workers <= 1 {
		if err := weigh(0, len(results)); err != nil {
			return err
		}
	} else {
		var g errgroup.Group
		chunk := (len(results) + f.workers - 1) / f.workers
		for lo := 0; lo < len(results); lo += chunk {
			hi := min(lo+chunk, len(results))
			g.Go(func() error { return weigh(lo, hi) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for i, r := range results {
		p := &f.particles[i]
		p.Weight = r.weight
		p.Associations = r.associations
		p.SenseX = r.senseX
		p.SenseY = r.senseY
	}
	return nil
}

func (f *Filter) weigh(pose Pose, sensorRange float64, std [2]float64, observations []Observation, m *landmarkmap.Map) (weighting, error) {
	r := weighting{
		weight:       1,
		associations: make([]int, 0, len(observations)),
		senseX:       make([]float64, 0, len(observations)),
		senseY:       make([]float64, 0, len(observations)),
	}

	var candidates []landmarkmap.Landmark
	if f.rangeGate {
		candidates = m.Within(pose.X, pose.Y, sensorRange)
	}

	cosT, sinT := math.Cos(pose.Theta), math.Sin(pose.Theta)
	for _, o := range observations {
		mapX := pose.X + cosT*o.X - sinT*o.Y
		mapY := pose.Y + sinT*o.X + cosT*o.Y

		landmark, _, ok := landmarkmap.NearestOf(candidates, mapX, mapY)
		if !ok {
			var err error
			if landmark, _, err = m.Nearest(mapX, mapY); err != nil {
				return weighting{}, err
			}
		}

		r.weight *= f.likelihood(mapX-landmark.X, mapY-landmark.Y, std)
		r.associations = append(r.associations, landmark.ID)
		r.senseX = append(r.senseX, mapX)
		r.senseY = append(r.senseY, mapY)
	}

	if !(r.weight >= 0) {
		return weighting{}, errors.Wrapf(ErrNumeric, "weight %v", r.weight)
	}
	return r, nil
}

func (f *Filter) likelihood(dx, dy float64, std [2]float64) float64 {
	l := math.Exp(-(dx*dx/(2*std[0]*std[0]) + dy*dy/(2*std[1]*std[1])))
	if f.normalized {
		l /= 2 * math.Pi * std[0] * std[1]
	}
	return l
}
