package main

import (
	"context"
	"math/rand/v2"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"

	"landmarkmcl/config"
	"landmarkmcl/dataset"
	"landmarkmcl/particlefilter"
	"landmarkmcl/report"
)

// replay feeds a recorded run through a particle filter. The filter starts from
// the first ground truth pose blurred by sigma_pos. Every observation is blurred
// by sigma_landmark before it reaches the filter. Each step is scored by the
// best particle against ground truth.
func replay(ctx context.Context, logger logrus.FieldLogger, d *dataset.Dataset, cfg config.Config) (dataset.Stats, *report.Trajectory, error) {
	if len(d.Steps) == 0 {
		return dataset.Stats{}, nil, dataset.ErrNoSteps
	}

	opts, err := cfg.FilterOptions()
	if err != nil {
		return dataset.Stats{}, nil, err
	}
	pf, err := particlefilter.New(append(opts, particlefilter.WithLogger(logger))...)
	if err != nil {
		return dataset.Stats{}, nil, errors.Wrap(err, "failed to create filter")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	// separate stream so sensor noise does not shift the filter's draws
	rng := rand.New(rand.NewPCG(seed, ^seed))
	noise := func(sigma float64) distuv.Normal {
		return distuv.Normal{Sigma: sigma, Src: rng}
	}
	posX, posY, posTheta := noise(cfg.SigmaPos[0]), noise(cfg.SigmaPos[1]), noise(cfg.SigmaPos[2])
	obsX, obsY := noise(cfg.SigmaLandmark[0]), noise(cfg.SigmaLandmark[1])

	var summary dataset.Summary
	tr := &report.Trajectory{Landmarks: d.Map.Landmarks()}

	for i, step := range d.Steps {
		if err := ctx.Err(); err != nil {
			return summary.Stats(), tr, err
		}

		if !pf.Initialized() {
			gt := step.GroundTruth
			err = pf.Init(gt.X+posX.Rand(), gt.Y+posY.Rand(), gt.Theta+posTheta.Rand(), cfg.SigmaPos)
		} else {
			prev := d.Steps[i-1]
			err = pf.Predict(cfg.DeltaT, cfg.SigmaPos, prev.Velocity, prev.YawRate)
		}
		if err != nil {
			return summary.Stats(), tr, errors.Wrapf(err, "step %d", i)
		}

		observations := make([]particlefilter.Observation, len(step.Observations))
		for j, o := range step.Observations {
			observations[j] = particlefilter.Observation{ID: o.ID, X: o.X + obsX.Rand(), Y: o.Y + obsY.Rand()}
		}

		if err := pf.UpdateWeights(cfg.SensorRange, cfg.SigmaLandmark, observations, d.Map); err != nil {
			return summary.Stats(), tr, errors.Wrapf(err, "step %d: update weights", i)
		}
		if err := pf.Resample(); err != nil {
			return summary.Stats(), tr, errors.Wrapf(err, "step %d: resample", i)
		}

		best, err := pf.Best()
		if err != nil {
			return summary.Stats(), tr, errors.Wrapf(err, "step %d", i)
		}
		e := dataset.ComputeError(best.Pose, step.GroundTruth)
		summary.Add(e)
		tr.Add(step.GroundTruth, best.Pose)

		logger.WithFields(logrus.Fields{
			"step":              i,
			"observations":      len(observations),
			"weight":            best.Weight,
			"error_translation": e.Translation,
			"error_yaw":         e.Yaw,
			"associations":      best.AssociationsString(),
		}).Debug("step done")
	}

	tr.Particles = pf.Particles()
	return summary.Stats(), tr, nil
}
