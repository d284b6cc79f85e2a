// Package particlefilter localises an agent on a known landmark map with a
// particle filter: a fixed-size set of weighted pose hypotheses that is moved by
// noisy odometry, weighted against landmark observations and resampled.
//
// A Filter is not safe for concurrent use. The driver owns it for the length of
// a run and reads it through the snapshot accessors between timesteps.
package particlefilter

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"landmarkmcl/landmarkmap"
)

type Filter struct {
	particles   []Particle
	initialized bool

	numParticles     int
	seed             *uint64
	rng              *rand.Rand
	resampler        Resampler
	uniformFallback  bool
	normalized       bool
	rangeGate        bool
	workers          int
	yawRateThreshold float64
	logger           logrus.FieldLogger
}

func New(opts ...Option) (*Filter, error) {
	f := &Filter{
		numParticles:     DefaultNumParticles,
		resampler:        Multinomial,
		workers:          1,
		yawRateThreshold: DefaultYawRateThreshold,
		logger:           logrus.StandardLogger(),
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	seed := rand.Uint64()
	if f.seed != nil {
		seed = *f.seed
	}
	f.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	return f, nil
}

// Init draws the particle set around (x, y, theta) with per-axis standard
// deviations std and gives every particle weight 1.
func (f *Filter) Init(x, y, theta float64, std [3]float64) error {
	if f.initialized {
		return ErrAlreadyInitialized
	}
	if err := checkFinite("initial pose", x, y, theta); err != nil {
		return err
	}
	if err := checkStdDev("init std", std[:]...); err != nil {
		return err
	}

	distX := distuv.Normal{Mu: x, Sigma: std[0], Src: f.rng}
	distY := distuv.Normal{Mu: y, Sigma: std[1], Src: f.rng}
	distTheta := distuv.Normal{Mu: theta, Sigma: std[2], Src: f.rng}

	particles := make([]Particle, f.numParticles)
	for i := range particles {
		particles[i] = Particle{
			ID: i,
			Pose: Pose{
				X:     distX.Rand(),
				Y:     distY.Rand(),
				Theta: distTheta.Rand(),
			},
			Weight: 1,
		}
	}

	f.particles = particles
	f.initialized = true
	return nil
}

// Reset drops the particle set so Init may be called again. The random
// generator keeps its state.
func (f *Filter) Reset() {
	f.particles = nil
	f.initialized = false
}

func (f *Filter) Initialized() bool {
	return f.initialized
}

// Len is the fixed particle count.
func (f *Filter) Len() int {
	return f.numParticles
}

// Predict moves every particle by velocity and yawRate over dt. Gaussian noise
// with standard deviations std is added to each particle's starting pose before
// the motion is applied.
func (f *Filter) Predict(dt float64, std [3]float64, velocity, yawRate float64) error {
	if !f.initialized {
		return ErrNotInitialized
	}
	if err := checkFinite("control", dt, velocity, yawRate); err != nil {
		return err
	}
	if err := checkStdDev("process std", std[:]...); err != nil {
		return err
	}

	noiseX := distuv.Normal{Sigma: std[0], Src: f.rng}
	noiseY := distuv.Normal{Sigma: std[1], Src: f.rng}
	noiseTheta := distuv.Normal{Sigma: std[2], Src: f.rng}

	next := make([]Pose, len(f.particles))
	for i, p := range f.particles {
		start := Pose{
			X:     p.Pose.X + noiseX.Rand(),
			Y:     p.Pose.Y + noiseY.Rand(),
			Theta: p.Pose.Theta + noiseTheta.Rand(),
		}

		next[i] = propagate(start, dt, velocity, yawRate, f.yawRateThreshold)
		if !next[i].finite() {
			return errors.Wrapf(ErrNumeric, "particle %d: %+v", p.ID, next[i])
		}
	}

	for i := range f.particles {
		f.particles[i].Pose = next[i]
	}
	return nil
}

// propagate applies the unicycle model. Yaw rates at or below eps in magnitude
// are treated as straight-line motion.
func propagate(p Pose, dt, velocity, yawRate, eps float64) Pose {
	if math.Abs(yawRate) > eps {
		theta := p.Theta + yawRate*dt
		return Pose{
			X:     p.X + velocity/yawRate*(math.Sin(theta)-math.Sin(p.Theta)),
			Y:     p.Y + velocity/yawRate*(math.Cos(p.Theta)-math.Cos(theta)),
			Theta: theta,
		}
	}

	return Pose{
		X:     p.X + velocity*dt*math.Cos(p.Theta),
		Y:     p.Y + velocity*dt*math.Sin(p.Theta),
		Theta: p.Theta,
	}
}

// Step runs one timestep in the usual order: Predict, UpdateWeights, Resample.
func (f *Filter) Step(ctrl ControlInput, processStd [3]float64, sensorRange float64, measurementStd [2]float64,
	observations []Observation, m *landmarkmap.Map) error {
	if err := f.Predict(ctrl.DeltaT, processStd, ctrl.Velocity, ctrl.YawRate); err != nil {
		return errors.Wrap(err, "predict")
	}
	if err := f.UpdateWeights(sensorRange, measurementStd, observations, m); err != nil {
		return errors.Wrap(err, "update weights")
	}
	if err := f.Resample(); err != nil {
		return errors.Wrap(err, "resample")
	}
	return nil
}

// Particles returns a deep copy of the particle set.
func (f *Filter) Particles() []Particle {
	out := make([]Particle, len(f.particles))
	for i, p := range f.particles {
		out[i] = p.clone()
	}
	return out
}

func (f *Filter) Weights() []float64 {
	w := make([]float64, len(f.particles))
	for i, p := range f.particles {
		w[i] = p.Weight
	}
	return w
}

// Best returns a copy of the highest weighted particle, the first one on ties.
func (f *Filter) Best() (Particle, error) {
	if !f.initialized {
		return Particle{}, ErrNotInitialized
	}
	return f.particles[floats.MaxIdx(f.Weights())].clone(), nil
}

// WeightedMean is the weight-averaged pose. Heading uses the circular mean so
// hypotheses either side of ±π average sensibly. With all weights zero every
// particle counts equally.
func (f *Filter) WeightedMean() (Pose, error) {
	if !f.initialized {
		return Pose{}, ErrNotInitialized
	}

	weights := f.Weights()
	if !(floats.Sum(weights) > 0) {
		weights = nil
	}

	xs := make([]float64, len(f.particles))
	ys := make([]float64, len(f.particles))
	thetas := make([]float64, len(f.particles))
	for i, p := range f.particles {
		xs[i], ys[i], thetas[i] = p.Pose.X, p.Pose.Y, p.Pose.Theta
	}

	return Pose{
		X:     stat.Mean(xs, weights),
		Y:     stat.Mean(ys, weights),
		Theta: stat.CircularMean(thetas, weights),
	}, nil
}
