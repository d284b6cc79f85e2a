// Package config holds the tunables of a localisation run.
package config

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"

	"landmarkmcl/landmarkmap"
	"landmarkmcl/particlefilter"
)

type Config struct {
	NumParticles int    `json:"num_particles"`
	Seed         uint64 `json:"seed"` // 0 picks a random seed

	DeltaT        float64    `json:"delta_t"`
	SensorRange   float64    `json:"sensor_range"`
	SigmaPos      [3]float64 `json:"sigma_pos"`      // x [m], y [m], theta [rad]
	SigmaLandmark [2]float64 `json:"sigma_landmark"` // x [m], y [m]

	Resampler           string  `json:"resampler"`
	UniformFallback     bool    `json:"uniform_fallback"`
	NormalizeLikelihood bool    `json:"normalize_likelihood"`
	RangeGate           bool    `json:"range_gate"`
	YawRateThreshold    float64 `json:"yaw_rate_threshold"` // below it the motion model drives straight
	GridCellSize        float64 `json:"grid_cell_size"`     // 0 searches the map exhaustively
	Workers             int     `json:"workers"`

	MaxTranslationError float64 `json:"max_translation_error"`
	MaxYawError         float64 `json:"max_yaw_error"`
}

func Default() Config {
	return Config{
		NumParticles:        particlefilter.DefaultNumParticles,
		DeltaT:              0.1,
		SensorRange:         50,
		SigmaPos:            [3]float64{0.3, 0.3, 0.01},
		SigmaLandmark:       [2]float64{0.3, 0.3},
		Resampler:           particlefilter.Multinomial.String(),
		YawRateThreshold:    particlefilter.DefaultYawRateThreshold,
		Workers:             1,
		MaxTranslationError: 1,
		MaxYawError:         0.05,
	}
}

// Load reads a JSON file over the defaults. Fields missing from the file keep
// their default value; unknown fields are an error.
func Load(fname string) (Config, error) {
	cfg := Default()

	f, err := os.Open(fname)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to open config %q", fname)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to decode config %q", fname)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.NumParticles <= 0 {
		return errors.Errorf("num_particles must be positive, got %d", c.NumParticles)
	}
	if c.Workers <= 0 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if !positive(c.DeltaT) {
		return errors.Errorf("delta_t must be positive, got %v", c.DeltaT)
	}
	if !(c.SensorRange >= 0) {
		return errors.Errorf("sensor_range must not be negative, got %v", c.SensorRange)
	}
	for i, s := range c.SigmaPos {
		if !(s >= 0) || math.IsInf(s, 0) {
			return errors.Errorf("sigma_pos[%d] must be finite and not negative, got %v", i, s)
		}
	}
	for i, s := range c.SigmaLandmark {
		if !positive(s) {
			return errors.Errorf("sigma_landmark[%d] must be positive, got %v", i, s)
		}
	}
	if !(c.GridCellSize >= 0) || math.IsInf(c.GridCellSize, 0) {
		return errors.Errorf("grid_cell_size must be finite and not negative, got %v", c.GridCellSize)
	}
	if !(c.YawRateThreshold >= 0) || math.IsInf(c.YawRateThreshold, 0) {
		return errors.Errorf("yaw_rate_threshold must be finite and not negative, got %v", c.YawRateThreshold)
	}
	if _, err := particlefilter.ParseResampler(c.Resampler); err != nil {
		return err
	}
	return nil
}

// FilterOptions turns the config into particlefilter options.
func (c Config) FilterOptions() ([]particlefilter.Option, error) {
	resampler, err := particlefilter.ParseResampler(c.Resampler)
	if err != nil {
		return nil, err
	}

	opts := []particlefilter.Option{
		particlefilter.WithNumParticles(c.NumParticles),
		particlefilter.WithResampler(resampler),
		particlefilter.WithWorkers(c.Workers),
		particlefilter.WithYawRateThreshold(c.YawRateThreshold),
	}
	if c.Seed != 0 {
		opts = append(opts, particlefilter.WithSeed(c.Seed))
	}
	if c.UniformFallback {
		opts = append(opts, particlefilter.WithUniformFallback())
	}
	if c.NormalizeLikelihood {
		opts = append(opts, particlefilter.WithNormalizedLikelihood())
	}
	if c.RangeGate {
		opts = append(opts, particlefilter.WithRangeGate())
	}
	return opts, nil
}

// MapOptions returns the landmark map options, a grid index when a cell size is set.
func (c Config) MapOptions() []landmarkmap.Option {
	if c.GridCellSize > 0 {
		return []landmarkmap.Option{landmarkmap.WithGridIndex(c.GridCellSize)}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
