package particlefilter

import (
	"math"
	"strconv"
	"strings"
)

// Pose is a position and heading in the map frame. Theta is in radians and is
// not wrapped between operations.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// Advance moves p by the noise-free motion model.
func (p Pose) Advance(dt, velocity, yawRate float64) Pose {
	return propagate(p, dt, velocity, yawRate, DefaultYawRateThreshold)
}

func (p Pose) finite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Theta)
}

// Particle is one pose hypothesis. Associations, SenseX and SenseY record the
// landmark picked for each observation of the last weighting pass and where that
// observation landed in the map frame.
type Particle struct {
	ID     int     `json:"id"`
	Pose   Pose    `json:"pose"`
	Weight float64 `json:"weight"`

	Associations []int     `json:"associations,omitempty"`
	SenseX       []float64 `json:"sense_x,omitempty"`
	SenseY       []float64 `json:"sense_y,omitempty"`
}

func (p Particle) clone() Particle {
	p.Associations = append([]int(nil), p.Associations...)
	p.SenseX = append([]float64(nil), p.SenseX...)
	p.SenseY = append([]float64(nil), p.SenseY...)
	return p
}

// AssociationsString joins the associated landmark IDs with single spaces.
func (p Particle) AssociationsString() string {
	parts := make([]string, len(p.Associations))
	for i, id := range p.Associations {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

func (p Particle) SenseXString() string {
	return joinFloats(p.SenseX)
}

func (p Particle) SenseYString() string {
	return joinFloats(p.SenseY)
}

// joinFloats prints single precision values with six significant digits.
func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(float64(float32(v)), 'g', 6, 32)
	}
	return strings.Join(parts, " ")
}

// Observation is a landmark detection relative to the sensor: X ahead, Y to the left.
// ID is carried through from the sensor and is not used for association.
type Observation struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// ControlInput is one timestep of commanded motion.
type ControlInput struct {
	DeltaT   float64 `json:"delta_t"`
	Velocity float64 `json:"velocity"`
	YawRate  float64 `json:"yaw_rate"`
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
