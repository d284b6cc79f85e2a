package dataset

import (
	"math"

	"landmarkmcl/landmarkmap"
	"landmarkmcl/particlefilter"
)

// Control is a commanded velocity and yaw rate held for one timestep.
type Control struct {
	Velocity float64
	YawRate  float64
}

// Simulate drives a noise-free vehicle from start through controls on m and
// records what it sees. Step i holds the pose before controls[i] is applied and
// every landmark within sensorRange of that pose, in the vehicle frame and in
// map order.
func Simulate(m *landmarkmap.Map, start particlefilter.Pose, dt, sensorRange float64, controls []Control) *Dataset {
	d := &Dataset{Map: m, Steps: make([]Step, len(controls))}

	pose := start
	for i, c := range controls {
		d.Steps[i] = Step{
			Index:        i,
			Velocity:     c.Velocity,
			YawRate:      c.YawRate,
			Observations: Observe(m, pose, sensorRange),
			GroundTruth:  pose,
		}
		pose = pose.Advance(dt, c.Velocity, c.YawRate)
	}
	return d
}

// Observe returns the landmarks within sensorRange of pose as the vehicle sees
// them: X ahead, Y to the left. Observation IDs number the returned slice, the
// same as a loaded observation file, so the landmark behind each one is not given
// away.
func Observe(m *landmarkmap.Map, pose particlefilter.Pose, sensorRange float64) []particlefilter.Observation {
	visible := m.Within(pose.X, pose.Y, sensorRange)

	cosT, sinT := math.Cos(pose.Theta), math.Sin(pose.Theta)
	obs := make([]particlefilter.Observation, len(visible))
	for i, l := range visible {
		dx, dy := l.X-pose.X, l.Y-pose.Y
		obs[i] = particlefilter.Observation{
			ID: i,
			X:  cosT*dx + sinT*dy,
			Y:  -sinT*dx + cosT*dy,
		}
	}
	return obs
}
