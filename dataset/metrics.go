package dataset

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"landmarkmcl/landmarkmap"
	"landmarkmcl/particlefilter"
)

// PoseError is how far an estimate is from ground truth: Euclidean distance in
// the plane and the absolute heading difference wrapped to [0, π].
type PoseError struct {
	Translation float64
	Yaw         float64
}

func ComputeError(estimate, truth particlefilter.Pose) PoseError {
	return PoseError{
		Translation: math.Hypot(estimate.X-truth.X, estimate.Y-truth.Y),
		Yaw:         math.Abs(landmarkmap.NormalizeAngle(estimate.Theta - truth.Theta)),
	}
}

// Summary accumulates per-step errors over a run.
type Summary struct {
	translation []float64
	yaw         []float64
}

func (s *Summary) Add(e PoseError) {
	s.translation = append(s.translation, e.Translation)
	s.yaw = append(s.yaw, e.Yaw)
}

func (s *Summary) Len() int {
	return len(s.translation)
}

// Stats are the aggregate errors of a Summary. All fields are zero for an
// empty summary.
type Stats struct {
	Steps           int
	MeanTranslation float64
	MeanYaw         float64
	MaxTranslation  float64
	MaxYaw          float64
	RMSTranslation  float64
	RMSYaw          float64
}

func (s *Summary) Stats() Stats {
	if s.Len() == 0 {
		return Stats{}
	}
	return Stats{
		Steps:           s.Len(),
		MeanTranslation: stat.Mean(s.translation, nil),
		MeanYaw:         stat.Mean(s.yaw, nil),
		MaxTranslation:  floats.Max(s.translation),
		MaxYaw:          floats.Max(s.yaw),
		RMSTranslation:  rms(s.translation),
		RMSYaw:          rms(s.yaw),
	}
}

// Within reports whether the mean errors are inside the given limits.
func (st Stats) Within(maxTranslation, maxYaw float64) bool {
	return st.MeanTranslation <= maxTranslation && st.MeanYaw <= maxYaw
}

func rms(xs []float64) float64 {
	return math.Sqrt(floats.Dot(xs, xs) / float64(len(xs)))
}
