package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"landmarkmcl/particlefilter"
)

func TestComputeError(t *testing.T) {
	tests := []struct {
		name      string
		est, gt   particlefilter.Pose
		wantTrans float64
		wantYaw   float64
	}{
		{"exact", particlefilter.Pose{X: 1, Y: 2, Theta: 0.5}, particlefilter.Pose{X: 1, Y: 2, Theta: 0.5}, 0, 0},
		{"offset", particlefilter.Pose{X: 3, Y: 4}, particlefilter.Pose{}, 5, 0},
		{"yaw sign", particlefilter.Pose{Theta: -0.2}, particlefilter.Pose{Theta: 0.1}, 0, 0.3},
		{"yaw wraps", particlefilter.Pose{Theta: math.Pi - 0.05}, particlefilter.Pose{Theta: -math.Pi + 0.05}, 0, 0.1},
		{"full turns", particlefilter.Pose{Theta: 4*math.Pi + 0.01}, particlefilter.Pose{}, 0, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ComputeError(tt.est, tt.gt)
			assert.InDelta(t, tt.wantTrans, e.Translation, 1e-9)
			assert.InDelta(t, tt.wantYaw, e.Yaw, 1e-9)
		})
	}
}

func TestSummary(t *testing.T) {
	var s Summary
	assert.Equal(t, Stats{}, s.Stats())

	s.Add(PoseError{Translation: 1, Yaw: 0.1})
	s.Add(PoseError{Translation: 3, Yaw: 0.3})
	s.Add(PoseError{Translation: 2, Yaw: 0.2})

	st := s.Stats()
	assert.Equal(t, 3, st.Steps)
	assert.InDelta(t, 2, st.MeanTranslation, 1e-12)
	assert.InDelta(t, 0.2, st.MeanYaw, 1e-12)
	assert.Equal(t, 3.0, st.MaxTranslation)
	assert.Equal(t, 0.3, st.MaxYaw)
	assert.InDelta(t, math.Sqrt(14.0/3), st.RMSTranslation, 1e-12)
	assert.InDelta(t, math.Sqrt(0.14/3), st.RMSYaw, 1e-12)

	assert.True(t, st.Within(2, 0.21))
	assert.False(t, st.Within(1.9, 0.21))
	assert.False(t, st.Within(2, 0.1))
}
