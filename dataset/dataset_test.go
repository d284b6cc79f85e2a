package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landmarkmcl/landmarkmap"
	"landmarkmcl/particlefilter"
)

func testMap(t *testing.T) *landmarkmap.Map {
	t.Helper()
	m, err := landmarkmap.New([]landmarkmap.Landmark{
		{ID: 1, X: 5, Y: 2},
		{ID: 2, X: 12, Y: -3},
		{ID: 3, X: 30, Y: 10},
		{ID: 4, X: -8, Y: 1},
	})
	require.NoError(t, err)
	return m
}

func writeTestFile(t *testing.T, fname, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(fname), 0o755))
	require.NoError(t, os.WriteFile(fname, []byte(content), 0o644))
}

func TestObservationFile(t *testing.T) {
	assert.Equal(t, filepath.Join("run", "observation", "observations_000001.txt"), ObservationFile("run", 0))
	assert.Equal(t, filepath.Join("run", "observation", "observations_002444.txt"), ObservationFile("run", 2443))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, MapFile), "92.064\t-34.777\t1\n61.109\t-47.132\t2\n")
	writeTestFile(t, filepath.Join(dir, ControlFile), "4.0 0.03\n4.5 -0.01\n")
	writeTestFile(t, filepath.Join(dir, GroundTruthFile), "6.2785 1.9598 0\n6.6784 1.9598 0.003\n7.1 2 0.002\n")
	writeTestFile(t, ObservationFile(dir, 0), "2.5 -0.5\n\n-1 3\n")
	writeTestFile(t, ObservationFile(dir, 1), "")

	d, err := Load(dir, landmarkmap.WithGridIndex(10))
	require.NoError(t, err)

	assert.Equal(t, 2, d.Map.Len())
	assert.True(t, d.Map.Indexed())
	require.Len(t, d.Steps, 2)

	want := Step{
		Index:    0,
		Velocity: 4,
		YawRate:  0.03,
		Observations: []particlefilter.Observation{
			{ID: 0, X: 2.5, Y: -0.5},
			{ID: 1, X: -1, Y: 3},
		},
		GroundTruth: particlefilter.Pose{X: 6.2785, Y: 1.9598},
	}
	if diff := cmp.Diff(want, d.Steps[0]); diff != "" {
		t.Errorf("step 0 (-want +got):\n%s", diff)
	}
	assert.Empty(t, d.Steps[1].Observations)
	assert.Equal(t, 1, d.Steps[1].Index)
	assert.Equal(t, -0.01, d.Steps[1].YawRate)
}

func TestLoadErrors(t *testing.T) {
	setup := func(t *testing.T, controls, gt string, observed int) string {
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, MapFile), "1 1 1\n")
		writeTestFile(t, filepath.Join(dir, ControlFile), controls)
		writeTestFile(t, filepath.Join(dir, GroundTruthFile), gt)
		for i := 0; i < observed; i++ {
			writeTestFile(t, ObservationFile(dir, i), "1 1\n")
		}
		return dir
	}

	tests := []struct {
		name    string
		dir     func(t *testing.T) string
		wantErr string
	}{
		{"missing dir", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }, MapFile},
		{"no controls", func(t *testing.T) string { return setup(t, "\n", "0 0 0\n", 0) }, "no timesteps"},
		{"short ground truth", func(t *testing.T) string { return setup(t, "1 0\n1 0\n", "0 0 0\n", 2) }, "1 poses for 2 controls"},
		{"missing observations", func(t *testing.T) string { return setup(t, "1 0\n1 0\n", "0 0 0\n1 0 0\n", 1) }, "observations_000002.txt"},
		{"short control line", func(t *testing.T) string { return setup(t, "1\n", "0 0 0\n", 1) }, "want 2 values"},
		{"bad number", func(t *testing.T) string { return setup(t, "1 x\n", "0 0 0\n", 1) }, "line 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.dir(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := testMap(t)
	controls := []Control{{Velocity: 2, YawRate: 0}, {Velocity: 2, YawRate: 0.1}, {Velocity: 1.5, YawRate: -0.2}}
	d := Simulate(m, particlefilter.Pose{X: 0, Y: 0, Theta: 0.1}, 0.1, 15, controls)

	dir := filepath.Join(t.TempDir(), "run")
	require.NoError(t, Save(dir, d))

	got, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, m.Landmarks(), got.Map.Landmarks())
	require.Len(t, got.Steps, len(d.Steps))
	for i := range d.Steps {
		if diff := cmp.Diff(d.Steps[i], got.Steps[i]); diff != "" {
			t.Errorf("step %d (-saved +loaded):\n%s", i, diff)
		}
	}
}

func TestObserve(t *testing.T) {
	m, err := landmarkmap.New([]landmarkmap.Landmark{{ID: 5, X: 3, Y: 7}, {ID: 6, X: 100, Y: 100}})
	require.NoError(t, err)

	obs := Observe(m, particlefilter.Pose{X: 2, Y: 3, Theta: math.Pi / 2}, 10)
	require.Len(t, obs, 1)
	assert.Equal(t, 0, obs[0].ID)
	assert.InDelta(t, 4, obs[0].X, 1e-12)
	assert.InDelta(t, -1, obs[0].Y, 1e-12)
}

func TestSimulate(t *testing.T) {
	m := testMap(t)
	d := Simulate(m, particlefilter.Pose{}, 1, 10, []Control{{Velocity: 3}, {Velocity: 3}, {Velocity: 3}})

	require.Len(t, d.Steps, 3)
	for i, s := range d.Steps {
		assert.Equal(t, i, s.Index)
		assert.InDelta(t, 3*float64(i), s.GroundTruth.X, 1e-12)
		assert.Equal(t, 0.0, s.GroundTruth.Y)
	}

	// heading is zero, so X is the landmark's offset along the track
	tests := []struct {
		ids []int
		xs  []float64
	}{
		{[]int{0, 1}, []float64{5, -8}}, // landmarks 1 and 4
		{[]int{0, 1}, []float64{2, 9}},  // landmarks 1 and 2
		{[]int{0, 1}, []float64{-1, 6}}, // landmarks 1 and 2
	}
	for i, tt := range tests {
		var ids []int
		var xs []float64
		for _, o := range d.Steps[i].Observations {
			ids = append(ids, o.ID)
			xs = append(xs, o.X)
		}
		assert.Equal(t, tt.ids, ids, "step %d", i)
		assert.InDeltaSlice(t, tt.xs, xs, 1e-12, "step %d", i)
	}
}

func TestObservationIDsSurviveSaveLoad(t *testing.T) {
	m := testMap(t)
	d := Simulate(m, particlefilter.Pose{X: 4, Y: 0, Theta: 0}, 0.5, 40, []Control{{Velocity: 1}})
	require.Len(t, d.Steps[0].Observations, 4)

	dir := filepath.Join(t.TempDir(), "run")
	require.NoError(t, Save(dir, d))
	got, err := Load(dir)
	require.NoError(t, err)

	for j, o := range got.Steps[0].Observations {
		assert.Equal(t, j, o.ID)
		assert.Equal(t, d.Steps[0].Observations[j].ID, o.ID)
	}
}

func TestReadRows(t *testing.T) {
	rows, err := readRows(strings.NewReader("1 2 3 extra\n\n  4\t5 6\n"), 3)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, rows)

	_, err = readRows(strings.NewReader("1 2\n3\n"), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
