// Package dataset reads and writes recorded localisation runs: a landmark map,
// one control line per timestep, ground truth poses and a directory of per-step
// observation files.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"landmarkmcl/landmarkmap"
	"landmarkmcl/particlefilter"
)

const (
	MapFile         = "map_data.txt"
	ControlFile     = "control_data.txt"
	GroundTruthFile = "gt_data.txt"
	ObservationDir  = "observation"
)

var ErrNoSteps = errors.New("dataset has no timesteps")

// Step is one timestep of a run. Velocity and YawRate are the controls applied
// after this step's observations were taken.
type Step struct {
	Index        int
	Velocity     float64
	YawRate      float64
	Observations []particlefilter.Observation
	GroundTruth  particlefilter.Pose
}

type Dataset struct {
	Map   *landmarkmap.Map
	Steps []Step
}

// ObservationFile is the path of the observation file for step i, numbered from 1.
func ObservationFile(dir string, i int) string {
	return filepath.Join(dir, ObservationDir, fmt.Sprintf("observations_%06d.txt", i+1))
}

// Load reads a run from dir. The control file decides the number of steps; the
// ground truth file must cover every step and every step needs an observation
// file, which may be empty.
func Load(dir string, opts ...landmarkmap.Option) (*Dataset, error) {
	m, err := landmarkmap.LoadText(filepath.Join(dir, MapFile), opts...)
	if err != nil {
		return nil, err
	}

	controls, err := readFile(filepath.Join(dir, ControlFile), 2)
	if err != nil {
		return nil, err
	}
	if len(controls) == 0 {
		return nil, errors.Wrapf(ErrNoSteps, "%q", dir)
	}

	gt, err := readFile(filepath.Join(dir, GroundTruthFile), 3)
	if err != nil {
		return nil, err
	}
	if len(gt) < len(controls) {
		return nil, errors.Errorf("%s has %d poses for %d controls", GroundTruthFile, len(gt), len(controls))
	}

	d := &Dataset{Map: m, Steps: make([]Step, len(controls))}
	for i, c := range controls {
		rows, err := readFile(ObservationFile(dir, i), 2)
		if err != nil {
			return nil, err
		}
		obs := make([]particlefilter.Observation, len(rows))
		for j, r := range rows {
			obs[j] = particlefilter.Observation{ID: j, X: r[0], Y: r[1]}
		}

		d.Steps[i] = Step{
			Index:        i,
			Velocity:     c[0],
			YawRate:      c[1],
			Observations: obs,
			GroundTruth:  particlefilter.Pose{X: gt[i][0], Y: gt[i][1], Theta: gt[i][2]},
		}
	}
	return d, nil
}

// Save writes d to dir in the layout Load reads, creating directories as needed.
func Save(dir string, d *Dataset) error {
	if err := os.MkdirAll(filepath.Join(dir, ObservationDir), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %q", dir)
	}

	if err := writeFile(filepath.Join(dir, MapFile), func(w io.Writer) error {
		return landmarkmap.WriteText(w, d.Map)
	}); err != nil {
		return err
	}

	controls := make([][]float64, len(d.Steps))
	gt := make([][]float64, len(d.Steps))
	for i, s := range d.Steps {
		controls[i] = []float64{s.Velocity, s.YawRate}
		gt[i] = []float64{s.GroundTruth.X, s.GroundTruth.Y, s.GroundTruth.Theta}

		rows := make([][]float64, len(s.Observations))
		for j, o := range s.Observations {
			rows[j] = []float64{o.X, o.Y}
		}
		if err := writeRows(ObservationFile(dir, i), rows); err != nil {
			return err
		}
	}

	if err := writeRows(filepath.Join(dir, ControlFile), controls); err != nil {
		return err
	}
	return writeRows(filepath.Join(dir, GroundTruthFile), gt)
}

func readFile(fname string, columns int) ([][]float64, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", fname)
	}
	defer f.Close()

	rows, err := readRows(f, columns)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %q", fname)
	}
	return rows, nil
}

// readRows parses whitespace separated numbers, taking the first columns
// fields of each non-blank line.
func readRows(r io.Reader, columns int) ([][]float64, error) {
	var out [][]float64

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < columns {
			return nil, errors.Errorf("line %d: want %d values, got %d", line, columns, len(fields))
		}

		row := make([]float64, columns)
		for i := range row {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			row[i] = v
		}
		out = append(out, row)
	}
	return out, errors.Wrap(scanner.Err(), "failed to read")
}

func writeRows(fname string, rows [][]float64) error {
	return writeFile(fname, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		for _, row := range rows {
			for i, v := range row {
				if i > 0 {
					bw.WriteByte(' ')
				}
				bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			}
			bw.WriteByte('\n')
		}
		return bw.Flush()
	})
}

func writeFile(fname string, write func(io.Writer) error) error {
	f, err := os.Create(fname)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", fname)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %q", fname)
	}
	return errors.Wrapf(f.Close(), "failed to close %q", fname)
}
