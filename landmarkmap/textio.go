package landmarkmap

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ReadText parses the recorded-run map format: one landmark per line as
// "x y id", whitespace separated. Blank lines and lines starting with '#' are skipped.
func ReadText(r io.Reader) ([]Landmark, error) {
	var out []Landmark

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 3 {
			return nil, errors.Errorf("line %d: want x y id, got %q", line, text)
		}

		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: x", line)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: y", line)
		}
		id, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: id", line)
		}

		out = append(out, Landmark{ID: id, X: x, Y: y})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read landmarks")
	}
	return out, nil
}

func LoadText(fname string, opts ...Option) (*Map, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", fname)
	}
	defer f.Close()

	landmarks, err := ReadText(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %q", fname)
	}
	return New(landmarks, opts...)
}

// WriteText writes m in the format ReadText reads.
func WriteText(w io.Writer, m *Map) error {
	bw := bufio.NewWriter(w)
	for _, l := range m.Landmarks() {
		line := strconv.FormatFloat(l.X, 'f', -1, 64) + "\t" +
			strconv.FormatFloat(l.Y, 'f', -1, 64) + "\t" +
			strconv.Itoa(l.ID) + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return errors.Wrap(err, "failed to write landmarks")
		}
	}
	return errors.Wrap(bw.Flush(), "failed to write landmarks")
}
