package landmarkmap

import (
	"io"
	"os"
	"sort"

	"github.com/grab/gosm"
	"github.com/pkg/errors"
)

const gosmWriteElementsMax = 8000

// nopCloser leaves closing the underlying writer to its owner.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func toGosmNode(l Landmark, proj Projection) *gosm.Node {
	lat, lon := proj.ToGeo(l.X, l.Y)
	return &gosm.Node{
		Latitude:  lat,
		Longitude: lon,
		ID:        int64(l.ID),
	}
}

// WritePBF encodes the landmarks of m as OSM nodes, placed back on the globe with
// proj. Nodes are written in ascending ID order as the PBF dense-node format expects.
// w is not closed.
func WritePBF(w io.Writer, m *Map, proj Projection) error {
	if m.Len() == 0 {
		return ErrEmptyMap
	}

	encoder := gosm.NewEncoder(&gosm.NewEncoderRequiredInput{
		RequiredFeatures: []string{"OsmSchema-V0.6", "DenseNodes"},
		Writer:           nopCloser{w},
	},
		gosm.WithWritingProgram("landmarkmcl"),
		gosm.WithZlipEnabled(true),
	)

	errChan, err := encoder.Start()
	if err != nil {
		return errors.Wrap(err, "failed to start pbf encoder")
	}

	var errs []error
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range errChan {
			errs = append(errs, e)
		}
	}()

	sorted := m.Landmarks()
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	nodes := make([]*gosm.Node, 0, gosmWriteElementsMax)
	for _, l := range sorted {
		nodes = append(nodes, toGosmNode(l, proj))
		if len(nodes) == gosmWriteElementsMax {
			encoder.AppendNodes(nodes)
			nodes = make([]*gosm.Node, 0, gosmWriteElementsMax)
		}
	}
	if len(nodes) > 0 {
		encoder.AppendNodes(nodes)
	}

	// Close flushes the pending block
	closeErr := encoder.Close()
	<-done

	if len(errs) > 0 {
		return errors.Wrapf(errs[0], "pbf encoder reported %d errors", len(errs))
	}
	return errors.Wrap(closeErr, "failed to close pbf encoder")
}

func SavePBF(fname string, m *Map, proj Projection) error {
	f, err := os.Create(fname)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", fname)
	}
	if err := WritePBF(f, m, proj); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %q", fname)
	}
	return errors.Wrapf(f.Close(), "failed to close %q", fname)
}
