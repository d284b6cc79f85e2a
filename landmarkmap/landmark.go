// Package landmarkmap holds the static landmark map a localiser is matched against,
// along with the loaders that build it from recorded runs and OpenStreetMap extracts.
package landmarkmap

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

var (
	ErrEmptyMap    = errors.New("landmark map is empty")
	ErrDuplicateID = errors.New("duplicate landmark id")
	ErrNotFinite   = errors.New("landmark coordinate is not finite")
)

// Landmark is a fixed map feature in map-frame metres.
type Landmark struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func (l Landmark) String() string {
	return fmt.Sprintf("landmark %d (%.3f, %.3f)", l.ID, l.X, l.Y)
}

// Map is an ordered, immutable set of landmarks. Iteration order is the order the
// landmarks were given to New and decides ties during nearest-neighbour search.
type Map struct {
	landmarks []Landmark
	byID      map[int]int
	index     *SpatialIndex
}

type Option func(*Map) error

// WithGridIndex buckets the landmarks into square cells of cellSize metres so
// Nearest and Within only visit nearby cells.
func WithGridIndex(cellSize float64) Option {
	return func(m *Map) error {
		if !(cellSize > 0) || math.IsInf(cellSize, 1) {
			return errors.Errorf("invalid grid cell size %v", cellSize)
		}
		m.index = NewSpatialIndex(cellSize)
		return nil
	}
}

func New(landmarks []Landmark, opts ...Option) (*Map, error) {
	m := &Map{
		landmarks: make([]Landmark, len(landmarks)),
		byID:      make(map[int]int, len(landmarks)),
	}
	copy(m.landmarks, landmarks)

	for i, l := range m.landmarks {
		if math.IsNaN(l.X) || math.IsInf(l.X, 0) || math.IsNaN(l.Y) || math.IsInf(l.Y, 0) {
			return nil, errors.Wrapf(ErrNotFinite, "landmark %d", l.ID)
		}
		if _, ok := m.byID[l.ID]; ok {
			return nil, errors.Wrapf(ErrDuplicateID, "landmark %d", l.ID)
		}
		m.byID[l.ID] = i
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if m.index != nil {
		for i, l := range m.landmarks {
			m.index.Insert(i, l.X, l.Y)
		}
	}
	return m, nil
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.landmarks)
}

// Landmarks returns a copy of the landmarks in map order.
func (m *Map) Landmarks() []Landmark {
	out := make([]Landmark, m.Len())
	if m != nil {
		copy(out, m.landmarks)
	}
	return out
}

func (m *Map) Get(id int) (Landmark, bool) {
	if m == nil {
		return Landmark{}, false
	}
	i, ok := m.byID[id]
	if !ok {
		return Landmark{}, false
	}
	return m.landmarks[i], true
}

func (m *Map) Indexed() bool {
	return m != nil && m.index != nil
}

// Nearest returns the landmark closest to (x, y) and its distance. Equal distances
// resolve to the landmark that comes first in map order.
func (m *Map) Nearest(x, y float64) (Landmark, float64, error) {
	if m.Len() == 0 {
		return Landmark{}, 0, ErrEmptyMap
	}

	if m.index != nil {
		i, dist := m.index.Nearest(x, y, m.landmarks)
		return m.landmarks[i], dist, nil
	}

	nearest, dist, _ := NearestOf(m.landmarks, x, y)
	return nearest, dist, nil
}

// Within returns, in map order, every landmark no further than r from (x, y).
func (m *Map) Within(x, y, r float64) []Landmark {
	if m.Len() == 0 || r < 0 || math.IsNaN(r) {
		return nil
	}

	var out []Landmark
	if m.index != nil && !math.IsInf(r, 1) {
		for _, i := range m.index.QueryRadius(x, y, r, m.landmarks) {
			out = append(out, m.landmarks[i])
		}
		return out
	}

	for _, l := range m.landmarks {
		if Distance(x, y, l.X, l.Y) <= r {
			out = append(out, l)
		}
	}
	return out
}

// NearestOf scans ls in order and returns the first landmark at minimum distance
// from (x, y). ok is false when ls is empty.
func NearestOf(ls []Landmark, x, y float64) (nearest Landmark, dist float64, ok bool) {
	dist = math.Inf(1)
	for _, l := range ls {
		d := Distance(x, y, l.X, l.Y)
		if d < dist || !ok {
			nearest, dist, ok = l, d, true
		}
	}
	return nearest, dist, ok
}

// Distance is the planar Euclidean distance between two map-frame points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}
