package landmarkmap

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

type Format int

const (
	FormatXML Format = iota
	FormatPBF
)

// FormatFromName picks the decoder from a file name: *.pbf is PBF, anything else XML.
func FormatFromName(fname string) Format {
	if strings.HasSuffix(strings.ToLower(fname), ".pbf") {
		return FormatPBF
	}
	return FormatXML
}

const DefaultLandmarkTag = "landmark"

// DefaultMaxRadius is how far from the origin, in metres, a node may lie and
// still be placed by the local projection.
const DefaultMaxRadius = 20e3

type ExtractOptions struct {
	// TagKey selects which nodes are landmarks. Defaults to DefaultLandmarkTag.
	TagKey string
	// AllNodes takes every node regardless of tags.
	AllNodes bool
	// Origin of the local frame. Nil centres it on the first landmark found.
	Origin *Projection
	// Procs is the number of PBF decoding goroutines.
	Procs int
	// MaxRadius drops nodes whose great-circle distance from the origin exceeds
	// it, in metres. Defaults to DefaultMaxRadius.
	MaxRadius float64
}

// ExtractOSM reads OSM nodes from r and turns the selected ones into landmarks in a
// local metric frame. Landmark IDs are the OSM node IDs; order follows the file.
// Nodes farther than opts.MaxRadius from the origin are left out.
func ExtractOSM(ctx context.Context, r io.Reader, format Format, opts ExtractOptions) ([]Landmark, Projection, error) {
	if opts.TagKey == "" {
		opts.TagKey = DefaultLandmarkTag
	}
	if opts.Procs <= 0 {
		opts.Procs = 1
	}
	if opts.MaxRadius <= 0 {
		opts.MaxRadius = DefaultMaxRadius
	}

	var scanner osm.Scanner
	switch format {
	case FormatPBF:
		scanner = osmpbf.New(ctx, r, opts.Procs)
	default:
		scanner = osmxml.New(ctx, r)
	}
	defer scanner.Close()

	var nodes []*osm.Node
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if !opts.AllNodes && !n.Tags.HasTag(opts.TagKey) {
			continue
		}
		nodes = append(nodes, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, Projection{}, errors.Wrap(err, "failed to scan osm data")
	}

	var proj Projection
	switch {
	case opts.Origin != nil:
		proj = *opts.Origin
	case len(nodes) > 0:
		proj = Projection{OriginLat: nodes[0].Lat, OriginLon: nodes[0].Lon}
	}

	landmarks := make([]Landmark, 0, len(nodes))
	for _, n := range nodes {
		if HaversineDistance(proj.OriginLat, proj.OriginLon, n.Lat, n.Lon) > opts.MaxRadius {
			continue
		}
		x, y := proj.ToLocal(n.Lat, n.Lon)
		landmarks = append(landmarks, Landmark{ID: int(n.ID), X: x, Y: y})
	}
	return landmarks, proj, nil
}

func LoadOSM(ctx context.Context, fname string, opts ExtractOptions, mapOpts ...Option) (*Map, Projection, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, Projection{}, errors.Wrapf(err, "failed to open %q", fname)
	}
	defer f.Close()

	landmarks, proj, err := ExtractOSM(ctx, f, FormatFromName(fname), opts)
	if err != nil {
		return nil, Projection{}, errors.Wrapf(err, "failed to extract landmarks from %q", fname)
	}

	m, err := New(landmarks, mapOpts...)
	if err != nil {
		return nil, Projection{}, err
	}
	return m, proj, nil
}
