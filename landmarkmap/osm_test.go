package landmarkmap

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="10" lat="46.0000000" lon="7.0000000">
    <tag k="landmark" v="pole"/>
  </node>
  <node id="11" lat="46.0010000" lon="7.0000000"/>
  <node id="12" lat="46.0000000" lon="7.0010000">
    <tag k="landmark" v="sign"/>
  </node>
  <way id="1">
    <nd ref="10"/>
    <nd ref="11"/>
    <tag k="highway" v="residential"/>
  </way>
</osm>`

func TestExtractOSMTaggedNodes(t *testing.T) {
	landmarks, proj, err := ExtractOSM(context.Background(), strings.NewReader(sampleOSM), FormatXML, ExtractOptions{})
	require.NoError(t, err)

	assert.Equal(t, Projection{OriginLat: 46, OriginLon: 7}, proj)
	require.Len(t, landmarks, 2)

	assert.Equal(t, 10, landmarks[0].ID)
	assert.InDelta(t, 0, landmarks[0].X, 1e-9)
	assert.InDelta(t, 0, landmarks[0].Y, 1e-9)

	assert.Equal(t, 12, landmarks[1].ID)
	// 0.001 degrees of longitude at 46N
	assert.InDelta(t, 0.001*math.Pi/180*R*math.Cos(46*math.Pi/180), landmarks[1].X, 1e-6)
	assert.InDelta(t, 0, landmarks[1].Y, 1e-9)
}

func TestExtractOSMAllNodesWithOrigin(t *testing.T) {
	origin := Projection{OriginLat: 46.001, OriginLon: 7}
	landmarks, proj, err := ExtractOSM(context.Background(), strings.NewReader(sampleOSM), FormatXML, ExtractOptions{
		AllNodes: true,
		Origin:   &origin,
	})
	require.NoError(t, err)

	assert.Equal(t, origin, proj)
	require.Len(t, landmarks, 3)
	assert.Equal(t, 11, landmarks[1].ID)
	assert.InDelta(t, 0, landmarks[1].Y, 1e-6)
	assert.Less(t, landmarks[0].Y, 0.0)
}

func TestFormatFromName(t *testing.T) {
	assert.Equal(t, FormatPBF, FormatFromName("bordeaux.osm.PBF"))
	assert.Equal(t, FormatXML, FormatFromName("landmarks.osm"))
}

func TestExtractOSMDropsDistantNodes(t *testing.T) {
	const farOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="46.0000000" lon="7.0000000"><tag k="landmark" v="pole"/></node>
  <node id="2" lat="46.5000000" lon="7.0000000"><tag k="landmark" v="pole"/></node>
</osm>`

	tests := []struct {
		name      string
		maxRadius float64
		wantIDs   []int
	}{
		{"default radius", 0, []int{1}},
		{"wide radius", 100e3, []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			landmarks, _, err := ExtractOSM(context.Background(), strings.NewReader(farOSM), FormatXML, ExtractOptions{
				MaxRadius: tt.maxRadius,
			})
			require.NoError(t, err)

			var ids []int
			for _, l := range landmarks {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	// node 12 sits about 77 m east of node 10
	landmarks, _, err := ExtractOSM(context.Background(), strings.NewReader(sampleOSM), FormatXML, ExtractOptions{MaxRadius: 50})
	require.NoError(t, err)
	require.Len(t, landmarks, 1)
	assert.Equal(t, 10, landmarks[0].ID)
}
