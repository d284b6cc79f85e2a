package landmarkmap

import (
	"math"
)

// R is the mean earth radius in metres.
const R float64 = 6371e3

// HaversineDistance is the great-circle distance in metres between two points
// given in degrees.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := DegToRad(lat1)
	lat2r := DegToRad(lat2)

	dlat := DegToRad(lat2 - lat1)
	dlon := DegToRad(lon2 - lon1)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// NormalizeAngle wraps a heading in radians into (-π, π].
func NormalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if theta <= -math.Pi {
		theta += 2 * math.Pi
	} else if theta > math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}

func DegToRad(d float64) float64 {
	return d * math.Pi / 180.0
}

func RadToDeg(r float64) float64 {
	return r * 180.0 / math.Pi
}

// Projection maps geographic coordinates onto a local east/north plane in metres
// centred on an origin. It is an equirectangular approximation, fine for the few
// kilometres a landmark map spans.
type Projection struct {
	OriginLat float64 `json:"origin_lat"`
	OriginLon float64 `json:"origin_lon"`
}

func (p Projection) ToLocal(lat, lon float64) (x, y float64) {
	x = DegToRad(lon-p.OriginLon) * R * math.Cos(DegToRad(p.OriginLat))
	y = DegToRad(lat-p.OriginLat) * R
	return x, y
}

func (p Projection) ToGeo(x, y float64) (lat, lon float64) {
	lat = p.OriginLat + RadToDeg(y/R)
	lon = p.OriginLon + RadToDeg(x/(R*math.Cos(DegToRad(p.OriginLat))))
	return lat, lon
}
