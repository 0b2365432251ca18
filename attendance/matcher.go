package attendance

import (
	"math"

	"attendance_backend/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// DefaultDelta is roughly ten metres of latitude.
const DefaultDelta = 0.0001

// Matcher decides whether a sampled position is close enough to an anchor.
type Matcher interface {
	Match(sample models.LocationSample, anchor models.Location) bool
}

// DegreeBox matches when both coordinate deltas are strictly below Delta.
// The box is fixed in degrees, so its east-west extent shrinks with latitude.
type DegreeBox struct {
	Delta float64
}

func (b DegreeBox) Match(sample models.LocationSample, anchor models.Location) bool {
	return math.Abs(sample.Latitude-anchor.Latitude) < b.Delta &&
		math.Abs(sample.Longitude-anchor.Longitude) < b.Delta
}

// Haversine matches when the great-circle distance is within Meters.
type Haversine struct {
	Meters float64
}

func (h Haversine) Match(sample models.LocationSample, anchor models.Location) bool {
	d := geo.DistanceHaversine(
		orb.Point{sample.Longitude, sample.Latitude},
		orb.Point{anchor.Longitude, anchor.Latitude},
	)
	return d <= h.Meters
}
