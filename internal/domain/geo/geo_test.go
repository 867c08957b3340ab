package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegion(t *testing.T) {
	r := DefaultRegion()

	assert.Equal(t, 25.781441, r.Center.Latitude)
	assert.Equal(t, -80.188332, r.Center.Longitude)
	assert.Equal(t, 10000.0, r.LatitudinalMeters)
	assert.Equal(t, 10000.0, r.LongitudinalMeters)
}

func TestRegionBound_SpansRequestedMeters(t *testing.T) {
	r := DefaultRegion()
	b := r.Bound()

	assert.True(t, b.Contains(r.Center.Point()))

	west := Coordinate{Latitude: r.Center.Latitude, Longitude: b.Min.Lon()}
	east := Coordinate{Latitude: r.Center.Latitude, Longitude: b.Max.Lon()}
	south := Coordinate{Latitude: b.Min.Lat(), Longitude: r.Center.Longitude}
	north := Coordinate{Latitude: b.Max.Lat(), Longitude: r.Center.Longitude}

	assert.InDelta(t, 10000, DistanceMeters(west, east), 100)
	assert.InDelta(t, 10000, DistanceMeters(south, north), 100)
}

func TestRegionForBound_RoundTrip(t *testing.T) {
	r := DefaultRegion()
	back := RegionForBound(r.Bound())

	assert.InDelta(t, r.Center.Latitude, back.Center.Latitude, 1e-9)
	assert.InDelta(t, r.Center.Longitude, back.Center.Longitude, 1e-9)
	assert.InDelta(t, r.LatitudinalMeters, back.LatitudinalMeters, 1)
	assert.InDelta(t, r.LongitudinalMeters, back.LongitudinalMeters, 1)
}

func TestNewCoordinate_Validates(t *testing.T) {
	_, err := NewCoordinate(91, 0)
	assert.Error(t, err)
	_, err = NewCoordinate(0, -181)
	assert.Error(t, err)

	c, err := NewCoordinate(25.78, -80.19)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{-80.19, 25.78}, c.Point())
	assert.Equal(t, c, FromPoint(c.Point()))
}

func TestLerp(t *testing.T) {
	from := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 2}}
	to := orb.Bound{Min: orb.Point{2, 2}, Max: orb.Point{4, 4}}

	assert.Equal(t, from, Lerp(from, to, 0))
	assert.Equal(t, to, Lerp(from, to, 1))
	assert.Equal(t, to, Lerp(from, to, 7))
	assert.Equal(t, orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{3, 3}}, Lerp(from, to, 0.5))
}
