package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceScoreBands(t *testing.T) {
	tests := []struct {
		km   float64
		want float64
	}{
		{0.03, 0.95},
		{0.05, 0.95},
		{0.08, 0.85},
		{0.15, 0.7},
		{0.2, 0.7},
		{0.4, 0.4},
		{0.9, 0.2},
		{1.5, 0},
	}
	for _, tc := range tests {
		assert.InDelta(t, tc.want, distanceScore(tc.km), 1e-9, "distance %.2f km", tc.km)
	}
}

func TestDistanceKm(t *testing.T) {
	// One degree of latitude is ~111.2 km.
	km := DistanceKm(17.0, 78.0, 18.0, 78.0)
	assert.InDelta(t, 111.2, km, 0.5)

	assert.InDelta(t, 0, DistanceKm(17.44, 78.35, 17.44, 78.35), 1e-9)
}

func TestAddressOverlap(t *testing.T) {
	a := "12 MG Road, Jubilee Hills, Hyderabad"
	b := "MG Road, Jubilee Hills, Hyderabad, Telangana, 500033"
	assert.Greater(t, addressOverlap(a, b), 0.8)

	assert.Equal(t, 0.0, addressOverlap("", b))
	assert.Less(t, addressOverlap("Station Road Mumbai", b), 0.5)
}

func TestAnalyzeLocationAddressBonusCapped(t *testing.T) {
	e := &Engine{}
	// Identical coordinates already score 0.95; a matching address adds the
	// bonus but the total is capped at 1.0.
	got := e.analyzeLocation(
		17.44, 78.35, "MG Road, Jubilee Hills, Hyderabad", true,
		17.44, 78.35, "MG Road, Jubilee Hills, Hyderabad", true)
	assert.InDelta(t, 1.0, got.Score, 1e-9)
	assert.True(t, got.WithinProximity)
}

func TestAnalyzeLocationMissingSide(t *testing.T) {
	e := &Engine{}
	got := e.analyzeLocation(0, 0, "", false, 17.44, 78.35, "", true)
	assert.Equal(t, 0.0, got.Score)
	assert.False(t, got.WithinProximity)
	assert.NotEmpty(t, got.Rationale)
}

func TestAnalyzeLocationProximityBoundary(t *testing.T) {
	e := &Engine{}
	// ~150 m apart: inside proximity, 0.7 band.
	got := e.analyzeLocation(17.4401, 78.3489, "", true, 17.44145, 78.3489, "", true)
	assert.True(t, got.WithinProximity)
	assert.InDelta(t, 0.7, got.Score, 1e-9)

	// ~900 m apart: outside proximity.
	far := e.analyzeLocation(17.4401, 78.3489, "", true, 17.4482, 78.3489, "", true)
	assert.False(t, far.WithinProximity)
	assert.InDelta(t, 0.2, far.Score, 1e-9)
}
