package similarity

import (
	"fmt"
	"strings"

	"github.com/golang/geo/s2"
)

// earthRadiusKm matches the mean radius used by Nominatim tooling.
const earthRadiusKm = 6371.01

// proximityKm is the distance at which two reports count as "within proximity".
const proximityKm = 0.2

// DistanceKm returns the great-circle distance between two coordinates.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadiusKm
}

// distanceScore is the piecewise proximity score over distance in km.
func distanceScore(km float64) float64 {
	switch {
	case km <= 0.05:
		return 0.95
	case km <= 0.1:
		return 0.85
	case km <= 0.2:
		return 0.7
	case km <= 0.5:
		return 0.4
	case km <= 1.0:
		return 0.2
	}
	return 0
}

// normalizeAddress lowercases an address and splits it into tokens, dropping
// punctuation and filler words that never disambiguate two addresses.
func normalizeAddress(addr string) []string {
	addr = strings.ToLower(addr)
	replacer := strings.NewReplacer(",", " ", ".", " ", "-", " ", "/", " ")
	addr = replacer.Replace(addr)

	var tokens []string
	for _, tok := range strings.Fields(addr) {
		switch tok {
		case "near", "opp", "opposite", "behind", "the", "of", "at":
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// addressOverlap returns the share of tokens of the smaller address found in
// the larger one, in [0,1].
func addressOverlap(a, b string) float64 {
	ta, tb := normalizeAddress(a), normalizeAddress(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	if len(ta) > len(tb) {
		ta, tb = tb, ta
	}
	set := make(map[string]bool, len(tb))
	for _, tok := range tb {
		set[tok] = true
	}
	matched := 0
	for _, tok := range ta {
		if set[tok] {
			matched++
		}
	}
	return float64(matched) / float64(len(ta))
}

// analyzeLocation scores geographic proximity between a new report's
// coordinate and a candidate complaint's confirmed location. A strong
// address-token overlap adds up to +0.2, capped at 1.0.
func (e *Engine) analyzeLocation(lat, lon float64, addr string, hasCoord bool, candLat, candLon float64, candAddr string, candHasCoord bool) LocationScore {
	if !hasCoord || !candHasCoord {
		return LocationScore{
			AnalyzerScore: AnalyzerScore{Score: 0, Rationale: "location missing on one side"},
		}
	}

	km := DistanceKm(lat, lon, candLat, candLon)
	score := distanceScore(km)

	if addr != "" && candAddr != "" && addressOverlap(addr, candAddr) > 0.8 {
		score += 0.2
		if score > 1.0 {
			score = 1.0
		}
	}

	return LocationScore{
		AnalyzerScore: AnalyzerScore{
			Score:     score,
			Rationale: fmt.Sprintf("%.0f m apart", km*1000),
		},
		DistanceKm:      km,
		WithinProximity: km <= proximityKm,
	}
}
