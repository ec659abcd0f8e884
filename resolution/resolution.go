// Package resolution estimates how long a department needs to resolve a
// complaint at a given priority.
package resolution

import "math"

// DefaultBaseHours applies to departments without a configured baseline.
const DefaultBaseHours = 48

// baseHours is the expected resolution baseline per municipal department.
var baseHours = map[string]int{
	"Water Supply":           24,
	"Electricity":            12,
	"Roads & Infrastructure": 72,
	"Waste Management":       48,
	"Street Lighting":        36,
	"Drainage & Sewerage":    48,
	"Building & Planning":    168,
	"Parks & Recreation":     96,
	"Public Health":          24,
	"General Administration": 48,
}

// priorityFactor scales the baseline by urgency.
var priorityFactor = map[string]float64{
	"emergency": 0.25,
	"high":      0.5,
	"medium":    1.0,
	"low":       1.5,
}

// EstimateHours returns the expected hours to resolution for a department and
// priority, rounded up to the next whole hour. Unknown departments fall back
// to the default baseline, unknown priorities to medium.
func EstimateHours(department, priority string) int {
	base, ok := baseHours[department]
	if !ok {
		base = DefaultBaseHours
	}
	factor, ok := priorityFactor[priority]
	if !ok {
		factor = priorityFactor["medium"]
	}
	return int(math.Ceil(float64(base) * factor))
}
