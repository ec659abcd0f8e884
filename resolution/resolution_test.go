package resolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateHours(t *testing.T) {
	tests := []struct {
		name       string
		department string
		priority   string
		want       int
	}{
		{"water medium", "Water Supply", "medium", 24},
		{"water emergency", "Water Supply", "emergency", 6},
		{"waste high", "Waste Management", "high", 24},
		{"planning low", "Building & Planning", "low", 252},
		{"unknown department", "Department of Mysteries", "medium", 48},
		{"unknown priority", "Water Supply", "whenever", 24},
		{"electricity emergency", "Electricity", "emergency", 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EstimateHours(tc.department, tc.priority))
		})
	}
}

func TestEstimateHoursAlwaysPositive(t *testing.T) {
	for dept := range baseHours {
		for prio := range priorityFactor {
			assert.Greater(t, EstimateHours(dept, prio), 0)
		}
	}
}
