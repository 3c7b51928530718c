package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateComplexity(t *testing.T) {
	tests := []struct {
		name         string
		serviceCount int
		expected     string
	}{
		{"zero services is low", 0, ComplexityLow},
		{"two services is low", 2, ComplexityLow},
		{"three services is medium", 3, ComplexityMedium},
		{"five services is medium", 5, ComplexityMedium},
		{"six services is high", 6, ComplexityHigh},
		{"many services is high", 12, ComplexityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateComplexity(tt.serviceCount))
		})
	}
}
