package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateEffortSums(t *testing.T) {
	steps := []Step{{EstimatedHours: 2}, {EstimatedHours: 3.5}}
	assert.Equal(t, 5.5, EstimateEffort(steps))
}

func TestComplexityScoreNormalized(t *testing.T) {
	steps := []Step{{Complexity: "trivial"}, {Complexity: "very_complex"}}
	// (1+5)/(5*2) = 0.6
	assert.InDelta(t, 0.6, ComplexityScore(steps), 1e-9)
}

func TestComplexityScoreEmpty(t *testing.T) {
	assert.Equal(t, 0.0, ComplexityScore(nil))
}

func TestOverallRiskVeryLow(t *testing.T) {
	techs := []Technology{{Maturity: "stable"}}
	steps := []Step{{Complexity: "trivial"}}
	assert.Equal(t, "very_low", OverallRisk(techs, steps))
}

func TestOverallRiskVeryHigh(t *testing.T) {
	techs := []Technology{{Maturity: "experimental"}}
	steps := []Step{{Complexity: "very_complex"}}
	assert.Equal(t, "very_high", OverallRisk(techs, steps))
}
