// Package agents provides the concrete role agents that populate the
// swarm: a repository analyst, a cutting-edge planner, a conservative
// planner, a synthesis planner, and the code-generation pipeline's
// generator/debugger/optimizer/quality-assessor roles. Each is a
// capability-bundle agent.BaseAgent with a role-specific executor
// closure rather than a bespoke type.
package agents

import "math"

// ComplexityWeight maps a step's named complexity to its scoring weight
// (§4.5: "weights 1/2/3/4/5 for trivial/simple/moderate/complex/
// very-complex").
var ComplexityWeight = map[string]float64{
	"trivial":      1,
	"simple":       2,
	"moderate":     3,
	"complex":      4,
	"very_complex": 5,
}

// TechMaturityRisk maps a technology's maturity label to its risk score
// (§4.5: "tech-maturity risk (experimental=5, alpha=4, beta=3, stable=1)").
var TechMaturityRisk = map[string]float64{
	"experimental": 5,
	"alpha":        4,
	"beta":         3,
	"stable":       1,
}

// Step is the shared implementation-step shape scored by EstimateEffort
// and ComplexityScore, and assembled by the planners into a Plan.
type Step struct {
	ID                 string
	Title              string
	Description        string
	EstimatedHours     float64
	Complexity         string
	Dependencies       []string
	Risks              []string
	Deliverables       []string
	ValidationCriteria []string
	Technologies       []string
}

// Technology is the shared technology-choice shape scored by OverallRisk
// and assembled by the planners into a Plan's technology stack.
type Technology struct {
	Name           string
	Version        string
	Maturity       string
	Justification  string
	Alternatives   []string
	RiskFactors    []string
	Benefits       []string
}

// EstimateEffort sums estimated hours across steps (§4.5 "Effort =
// Σ step.estimated_hours").
func EstimateEffort(steps []Step) float64 {
	var total float64
	for _, s := range steps {
		total += s.EstimatedHours
	}
	return total
}

// ComplexityScore normalizes the weighted complexity sum to [0,1] (§4.5
// "Σ(weight[step.complexity]) / (5·|steps|)").
func ComplexityScore(steps []Step) float64 {
	if len(steps) == 0 {
		return 0
	}
	var total float64
	for _, s := range steps {
		total += ComplexityWeight[s.Complexity]
	}
	return total / (5 * float64(len(steps)))
}

// OverallRisk averages technology-maturity risk and complexity-derived
// risk and maps the average to a risk label (§4.5).
func OverallRisk(techs []Technology, steps []Step) string {
	var scores []float64

	if len(techs) > 0 {
		var techRisk float64
		for _, t := range techs {
			techRisk += TechMaturityRisk[t.Maturity]
		}
		scores = append(scores, techRisk/float64(len(techs)))
	}
	scores = append(scores, ComplexityScore(steps)*5)

	var avg float64
	for _, s := range scores {
		avg += s
	}
	avg /= float64(len(scores))

	switch {
	case avg <= 1:
		return "very_low"
	case avg <= 2:
		return "low"
	case avg <= 3:
		return "medium"
	case avg <= 4:
		return "high"
	default:
		return "very_high"
	}
}

// round2 rounds to two decimal places for stable, human-readable output.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
