package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/task"
)

// Plan is the shared shape produced by each planner role and consumed by
// plan synthesis and, ultimately, code generation.
type Plan struct {
	PlannerType        string
	TechnologyStack    []Technology
	ImplementationSteps []Step
	EstimatedEffort     float64
	ComplexityScore     float64
	RiskLevel           string
	Pros                []string
	Cons                []string
	SuccessFactors      []string
	FailureRisks        []string
}

func scorePlan(plannerType string, techs []Technology, steps []Step) Plan {
	return Plan{
		PlannerType:         plannerType,
		TechnologyStack:     techs,
		ImplementationSteps: steps,
		EstimatedEffort:     EstimateEffort(steps),
		ComplexityScore:     ComplexityScore(steps),
		RiskLevel:           OverallRisk(techs, steps),
	}
}

func planToMap(p Plan) map[string]any {
	return map[string]any{
		"planner_type":         p.PlannerType,
		"technology_stack":     p.TechnologyStack,
		"implementation_steps": p.ImplementationSteps,
		"estimated_effort":     p.EstimatedEffort,
		"complexity_score":     p.ComplexityScore,
		"risk_level":           p.RiskLevel,
		"pros":                 p.Pros,
		"cons":                 p.Cons,
		"success_factors":      p.SuccessFactors,
		"failure_risks":        p.FailureRisks,
	}
}

// planFromContext reads a planner's output back out of the workflow
// engine's child-task context, which nests it as
// ctx["plans"][key]["plan"] (see workflow.buildPhaseContext for
// PhasePlanSynthesis).
func planFromContext(ctx map[string]any, key string) (Plan, bool) {
	plans, ok := ctx["plans"].(map[string]any)
	if !ok {
		return Plan{}, false
	}
	wrapped, ok := plans[key].(map[string]any)
	if !ok {
		return Plan{}, false
	}
	m, ok := wrapped["plan"].(map[string]any)
	if !ok {
		return Plan{}, false
	}
	p := Plan{}
	if v, ok := m["planner_type"].(string); ok {
		p.PlannerType = v
	}
	if v, ok := m["technology_stack"].([]Technology); ok {
		p.TechnologyStack = v
	}
	if v, ok := m["implementation_steps"].([]Step); ok {
		p.ImplementationSteps = v
	}
	if v, ok := m["estimated_effort"].(float64); ok {
		p.EstimatedEffort = v
	}
	if v, ok := m["complexity_score"].(float64); ok {
		p.ComplexityScore = v
	}
	if v, ok := m["risk_level"].(string); ok {
		p.RiskLevel = v
	}
	return p, true
}

// NewCuttingEdgePlannerAgent builds the planner that favors experimental
// technology choices, grounded on CuttingEdgePlannerAgent's
// _select_cutting_edge_technologies / _create_cutting_edge_steps.
func NewCuttingEdgePlannerAgent(id string, limits agent.ResourceLimits) *agent.BaseAgent {
	return agent.NewBaseAgent(id, "cutting_edge_planner", "Cutting-Edge Planner", limits,
		[]string{"handle_planning", "handle_architecture_design"}, cuttingEdgeExecutor)
}

func cuttingEdgeExecutor(ctx context.Context, t *task.Task, mem *agent.Memory) (map[string]any, error) {
	desc := strings.ToLower(t.Description)
	var techs []Technology

	if strings.Contains(desc, "api") || strings.Contains(desc, "service") {
		techs = append(techs, Technology{
			Name: "Fastify", Version: "latest", Maturity: "beta",
			Justification: "ultra-fast async-first web framework",
			Alternatives:  []string{"Express", "Koa", "Hapi"},
			RiskFactors:   []string{"smaller ecosystem", "less mature"},
			Benefits:      []string{"superior performance", "modern async patterns"},
		})
	}
	if strings.Contains(desc, "database") || strings.Contains(desc, "data") || strings.Contains(desc, "storage") {
		techs = append(techs, Technology{
			Name: "SurrealDB", Version: "latest", Maturity: "alpha",
			Justification: "multi-model database with graph and real-time features",
			Alternatives:  []string{"PostgreSQL", "MongoDB", "Neo4j"},
			RiskFactors:   []string{"very new", "limited production usage"},
			Benefits:      []string{"multi-model flexibility", "real-time capabilities"},
		})
	}
	if strings.Contains(desc, "frontend") || strings.Contains(desc, "ui") {
		techs = append(techs, Technology{
			Name: "Solid.js", Version: "latest", Maturity: "beta",
			Justification: "fine-grained reactive frontend framework",
			Alternatives:  []string{"React", "Vue", "Svelte"},
			RiskFactors:   []string{"smaller ecosystem", "fewer component libraries"},
			Benefits:      []string{"superior performance", "small bundle size"},
		})
	}

	techNames := techNames(techs)
	steps := []Step{
		{
			ID: "research_prototype", Title: "Technology Research and Prototyping",
			Description:        "Research cutting-edge technologies and build proof-of-concept prototypes",
			EstimatedHours:      16,
			Complexity:          "complex",
			Risks:               []string{"technology may not meet requirements", "steeper learning curve than expected"},
			Deliverables:        []string{"technology evaluation report", "working prototypes"},
			ValidationCriteria: []string{"prototypes demonstrate key capabilities", "performance meets targets"},
			Technologies:        techNames,
		},
		{
			ID: "cutting_edge_architecture", Title: "Advanced Architecture Design",
			Description:        "Design architecture leveraging the latest patterns and technologies",
			EstimatedHours:      12,
			Complexity:          "complex",
			Dependencies:        []string{"research_prototype"},
			Risks:               []string{"over-engineering", "architecture too complex for the team"},
			Deliverables:        []string{"architecture diagrams", "technology integration plan"},
			ValidationCriteria: []string{"architecture supports all requirements", "scalability validated"},
			Technologies:        techNames,
		},
		{
			ID: "experimental_implementation", Title: "Implementation with Experimental Features",
			Description:        "Implement the solution using experimental features and optimizations",
			EstimatedHours:      32,
			Complexity:          "very_complex",
			Dependencies:        []string{"cutting_edge_architecture"},
			Risks:               []string{"experimental features may be unstable", "debug complexity high"},
			Deliverables:        []string{"working implementation", "performance benchmarks"},
			ValidationCriteria: []string{"all features functional", "performance exceeds baseline"},
			Technologies:        techNames,
		},
	}

	plan := scorePlan("cutting_edge", techs, steps)
	plan.Pros = []string{"leading-edge performance", "modern developer experience"}
	plan.Cons = []string{"less battle-tested", "steeper ramp-up"}
	return map[string]any{"plan": planToMap(plan)}, nil
}

// NewConservativePlannerAgent builds the planner that favors proven
// technology choices, grounded on ConservativePlannerAgent's
// _select_conservative_technologies / _create_conservative_steps.
func NewConservativePlannerAgent(id string, limits agent.ResourceLimits) *agent.BaseAgent {
	return agent.NewBaseAgent(id, "conservative_planner", "Conservative Planner", limits,
		[]string{"handle_planning", "handle_architecture_design"}, conservativeExecutor)
}

func conservativeExecutor(ctx context.Context, t *task.Task, mem *agent.Memory) (map[string]any, error) {
	desc := strings.ToLower(t.Description)
	var techs []Technology

	if strings.Contains(desc, "api") || strings.Contains(desc, "service") {
		techs = append(techs, Technology{
			Name: "Express", Version: "4.x", Maturity: "stable",
			Justification: "battle-tested, widely documented web framework",
			Alternatives:  []string{"Fastify", "Koa"},
			RiskFactors:   []string{"callback-era API surface in places"},
			Benefits:      []string{"enormous ecosystem", "predictable behavior"},
		})
	}
	if strings.Contains(desc, "database") || strings.Contains(desc, "data") || strings.Contains(desc, "storage") {
		techs = append(techs, Technology{
			Name: "PostgreSQL", Version: "16", Maturity: "stable",
			Justification: "proven relational store with strong consistency guarantees",
			Alternatives:  []string{"MySQL", "SurrealDB"},
			RiskFactors:   []string{"schema migrations require discipline"},
			Benefits:      []string{"ACID guarantees", "mature tooling"},
		})
	}
	if strings.Contains(desc, "frontend") || strings.Contains(desc, "ui") {
		techs = append(techs, Technology{
			Name: "React", Version: "18", Maturity: "stable",
			Justification: "industry-standard component model with deep hiring pool",
			Alternatives:  []string{"Vue", "Solid.js"},
			RiskFactors:   []string{"bundle size without careful splitting"},
			Benefits:      []string{"huge ecosystem", "long-term support"},
		})
	}

	techNames := techNames(techs)
	steps := []Step{
		{
			ID: "conservative_design", Title: "Proven Architecture Design",
			Description:        "Design architecture using established, well-documented patterns",
			EstimatedHours:      10,
			Complexity:          "moderate",
			Risks:               []string{"may under-utilize newer capabilities"},
			Deliverables:        []string{"architecture diagrams", "technology justification"},
			ValidationCriteria: []string{"architecture reviewed against known failure modes"},
			Technologies:        techNames,
		},
		{
			ID: "conservative_implementation", Title: "Standards-Based Implementation",
			Description:        "Implement the solution using well-tested libraries and idioms",
			EstimatedHours:      24,
			Complexity:          "moderate",
			Dependencies:        []string{"conservative_design"},
			Risks:               []string{"slower to adopt newer optimizations"},
			Deliverables:        []string{"working implementation", "test suite"},
			ValidationCriteria: []string{"all acceptance criteria met", "tests green"},
			Technologies:        techNames,
		},
	}

	plan := scorePlan("conservative", techs, steps)
	plan.Pros = []string{"predictable delivery", "large talent pool", "strong community support"}
	plan.Cons = []string{"may miss newer capabilities"}
	plan.SuccessFactors = []string{"stability", "reliability", "testing discipline"}
	return map[string]any{"plan": planToMap(plan)}, nil
}

func techNames(techs []Technology) []string {
	names := make([]string, 0, len(techs))
	for _, t := range techs {
		names = append(names, t.Name)
	}
	return names
}

// NewSynthesisPlannerAgent builds the planner that merges the
// cutting-edge and conservative plans, grounded on SynthesisPlannerAgent's
// _synthesize_technology_stacks / _choose_synthesized_technology /
// _synthesize_implementation_steps / _merge_implementation_steps.
func NewSynthesisPlannerAgent(id string, limits agent.ResourceLimits) *agent.BaseAgent {
	return agent.NewBaseAgent(id, "synthesis_planner", "Synthesis Planner", limits,
		[]string{"handle_plan_synthesis"}, synthesisExecutor)
}

func synthesisExecutor(ctx context.Context, t *task.Task, mem *agent.Memory) (map[string]any, error) {
	cuttingEdge, haveCutting := planFromContext(t.Context, "cutting_edge")
	conservative, haveConservative := planFromContext(t.Context, "conservative")

	plansUsed := 0
	if haveCutting {
		plansUsed++
	}
	if haveConservative {
		plansUsed++
	}
	if plansUsed == 0 {
		return nil, fmt.Errorf("synthesis planner: no input plans available")
	}

	techs := synthesizeTechnologies(cuttingEdge.TechnologyStack, conservative.TechnologyStack)
	steps := synthesizeSteps(cuttingEdge.ImplementationSteps, conservative.ImplementationSteps)

	plan := scorePlan("synthesis", techs, steps)
	plan.Pros = append(append([]string{}, cuttingEdge.Pros...), conservative.Pros...)
	plan.Cons = append(append([]string{}, cuttingEdge.Cons...), conservative.Cons...)
	plan.SuccessFactors = conservative.SuccessFactors
	plan.FailureRisks = cuttingEdge.FailureRisks

	out := planToMap(plan)
	out["plans_used"] = plansUsed
	return map[string]any{"plan": out, "selected_plan": out}, nil
}

// synthesizeTechnologies implements the §4.5 synthesis heuristic: prefer
// the conservative option for storage/data categories, the experimental
// option for UI categories, and a conservative pick annotated with a
// balanced justification otherwise.
func synthesizeTechnologies(cutting, conservative []Technology) []Technology {
	byCategory := func(techs []Technology) map[string]Technology {
		out := make(map[string]Technology)
		for _, t := range techs {
			out[techCategory(t.Name)] = t
		}
		return out
	}
	cuttingByCat := byCategory(cutting)
	conservativeByCat := byCategory(conservative)

	categories := make(map[string]bool)
	for c := range cuttingByCat {
		categories[c] = true
	}
	for c := range conservativeByCat {
		categories[c] = true
	}

	cats := make([]string, 0, len(categories))
	for c := range categories {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var out []Technology
	for _, cat := range cats {
		cuttingOpt, haveCutting := cuttingByCat[cat]
		conservativeOpt, haveConservative := conservativeByCat[cat]
		switch {
		case haveCutting && haveConservative:
			out = append(out, chooseSynthesizedTechnology(cuttingOpt, conservativeOpt))
		case haveCutting:
			out = append(out, cuttingOpt)
		case haveConservative:
			out = append(out, conservativeOpt)
		}
	}
	return out
}

func techCategory(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "db") || strings.Contains(lower, "sql") || strings.Contains(lower, "storage") || strings.Contains(lower, "postgres") || strings.Contains(lower, "surreal") || strings.Contains(lower, "mongo"):
		return "database"
	case strings.Contains(lower, "react") || strings.Contains(lower, "vue") || strings.Contains(lower, "solid"):
		return "ui"
	default:
		return "service"
	}
}

func chooseSynthesizedTechnology(cutting, conservative Technology) Technology {
	cat := techCategory(cutting.Name)
	switch cat {
	case "database":
		return conservative // stability for the data layer
	case "ui":
		return cutting // innovation for user experience
	default:
		balanced := conservative
		balanced.Justification = fmt.Sprintf("balanced choice: %s, with selective adoption of %s patterns",
			conservative.Justification, cutting.Name)
		return balanced
	}
}

// synthesizeSteps implements the §4.5 merge rule: steps sharing a title
// across the two plans average effort, union risks/deliverables,
// inherit the conservative validation criteria, and default to moderate
// complexity.
func synthesizeSteps(cutting, conservative []Step) []Step {
	byTitle := func(steps []Step) map[string]Step {
		out := make(map[string]Step)
		for _, s := range steps {
			out[s.Title] = s
		}
		return out
	}
	cuttingByTitle := byTitle(cutting)
	conservativeByTitle := byTitle(conservative)

	titles := make(map[string]bool)
	for t := range cuttingByTitle {
		titles[t] = true
	}
	for t := range conservativeByTitle {
		titles[t] = true
	}
	sorted := make([]string, 0, len(titles))
	for t := range titles {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)

	var out []Step
	for i, title := range sorted {
		cuttingStep, haveCutting := cuttingByTitle[title]
		conservativeStep, haveConservative := conservativeByTitle[title]
		id := fmt.Sprintf("synthesis_step_%d", i+1)
		switch {
		case haveCutting && haveConservative:
			out = append(out, mergeSteps(cuttingStep, conservativeStep, id))
		case haveCutting:
			out = append(out, adaptStep(cuttingStep, id))
		case haveConservative:
			out = append(out, adaptStep(conservativeStep, id))
		}
	}
	return out
}

func mergeSteps(cutting, conservative Step, id string) Step {
	return Step{
		ID:                 id,
		Title:              "Synthesized: " + cutting.Title,
		Description:        "Balanced approach combining " + truncate(cutting.Description, 50) + "... with proven practices",
		EstimatedHours:     (cutting.EstimatedHours + conservative.EstimatedHours) / 2,
		Complexity:         "moderate",
		Dependencies:       cutting.Dependencies,
		Risks:              unionLimit(cutting.Risks, conservative.Risks, 5),
		Deliverables:       unionLimit(cutting.Deliverables, conservative.Deliverables, 5),
		ValidationCriteria: conservative.ValidationCriteria,
		Technologies:       unionLimit(cutting.Technologies, conservative.Technologies, 0),
	}
}

func adaptStep(s Step, id string) Step {
	s.ID = id
	s.Title = "Adapted: " + s.Title
	s.Description = "Synthesis-adapted: " + s.Description
	if s.Complexity == "" {
		s.Complexity = "moderate"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func unionLimit(a, b []string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
