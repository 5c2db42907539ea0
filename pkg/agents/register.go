package agents

import (
	"fmt"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/collaborators"
)

// Registrar is the subset of swarm.Manager needed to wire up the default
// agent roster: RegisterAgent(role, agent) plus the bus-level routing it
// performs internally. Declared here rather than imported from pkg/swarm
// to avoid a pkg/agents -> pkg/swarm -> pkg/workflow -> pkg/agent import
// cycle; swarm.Manager satisfies it as-is.
type Registrar interface {
	RegisterAgent(role string, a agent.Agent) error
}

// RegisterDefaultAgents wires one instance of every concrete role agent
// (repository analyst, the three planners, and the four code-generation
// pipeline roles) into m, each under its own id derived from its role
// name. repo backs the repository analyst's file-fetch step; pass
// collaborators.NewLocalRepository(nil) for a single-process deployment
// with no external repository gateway configured.
func RegisterDefaultAgents(m Registrar, limits agent.ResourceLimits, repo collaborators.RepositoryFetcher) error {
	roster := []struct {
		role  string
		agent *agent.BaseAgent
	}{
		{"repository_analyst", NewRepositoryAnalystAgent("repository_analyst-1", limits, repo)},
		{"cutting_edge_planner", NewCuttingEdgePlannerAgent("cutting_edge_planner-1", limits)},
		{"conservative_planner", NewConservativePlannerAgent("conservative_planner-1", limits)},
		{"synthesis_planner", NewSynthesisPlannerAgent("synthesis_planner-1", limits)},
		{"code_generator", NewCodeGeneratorAgent("code_generator-1", limits)},
		{"debugger", NewDebuggerAgent("debugger-1", limits)},
		{"optimizer", NewOptimizerAgent("optimizer-1", limits)},
		{"quality_assessor", NewQualityAssessorAgent("quality_assessor-1", limits)},
	}

	for _, r := range roster {
		if err := m.RegisterAgent(r.role, r.agent); err != nil {
			return fmt.Errorf("agents: register %s: %w", r.role, err)
		}
	}
	return nil
}
