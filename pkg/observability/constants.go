package observability

const (
	AttrServiceName    = "service.name"
	AttrServiceVersion = "service.version"

	AttrAgentID   = "agent.id"
	AttrAgentRole = "agent.role"
	AttrTaskID    = "task.id"
	AttrTaskType  = "task.type"

	AttrWorkflowID = "workflow.id"
	AttrPhase      = "workflow.phase"

	AttrCollaboratorKind     = "collaborator.kind"
	AttrCollaboratorProvider = "collaborator.provider"
	AttrTokensInput          = "collaborator.tokens.input"
	AttrTokensOutput         = "collaborator.tokens.output"

	AttrErrorType = "error.type"

	AttrHTTPMethod       = "http.method"
	AttrHTTPPath         = "http.path"
	AttrHTTPStatusCode   = "http.status_code"
	AttrHTTPResponseSize = "http.response_size"

	AttrEventID = "swarm.event_id"

	SpanAgentRun         = "swarm.agent_run"
	SpanCollaboratorCall = "swarm.collaborator_call"
	SpanWorkflowPhase    = "swarm.workflow_phase"
	SpanHTTPRequest      = "swarm.http_request"

	DefaultServiceName  = "agentswarm"
	DefaultOTLPEndpoint = "localhost:4317"
	DefaultMetricsPath  = "/metrics"
	DefaultSamplingRate = 1.0
)
