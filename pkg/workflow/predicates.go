package workflow

import "strings"

// DefaultMaxRetries is the default max_retries: the debug/retry loop always
// terminates within max_retries+1 attempts.
const DefaultMaxRetries = 3

// shouldDebug gates the edge leaving code_generation: true when the
// generated-code field is absent or contains the literal word "error".
func shouldDebug(s *State) bool {
	snap := s.Snapshot()
	return snap.GeneratedCode == "" || strings.Contains(strings.ToLower(snap.GeneratedCode), "error")
}

// retryDecision is the three-way branch leaving debugging.
type retryDecision string

const (
	retryFail    retryDecision = "fail"
	retryProceed retryDecision = "optimize"
	retryDebug   retryDecision = "retry"
)

// shouldRetry implements should_retry: fail once retry_count has reached
// max_retries, proceed to optimization once debugged_code is present,
// otherwise loop back to code_generation and bump the counter.
func shouldRetry(s *State, maxRetries int) retryDecision {
	snap := s.Snapshot()
	if snap.RetryCount >= maxRetries {
		return retryFail
	}
	if snap.DebuggedCode != "" {
		return retryProceed
	}
	s.IncrementRetry()
	return retryDebug
}

// requiresApproval is approval?: read directly off the flag the
// quality_assessment phase sets.
func requiresApproval(s *State) bool {
	return s.Snapshot().RequiresHumanApproval
}

// approvalDecision is decision: reads approval_status.
func approvalDecision(s *State) ApprovalStatus {
	return s.Snapshot().ApprovalStatus
}
