package workflow

import "testing"

// TestMergeOutputClearsStaleDebugAndOptimizationFields covers the
// approval-rejection loop-back: round 1 goes through debugging and
// optimization, then plan_synthesis sends the graph back to
// code_generation for round 2. Round 2's fresh generated code must not
// inherit round 1's debugged/optimized code or test results.
func TestMergeOutputClearsStaleDebugAndOptimizationFields(t *testing.T) {
	s := NewState("wf-1", "task-1", "round trip", "code_generation", nil)

	s.MergeOutput(PhaseCodeGeneration, "code_generator-1", map[string]any{"generated_code": "round1 error"})
	s.MergeOutput(PhaseDebugging, "debugger-1", map[string]any{"debugged_code": "round1 fixed"})
	s.MergeOutput(PhaseOptimization, "optimizer-1", map[string]any{
		"optimized_code": "round1 optimized",
		"test_results":   map[string]any{"passed": true},
	})

	snap := s.Snapshot()
	if snap.DebuggedCode == "" || snap.OptimizedCode == "" || snap.TestResults == nil {
		t.Fatal("expected round 1 debug/optimization fields to be populated")
	}

	// Round 2: a fresh code_generation pass after an approval rejection
	// loop-back.
	s.MergeOutput(PhaseCodeGeneration, "code_generator-1", map[string]any{"generated_code": "round2 clean"})

	snap = s.Snapshot()
	if snap.DebuggedCode != "" {
		t.Fatalf("expected DebuggedCode cleared on fresh generation, got %q", snap.DebuggedCode)
	}
	if snap.OptimizedCode != "" {
		t.Fatalf("expected OptimizedCode cleared on fresh generation, got %q", snap.OptimizedCode)
	}
	if snap.TestResults != nil {
		t.Fatalf("expected TestResults cleared on fresh generation, got %v", snap.TestResults)
	}
	if snap.GeneratedCode != "round2 clean" {
		t.Fatalf("expected fresh generated code, got %q", snap.GeneratedCode)
	}
}
