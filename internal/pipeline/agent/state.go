package agent

import (
	"github.com/cloudwego/eino/schema"
)

// State stores per-invocation state for the agent graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState.
//   - Read and written only inside state pre/post handlers or compose.ProcessState,
//     which eino serializes, so no extra locking is needed.
type State struct {
	History              []*schema.Message // mutated only inside state handlers
	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int // sequence for synthesizing missing tool_call_id values
	TotalCostUSD         float64
}

const DefaultMaxToolCalls = 10

// normalizeMaxToolCalls returns a sane default when the provided value is invalid.
func normalizeMaxToolCalls(n int) int {
	if n <= 0 {
		return DefaultMaxToolCalls
	}
	return n
}

// checkAndMarkToolLimit marks the state when the next model turn may not call
// tools any more. Returns true only when marked now.
func checkAndMarkToolLimit(state *State, max int) bool {
	max = normalizeMaxToolCalls(max)
	if !state.ToolCallLimitReached && state.ToolCallCount >= max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// incrementToolCallAndCheck counts one tool round and reports whether the
// limit is now exceeded.
func incrementToolCallAndCheck(state *State, max int) bool {
	max = normalizeMaxToolCalls(max)
	state.ToolCallCount++
	if state.ToolCallCount > max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}
